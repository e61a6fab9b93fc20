package filterexpr

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CompareFunc orders two items by one key, returning a negative number when
// a sorts before b.
type CompareFunc[T any] func(a, b T) int

// OrderSchema describes ordering defaults and whitelisted keys.
type OrderSchema[T any] struct {
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	FallbackKey        string
	FallbackDesc       bool
	Fields             map[string]CompareFunc[T]
}

// Order is a resolved two-key ordering.
type Order struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// ParseOrderBy resolves raw ("updated_at desc, word") against schema. An
// empty raw yields the schema defaults.
func ParseOrderBy[T any](raw string, schema OrderSchema[T]) (Order, error) { //nolint:gocognit,gocyclo // parsing DSL entails validation branches for readability
	if schema.DefaultPrimary == "" {
		return Order{}, errors.New("order schema default primary key required")
	}
	if schema.FallbackKey == "" {
		return Order{}, errors.New("order schema fallback key required")
	}
	if _, ok := schema.Fields[schema.DefaultPrimary]; !ok {
		return Order{}, fmt.Errorf("order key %q missing from schema fields", schema.DefaultPrimary)
	}
	if _, ok := schema.Fields[schema.FallbackKey]; !ok {
		return Order{}, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
	}

	ord := Order{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		key := parts[0]
		if _, ok := schema.Fields[key]; !ok {
			return Order{}, fmt.Errorf("%w: field %q cannot be used for ordering", ErrInvalid, key)
		}

		var desc bool
		switch len(parts) {
		case 1:
		case 2:
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return Order{}, fmt.Errorf("%w: invalid direction %q for field %q", ErrInvalid, parts[1], key)
			}
		default:
			return Order{}, fmt.Errorf("%w: invalid order segment %q", ErrInvalid, strings.TrimSpace(seg))
		}

		if _, dup := seen[key]; dup {
			return Order{}, fmt.Errorf("%w: duplicate order key %q", ErrInvalid, key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey = key
			ord.PrimaryDesc = desc
			ord.SecondaryKey = schema.FallbackKey
			ord.SecondaryDesc = schema.FallbackDesc
		case 1:
			ord.SecondaryKey = key
			ord.SecondaryDesc = desc
		default:
			return Order{}, fmt.Errorf("%w: order_by supports at most two keys", ErrInvalid)
		}
		idx++
	}

	if ord.SecondaryKey == ord.PrimaryKey {
		// fallback duplicates the primary; pick the first other key in name order
		keys := make([]string, 0, len(schema.Fields))
		for key := range schema.Fields {
			if key != ord.PrimaryKey {
				keys = append(keys, key)
			}
		}
		if len(keys) == 0 {
			return Order{}, errors.New("order schema requires at least two distinct keys for stable ordering")
		}
		slices.Sort(keys)
		ord.SecondaryKey = keys[0]
		ord.SecondaryDesc = false
	}

	return ord, nil
}

// SortBy stable-sorts items by ord using the comparators in schema.
func SortBy[T any](items []T, ord Order, schema OrderSchema[T]) {
	primary := schema.Fields[ord.PrimaryKey]
	secondary := schema.Fields[ord.SecondaryKey]
	slices.SortStableFunc(items, func(a, b T) int {
		if primary != nil {
			if c := directed(primary(a, b), ord.PrimaryDesc); c != 0 {
				return c
			}
		}
		if secondary != nil {
			return directed(secondary(a, b), ord.SecondaryDesc)
		}
		return 0
	})
}

func directed(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}
