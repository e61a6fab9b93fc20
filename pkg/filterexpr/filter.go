package filterexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// ErrInvalid marks filter and order_by input the caller got wrong.
var ErrInvalid = errors.New("invalid filter expression")

// Msg wraps request DTOs that expose filter and order_by raw inputs.
type Msg interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind describes the CEL type a filter variable is declared with.
type ValueKind string

const (
	KindString     ValueKind = "string"
	KindNumber     ValueKind = "number"
	KindTimestamp  ValueKind = "timestamp"
	KindStringList ValueKind = "string_list"
)

// ResourceSchema aggregates filtering and ordering rules for a resource of
// type T. Vars exposes one item to the filter under the names in Filter.
type ResourceSchema[T any] struct {
	Filter map[string]ValueKind
	Vars   func(item T) map[string]any
	Order  OrderSchema[T]
}

// Predicate is a compiled boolean filter.
type Predicate struct {
	source string
	prg    cel.Program
}

// Compile type-checks filter against fields. An empty filter compiles to a
// nil Predicate, which matches everything.
func Compile(filter string, fields map[string]ValueKind) (*Predicate, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}
	if len(fields) == 0 {
		return nil, errors.New("filter schema has no fields defined")
	}

	env, err := buildEnv(fields)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(filter)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must evaluate to bool, got %s", ErrInvalid, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build program: %w", err)
	}
	return &Predicate{source: filter, prg: prg}, nil
}

// Match evaluates the predicate against vars.
func (p *Predicate) Match(vars map[string]any) (bool, error) {
	if p == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("%w: evaluate %q: %v", ErrInvalid, p.source, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q did not produce a bool", ErrInvalid, p.source)
	}
	return matched, nil
}

func (p *Predicate) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

func buildEnv(fields map[string]ValueKind) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(fields)+1)
	for name, kind := range fields {
		celType, err := celTypeForKind(kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindTimestamp:
		return cel.TimestampType, nil
	case KindStringList:
		return cel.ListType(cel.StringType), nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

// Query is a parsed filter plus ordering for one resource.
type Query[T any] struct {
	schema    ResourceSchema[T]
	predicate *Predicate
	order     Order
}

// Parse compiles the request filter and order_by against schema.
func Parse[M Msg, T any](msg M, schema ResourceSchema[T]) (*Query[T], error) {
	pred, err := Compile(msg.GetFilter(), schema.Filter)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	if pred != nil && schema.Vars == nil {
		return nil, errors.New("filter: schema has no variable binding")
	}
	order, err := ParseOrderBy(msg.GetOrderBy(), schema.Order)
	if err != nil {
		return nil, fmt.Errorf("order_by: %w", err)
	}
	return &Query[T]{schema: schema, predicate: pred, order: order}, nil
}

// Order returns the resolved ordering.
func (q *Query[T]) Order() Order { return q.order }

// Apply keeps the items matching the filter and sorts them. The input slice
// is not modified.
func (q *Query[T]) Apply(items []T) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if q.predicate != nil {
			ok, err := q.predicate.Match(q.schema.Vars(item))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, item)
	}
	SortBy(out, q.order, q.schema.Order)
	return out, nil
}
