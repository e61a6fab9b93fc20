package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/eslsoft/wordindex/internal/entity"
)

type StringList []string

type Variants []entity.Variant

type Etymology []entity.EtymologySegment

type MediaLinks []entity.MediaLink

type Definitions []entity.Definition

// Scan implements sql.Scanner
func (v *StringList) Scan(src any) error { return scanJSON(src, v, "StringList") }

// Value implements driver.Valuer
func (v StringList) Value() (driver.Value, error) { return valueJSON(v, v == nil) }

// Scan implements sql.Scanner
func (v *Variants) Scan(src any) error { return scanJSON(src, v, "Variants") }

// Value implements driver.Valuer
func (v Variants) Value() (driver.Value, error) { return valueJSON(v, v == nil) }

// Scan implements sql.Scanner
func (v *Etymology) Scan(src any) error { return scanJSON(src, v, "Etymology") }

// Value implements driver.Valuer
func (v Etymology) Value() (driver.Value, error) { return valueJSON(v, v == nil) }

// Scan implements sql.Scanner
func (v *MediaLinks) Scan(src any) error { return scanJSON(src, v, "MediaLinks") }

// Value implements driver.Valuer
func (v MediaLinks) Value() (driver.Value, error) { return valueJSON(v, v == nil) }

// Scan implements sql.Scanner
func (v *Definitions) Scan(src any) error { return scanJSON(src, v, "Definitions") }

// Value implements driver.Valuer
func (v Definitions) Value() (driver.Value, error) { return valueJSON(v, v == nil) }

func scanJSON(src any, dst any, name string) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("%s: unsupported src type %T", name, src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// valueJSON encodes as text so the same value binds to sqlite TEXT and
// postgres JSONB columns.
func valueJSON(v any, isNil bool) (driver.Value, error) {
	if isNil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
