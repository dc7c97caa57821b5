// ABOUTME: Filter grammar for search and list operations
// ABOUTME: Field literals mean equality, nested {$op: value} maps mean operator conditions
package knowledge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Supported condition operators, Mongo/Chroma style.
const (
	opEq       = "$eq"
	opNe       = "$ne"
	opGt       = "$gt"
	opGte      = "$gte"
	opLt       = "$lt"
	opLte      = "$lte"
	opContains = "$contains"
)

type condition struct {
	field string
	op    string
	value interface{}
}

// Filter is a parsed filter mapping. All conditions combine with AND.
type Filter struct {
	conds []condition
}

// ParseFilter translates the tool-facing filter shape into conditions.
// A literal value is an equality test; a nested map holds operator
// conditions, e.g. {"quality_score": {"$gte": 0.5}, "status": "active"}.
func ParseFilter(raw map[string]interface{}) (*Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Sorted keys keep condition order deterministic.
	fields := make([]string, 0, len(raw))
	for field := range raw {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	f := &Filter{}
	for _, field := range fields {
		switch value := raw[field].(type) {
		case map[string]interface{}:
			ops := make([]string, 0, len(value))
			for op := range value {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				switch op {
				case opEq, opNe, opGt, opGte, opLt, opLte, opContains:
					f.conds = append(f.conds, condition{field: field, op: op, value: value[op]})
				default:
					return nil, fmt.Errorf("unknown filter operator %q for field %q", op, field)
				}
			}
		default:
			f.conds = append(f.conds, condition{field: field, op: opEq, value: value})
		}
	}
	return f, nil
}

// WhereEquals extracts the equality conditions with string values; those push
// down to the vector store's native where clause. Everything else is
// evaluated client-side by Matches.
func (f *Filter) WhereEquals() map[string]string {
	if f == nil {
		return nil
	}
	where := make(map[string]string)
	for _, c := range f.conds {
		if c.op == opEq {
			if s, ok := c.value.(string); ok {
				where[c.field] = s
			}
		}
	}
	if len(where) == 0 {
		return nil
	}
	return where
}

// HasResidual reports whether any condition is NOT covered by WhereEquals and
// so requires client-side evaluation over a wider candidate set.
func (f *Filter) HasResidual() bool {
	if f == nil {
		return false
	}
	for _, c := range f.conds {
		if c.op != opEq {
			return true
		}
		if _, ok := c.value.(string); !ok {
			return true
		}
	}
	return false
}

// Matches evaluates every condition against a flat metadata map. It is a
// superset of WhereEquals, so re-checking pushed-down conditions is harmless.
func (f *Filter) Matches(metadata map[string]string) bool {
	if f == nil {
		return true
	}
	for _, c := range f.conds {
		if !c.matches(metadata[c.field]) {
			return false
		}
	}
	return true
}

func (c condition) matches(raw string) bool {
	if c.op == opContains {
		return strings.Contains(raw, fmt.Sprint(c.value))
	}

	// Numeric filter values compare numerically against the stored string
	// form; everything else compares lexically.
	if want, isNum := toFloat(c.value); isNum {
		got, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return false
		}
		return compare(c.op, got, want)
	}

	want := fmt.Sprint(c.value)
	switch c.op {
	case opEq:
		return raw == want
	case opNe:
		return raw != want
	case opGt:
		return raw > want
	case opGte:
		return raw >= want
	case opLt:
		return raw < want
	case opLte:
		return raw <= want
	}
	return false
}

func compare(op string, got, want float64) bool {
	switch op {
	case opEq:
		return got == want
	case opNe:
		return got != want
	case opGt:
		return got > want
	case opGte:
		return got >= want
	case opLt:
		return got < want
	case opLte:
		return got <= want
	}
	return false
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
