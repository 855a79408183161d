package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/skybook/airline/pkg/errors"
)

// Operator is a search comparison.
type Operator string

const (
	// OpAtLeast matches column >= value.
	OpAtLeast Operator = ">"
	// OpAtMost matches column <= value.
	OpAtMost Operator = "<"
	// OpMatch is a case-insensitive contains match on text columns and
	// equality on everything else.
	OpMatch Operator = ":"
)

// ValidOperator reports whether op is one of the supported operators.
func ValidOperator(op string) bool {
	switch Operator(op) {
	case OpAtLeast, OpAtMost, OpMatch:
		return true
	}
	return false
}

// FieldKind drives how a criterion value is parsed.
type FieldKind int

const (
	KindInteger FieldKind = iota
	KindNumber
	KindTime
	KindText
)

// Field is a searchable flight attribute.
type Field struct {
	Column string
	Kind   FieldKind
}

// searchFields maps JSON attribute names to columns.
var searchFields = map[string]Field{
	"id":                     {Column: "id", Kind: KindInteger},
	"airplaneId":             {Column: "airplane_id", Kind: KindInteger},
	"startAirportId":         {Column: "start_airport_id", Kind: KindInteger},
	"destinationAirportId":   {Column: "destination_airport_id", Kind: KindInteger},
	"startDate":              {Column: "start_date", Kind: KindTime},
	"arrivalDate":            {Column: "arrival_date", Kind: KindTime},
	"price":                  {Column: "price", Kind: KindNumber},
	"numberOfAvailableSeats": {Column: "number_of_available_seats", Kind: KindInteger},
	"description":            {Column: "description", Kind: KindText},
}

// Criterion is one raw search condition as sent by a client.
type Criterion struct {
	Key       string
	Operation string
	Value     any
}

// Filter is a validated criterion with its value converted to the column type.
type Filter struct {
	Field Field
	Op    Operator
	Value any
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly}

// ParseCriteria validates keys and operators and converts every value to the
// type of its column.
func ParseCriteria(criteria []Criterion) ([]Filter, error) {
	filters := make([]Filter, 0, len(criteria))
	for _, c := range criteria {
		field, ok := searchFields[c.Key]
		if !ok {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown search key %q", c.Key))
		}
		if !ValidOperator(c.Operation) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown search operation %q", c.Operation))
		}
		v, err := convert(field.Kind, c.Value)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid value for %s: %v", c.Key, err))
		}
		filters = append(filters, Filter{Field: field, Op: Operator(c.Operation), Value: v})
	}
	return filters, nil
}

func convert(kind FieldKind, raw any) (any, error) {
	s := strings.TrimSpace(fmt.Sprint(raw))
	if raw == nil || s == "" {
		return nil, fmt.Errorf("value is empty")
	}
	switch kind {
	case KindInteger:
		// JSON numbers decode as float64.
		if f, ok := raw.(float64); ok {
			if f != float64(int64(f)) {
				return nil, fmt.Errorf("%v is not an integer", f)
			}
			return int64(f), nil
		}
		return strconv.ParseInt(s, 10, 64)
	case KindNumber:
		if f, ok := raw.(float64); ok {
			return f, nil
		}
		return strconv.ParseFloat(s, 64)
	case KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("%q is not a timestamp", s)
	default:
		return s, nil
	}
}
