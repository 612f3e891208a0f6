package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"crud-admin/internal/metadata"
)

// coerceValue converts loosely-typed input (form strings, JSON numbers) to the
// Go type matching the column. Text, date, timestamp and uuid values are passed
// to the driver unchanged.
func coerceValue(col *metadata.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.DataType {
	case metadata.TypeInteger:
		switch val := v.(type) {
		case string:
			return strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		case float64:
			if val != math.Trunc(val) {
				return nil, fmt.Errorf("%v is not an integer", val)
			}
		}
		return cast.ToInt64E(v)
	case metadata.TypeNumeric:
		if s, ok := v.(string); ok {
			return strconv.ParseFloat(strings.TrimSpace(s), 64)
		}
		return cast.ToFloat64E(v)
	case metadata.TypeBoolean:
		if s, ok := v.(string); ok {
			return strconv.ParseBool(strings.TrimSpace(s))
		}
		return cast.ToBoolE(v)
	case metadata.TypeText:
		return cast.ToStringE(v)
	case metadata.TypeJSON:
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, err
			}
			return string(b), nil
		}
		return v, nil
	default:
		switch v.(type) {
		case map[string]any, []any:
			return nil, fmt.Errorf("unsupported value for %s column", col.DataType)
		}
		return v, nil
	}
}

// isEmptyValue reports the values the create path and the filters treat as "not provided".
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
