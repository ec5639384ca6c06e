// Package convert provides type conversion utilities.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 converts various numeric types to float64.
// Returns 0 for unsupported types or parse failures.
func ToFloat64(v any) float64 {
	f, _ := Float64(v)
	return f
}

// Float64 is the strict variant: it reports whether the value could be
// interpreted as a finite number at all. Container-wrapped scalars
// (single-element slices) are unwrapped first.
func Float64(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("nil is not a number")
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		return finite(f)
	case []float64:
		if len(t) == 1 {
			return finite(t[0])
		}
		return 0, fmt.Errorf("slice of %d elements is not a scalar", len(t))
	case []any:
		if len(t) == 1 {
			return Float64(t[0])
		}
		return 0, fmt.Errorf("slice of %d elements is not a scalar", len(t))
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func finite(f float64) (float64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}
