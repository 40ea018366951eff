package dispatcher

import (
	"encoding/json"
	"fmt"
	"math"
)

// Value is a structured payload: nil, bool, number, string, a sequence of
// values, or a string-keyed mapping of values.
type Value = any

// ValidateValue reports the first element of v that falls outside the
// structured value shape.
func ValidateValue(v Value) error {
	return validateValue(v, "$")
}

func validateValue(v Value, path string) error {
	switch t := v.(type) {
	case nil, bool, string, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return nil
	case float32:
		return checkFloat(float64(t), path)
	case float64:
		return checkFloat(t, path)
	case []string:
		return nil
	case []any:
		for i, item := range t {
			if err := validateValue(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for k, item := range t {
			if err := validateValue(item, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	case map[string]string:
		return nil
	default:
		return fmt.Errorf("unsupported value type %T at %s", v, path)
	}
}

func checkFloat(f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite number at %s", path)
	}
	return nil
}
