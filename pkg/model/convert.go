// pkg/model/convert.go
package model

// AsFloat returns the value of a cell that already holds a Go number.
// Missing cells, strings and every other type report false.
func AsFloat(v interface{}) (float64, bool) {
	if IsMissing(v) {
		return 0, false
	}

	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// IsNumeric reports whether a present cell holds a Go number
func IsNumeric(v interface{}) bool {
	_, ok := AsFloat(v)
	return ok
}
