package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a tool argument to the primitive its field declares:
// integer → int64, number → float64, boolean → bool, string → string.
// Fields of unknown type accept any value unchanged. A nil value stays nil.
func Coerce(f Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	var (
		out any
		err error
	)
	switch f.kind {
	case KindInteger:
		out, err = toInt(v)
	case KindNumber:
		out, err = toFloat(v)
	case KindBoolean:
		out, err = toBool(v)
	default:
		if f.Type == TypeUnknown {
			return v, nil
		}
		out, err = toText(v)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return out, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", n.String())
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected an integer, got %v", f)
	}
	if !fitsInt64(f) {
		return 0, fmt.Errorf("integer %v out of range", f)
	}
	return int64(f), nil
}

// fitsInt64 reports whether f converts to int64 without overflow.
// math.MaxInt64 is not representable, so float64(math.MaxInt64) is 2^63.
func fitsInt64(f float64) bool {
	return f >= math.MinInt64 && f < math.MaxInt64
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", n.String())
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", n)
		}
		return f, nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, fmt.Errorf("expected a boolean, got %q", b)
		}
		return parsed, nil
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

func toText(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool, int, int64, float64:
		return fmt.Sprint(s), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("expected text: %w", err)
	}
	return string(data), nil
}
