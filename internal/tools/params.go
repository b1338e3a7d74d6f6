package tools

import (
	"fmt"
	"strconv"
)

// int64Param reads an integer parameter sent either as a JSON number or a string.
func int64Param(params map[string]interface{}, name string) (int64, bool, error) {
	switch v := params[name].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return int64(v), true, nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid %s: %w", name, err)
		}
		return n, true, nil
	}
	return 0, false, fmt.Errorf("invalid %s: %v", name, params[name])
}

func stringParam(params map[string]interface{}, name string) string {
	s, _ := params[name].(string)
	return s
}

func boolParam(params map[string]interface{}, name string) bool {
	switch v := params[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
