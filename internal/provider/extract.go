package provider

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ExtractInts normalizes an integer list from the formats the stats server
// uses for it.
//
// Some payload fields are real JSON arrays ([1, 340, 612]); others are a
// string holding the encoded array ("[1, 340, 612]"). Numbers may arrive as
// floats or numeric strings. null and "" yield an empty list.
func ExtractInts(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		if encoded == "" {
			return nil, nil
		}
		return ExtractInts(json.RawMessage(encoded))
	}

	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode int list: %w", err)
	}

	out := make([]int, 0, len(items))
	for i, item := range items {
		n, ok := ExtractInt(item)
		if !ok {
			return nil, fmt.Errorf("decode int list: element %d is %v", i, item)
		}
		out = append(out, n)
	}
	return out, nil
}

// ExtractInt converts a decoded JSON scalar to int. Returns ok=false for
// anything that is not a whole number.
func ExtractInt(val interface{}) (int, bool) {
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
		return 0, false
	default:
		return 0, false
	}
}
