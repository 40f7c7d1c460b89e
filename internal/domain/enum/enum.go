package enum

import (
	"encoding/json"
	"fmt"
)

// Invalid is assigned when a name cannot be parsed, so services can reject
// the value with a validation error instead of failing at bind time.
const Invalid = -1

type names []string

func (n names) name(i int) string {
	if i < 0 || i >= len(n) {
		return "Unknown"
	}
	return n[i]
}

func (n names) valid(i int) bool {
	return i >= 0 && i < len(n)
}

// parse accepts either the name or the ordinal.
func (n names) parse(data []byte) (int, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return Invalid, err
		}
		if !n.valid(i) {
			return Invalid, nil
		}
		return i, nil
	}
	return n.lookup(str), nil
}

func (n names) lookup(str string) int {
	for i, name := range n {
		if name == str {
			return i
		}
	}
	return Invalid
}

func scanInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case int:
		return v, nil
	case []byte:
		var i int
		_, err := fmt.Sscan(string(v), &i)
		return i, err
	default:
		return 0, fmt.Errorf("enum: cannot scan %T", value)
	}
}
