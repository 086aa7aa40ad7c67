// pkg/source/values.go
package source

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Lenient cell coercion for raw extracts. The raw layer makes no type
// guarantees, so unparseable cells coerce to zero values or nil rather
// than failing the fetch.

// isNull determines if a raw cell should be treated as NULL
func isNull(value interface{}) bool {
	if value == nil {
		return true
	}

	if strVal, ok := value.(string); ok {
		switch strVal {
		case "", "null", "NULL", "nil", "NIL":
			return true
		}
	}

	return false
}

// asString coerces a raw cell to a string, empty for NULL
func asString(value interface{}) string {
	if isNull(value) {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asInt coerces a raw cell to an int, zero when unparseable
func asInt(value interface{}) int {
	if v := asIntPtr(value); v != nil {
		return *v
	}
	return 0
}

// asIntPtr coerces a raw cell to an int, nil for NULL or unparseable
func asIntPtr(value interface{}) *int {
	if isNull(value) {
		return nil
	}

	switch v := value.(type) {
	case int:
		return &v
	case int32:
		n := int(v)
		return &n
	case int64:
		n := int(v)
		return &n
	case float64:
		n := int(v)
		return &n
	case []byte:
		return parseIntString(string(v))
	case string:
		return parseIntString(v)
	default:
		return nil
	}
}

func parseIntString(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Numeric exports sometimes arrive as "123.0"
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

// asFloatPtr coerces a raw cell to a float64, nil for NULL or unparseable
func asFloatPtr(value interface{}) *float64 {
	if isNull(value) {
		return nil
	}

	switch v := value.(type) {
	case float64:
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case []byte:
		return parseFloatString(string(v))
	case string:
		return parseFloatString(v)
	default:
		return nil
	}
}

func parseFloatString(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	return nil
}

// asTimePtr coerces a raw cell to a time.Time, nil for NULL or unparseable
func asTimePtr(value interface{}) *time.Time {
	if isNull(value) {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		return &v
	case []byte:
		return parseTimeString(string(v))
	case string:
		return parseTimeString(v)
	default:
		return nil
	}
}

func parseTimeString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Try common extract formats
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	return nil
}
