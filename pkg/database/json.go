package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ScanJSON unmarshals a JSONB column value into dest. NULL leaves dest untouched.
func ScanJSON(src any, dest any) error {
	if src == nil {
		return nil
	}

	switch v := src.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into JSON value", src)
	}
}

// ValueJSON marshals v for a JSONB column. Nil-like values become SQL NULL.
func ValueJSON(v any, empty bool) (driver.Value, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}
