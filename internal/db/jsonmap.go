package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores schema-less supplementary attributes (nakshatra, padham,
// photo references, contact fields) as a JSON column. Keys are interpreted
// opportunistically by presentation code only; the access-control core never
// reads them.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extra data: %w", err)
	}
	return string(b), nil
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported extra data type %T", value)
	}

	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// GormDataType tells the migrator to create a JSON-capable column.
func (JSONMap) GormDataType() string { return "json" }

// String returns the value under key if it is a non-empty string.
func (m JSONMap) String(key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
