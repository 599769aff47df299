package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a decoded entity: field name to value. Values follow
// encoding/json conventions (float64 numbers, map[string]any objects).
type Record map[string]any

// FromStruct converts a json-tagged struct into a Record.
func FromStruct(v any) (Record, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode struct: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("store: decode struct: %w", err)
	}
	return r, nil
}

// Into copies the record into a json-tagged struct.
func (r Record) Into(dst any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	return nil
}

func (r Record) ID() string {
	return r.String("id")
}

// String returns the field as text regardless of how it was decoded.
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	s, _ := EncodeValue(v)
	return s
}

func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func (r Record) clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
