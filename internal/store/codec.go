package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimeLayout matches ISO-8601 with millisecond precision so stored
// timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type Kind int

const (
	// KindAuto applies the legacy heuristic: JSON-parse, then coerce fully
	// numeric strings to numbers.
	KindAuto Kind = iota
	KindString
	KindNumber
	KindBool
	KindJSON
)

// Schema declares how individual hash fields decode. Fields not listed use
// KindAuto.
type Schema map[string]Kind

// EncodeValue maps one field value to its stored string form. Strings are
// stored verbatim, times as TimeLayout, everything else as JSON.
func EncodeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case time.Time:
		return val.UTC().Format(TimeLayout), nil
	case *time.Time:
		if val == nil {
			return "null", nil
		}
		return val.UTC().Format(TimeLayout), nil
	case json.Number:
		return val.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Encode serializes a record into hash fields.
func Encode(r Record) (map[string]string, error) {
	out := make(map[string]string, len(r))
	for k, v := range r {
		s, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("store: encode field %q: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}

// DecodeValue reverses EncodeValue heuristically. Any value that parses as
// JSON is returned decoded. A string left over that is entirely numeric
// becomes a float64, so a string field holding "1001" reads back as 1001.
func DecodeValue(s string) any {
	var v any = s
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		v = parsed
	}
	if str, ok := v.(string); ok {
		if n, ok := numeric(str); ok {
			return n
		}
	}
	return v
}

func numeric(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Decode turns hash fields into a record. It returns nil when the hash is
// empty or has no id, which callers treat as absence.
func Decode(raw map[string]string, schema Schema) Record {
	if len(raw) == 0 || raw["id"] == "" {
		return nil
	}
	out := make(Record, len(raw))
	for k, s := range raw {
		out[k] = decodeKind(s, schema[k])
	}
	return out
}

func decodeKind(s string, kind Kind) any {
	switch kind {
	case KindString:
		return s
	case KindNumber:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	case KindBool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	case KindJSON:
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			return parsed
		}
		return s
	}
	return DecodeValue(s)
}

// hashArgs flattens encoded fields in key order for HSET.
func hashArgs(fields map[string]string) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}
