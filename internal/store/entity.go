package store

import "strings"

// Entity describes how one record type is laid out in Redis:
//
//	{name}:{id}                          hash holding the record
//	{setKey}                             set of every id
//	{name}:{field}:{value}[:{field}:{value}...]  unique index -> id
//	{name}:{field}:{value}               group index (set of ids)
type Entity struct {
	Name       string
	SetKey     string
	Schema     Schema
	Timestamps bool

	unique []Index
	groups []string
}

// Index is a unique secondary index over one or more fields.
type Index struct {
	Fields []string
}

func NewEntity(name, setKey string) *Entity {
	return &Entity{Name: name, SetKey: setKey, Schema: Schema{}}
}

// Unique registers a unique index. The first registered index is the
// idempotency key used by Upsert.
func (e *Entity) Unique(fields ...string) *Entity {
	e.unique = append(e.unique, Index{Fields: append([]string(nil), fields...)})
	return e
}

// GroupBy keeps a non-unique set of ids per value of field.
func (e *Entity) GroupBy(field string) *Entity {
	e.groups = append(e.groups, field)
	return e
}

func (e *Entity) WithSchema(s Schema) *Entity {
	for k, v := range s {
		e.Schema[k] = v
	}
	return e
}

func (e *Entity) WithTimestamps() *Entity {
	e.Timestamps = true
	return e
}

func (e *Entity) Indexes() []Index {
	return append([]Index(nil), e.unique...)
}

func (e *Entity) RecordKey(id string) string {
	return e.Name + ":" + id
}

// IndexKey builds the unique index key for r. ok is false when any indexed
// field is missing or empty, in which case the record is not indexed.
func (e *Entity) IndexKey(idx Index, r Record) (string, bool) {
	var b strings.Builder
	b.WriteString(e.Name)
	for _, f := range idx.Fields {
		v := r.String(f)
		if v == "" {
			return "", false
		}
		b.WriteString(":")
		b.WriteString(f)
		b.WriteString(":")
		b.WriteString(v)
	}
	return b.String(), true
}

func (e *Entity) GroupKey(field, value string) string {
	return e.Name + ":" + field + ":" + value
}

func (e *Entity) indexFor(fields []string) (Index, bool) {
	for _, idx := range e.unique {
		if sameFields(idx.Fields, fields) {
			return idx, true
		}
	}
	return Index{}, false
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, f := range a {
		seen[f]++
	}
	for _, f := range b {
		if seen[f] == 0 {
			return false
		}
		seen[f]--
	}
	return true
}

func (idx Index) label() string {
	return strings.Join(idx.Fields, "+")
}
