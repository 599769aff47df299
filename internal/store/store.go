package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownEntity = errors.New("store: unknown entity")

// Page is one slice of a List result.
type Page struct {
	Items []Record
	Total int
	Page  int
	Limit int
}

const (
	DefaultLimit = 20
	// MaxLimit caps page sizes requested through the HTTP list endpoints.
	MaxLimit = 100
)

// Store persists records as Redis hashes and enforces unique secondary
// indexes. Index entries are claimed with SETNX before the record is
// written, so two writers racing on the same unique value cannot both win.
type Store struct {
	rdb redis.Cmdable

	mu       sync.RWMutex
	entities map[string]*Entity

	newID func() string
	now   func() time.Time
}

type Option func(*Store)

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func New(rdb redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		rdb:      rdb,
		entities: make(map[string]*Entity),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register makes an entity available to the record operations.
func (s *Store) Register(e *Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[e.Name] = e
}

// RegisterUniqueIndex adds a unique index to an already registered entity.
// Records written before the call are not back-filled.
func (s *Store) RegisterUniqueIndex(entity string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	e.Unique(fields...)
	return nil
}

func (s *Store) entity(name string) (*Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimeLayout)
}

func transient(err error) error {
	return apperror.Transient(err, "backing store unavailable")
}

// Create writes a new record. An "id" in fields is honoured, otherwise one
// is generated.
func (s *Store) Create(ctx context.Context, entity string, fields Record) (Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}

	rec := fields.clone()
	id := rec.ID()
	if id == "" {
		id = s.newID()
	}
	rec["id"] = id
	if e.Timestamps {
		ts := s.timestamp()
		if _, ok := rec["createdAt"]; !ok {
			rec["createdAt"] = ts
		}
		rec["updatedAt"] = ts
	}

	encoded, err := Encode(rec)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "record cannot be stored", http.StatusBadRequest)
	}

	claimed := make([]string, 0, len(e.unique))
	for _, idx := range e.unique {
		key, ok := e.IndexKey(idx, rec)
		if !ok {
			continue
		}
		won, err := s.rdb.SetNX(ctx, key, id, 0).Result()
		if err != nil {
			s.release(ctx, claimed)
			return nil, transient(err)
		}
		if !won {
			s.release(ctx, claimed)
			return nil, apperror.Conflict(idx.label() + " already exists")
		}
		claimed = append(claimed, key)
	}

	if err := s.write(ctx, e, id, encoded); err != nil {
		s.release(ctx, claimed)
		return nil, err
	}
	if err := s.addGroups(ctx, e, id, rec); err != nil {
		return nil, err
	}

	return Decode(encoded, e.Schema), nil
}

func (s *Store) write(ctx context.Context, e *Entity, id string, encoded map[string]string) error {
	if err := s.rdb.HSet(ctx, e.RecordKey(id), hashArgs(encoded)...).Err(); err != nil {
		return transient(err)
	}
	if err := s.rdb.SAdd(ctx, e.SetKey, id).Err(); err != nil {
		return transient(err)
	}
	return nil
}

func (s *Store) addGroups(ctx context.Context, e *Entity, id string, rec Record) error {
	for _, field := range e.groups {
		v := rec.String(field)
		if v == "" {
			continue
		}
		if err := s.rdb.SAdd(ctx, e.GroupKey(field, v), id).Err(); err != nil {
			return transient(err)
		}
	}
	return nil
}

// release undoes index claims after a failed write. Errors are ignored: a
// dangling claim only blocks that value until it is cleaned up.
func (s *Store) release(ctx context.Context, keys []string) {
	if len(keys) == 0 {
		return
	}
	_ = s.rdb.Del(ctx, keys...).Err()
}

// Get loads a record by id.
func (s *Store) Get(ctx context.Context, entity, id string) (Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, e, id)
}

func (s *Store) load(ctx context.Context, e *Entity, id string) (Record, error) {
	raw, err := s.rdb.HGetAll(ctx, e.RecordKey(id)).Result()
	if err != nil {
		return nil, transient(err)
	}
	rec := Decode(raw, e.Schema)
	if rec == nil {
		return nil, apperror.NotFound(e.Name + " not found")
	}
	return rec, nil
}

// Update merges patch into the stored record. A unique value that changes
// claims its new index key first, then the record is written and the old
// key is dropped.
func (s *Store) Update(ctx context.Context, entity, id string, patch Record) (Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}

	current, err := s.load(ctx, e, id)
	if err != nil {
		return nil, err
	}

	merged := current.clone()
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = id
	if e.Timestamps {
		merged["updatedAt"] = s.timestamp()
	}

	encoded, err := Encode(merged)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidInput, "record cannot be stored", http.StatusBadRequest)
	}

	var claimed, stale []string
	for _, idx := range e.unique {
		oldKey, hadOld := e.IndexKey(idx, current)
		newKey, hasNew := e.IndexKey(idx, merged)
		if hadOld == hasNew && oldKey == newKey {
			continue
		}
		if hasNew {
			won, err := s.rdb.SetNX(ctx, newKey, id, 0).Result()
			if err != nil {
				s.release(ctx, claimed)
				return nil, transient(err)
			}
			if !won {
				s.release(ctx, claimed)
				return nil, apperror.Conflict(idx.label() + " already exists")
			}
			claimed = append(claimed, newKey)
		}
		if hadOld {
			stale = append(stale, oldKey)
		}
	}

	if err := s.write(ctx, e, id, encoded); err != nil {
		s.release(ctx, claimed)
		return nil, err
	}
	if len(stale) > 0 {
		if err := s.rdb.Del(ctx, stale...).Err(); err != nil {
			return nil, transient(err)
		}
	}
	for _, field := range e.groups {
		oldV, newV := current.String(field), merged.String(field)
		if oldV == newV {
			continue
		}
		if oldV != "" {
			if err := s.rdb.SRem(ctx, e.GroupKey(field, oldV), id).Err(); err != nil {
				return nil, transient(err)
			}
		}
		if newV != "" {
			if err := s.rdb.SAdd(ctx, e.GroupKey(field, newV), id).Err(); err != nil {
				return nil, transient(err)
			}
		}
	}

	return Decode(encoded, e.Schema), nil
}

// Delete removes the record, its membership and every index entry.
func (s *Store) Delete(ctx context.Context, entity, id string) error {
	e, err := s.entity(entity)
	if err != nil {
		return err
	}

	current, err := s.load(ctx, e, id)
	if err != nil {
		return err
	}

	if err := s.rdb.Del(ctx, e.RecordKey(id)).Err(); err != nil {
		return transient(err)
	}
	if err := s.rdb.SRem(ctx, e.SetKey, id).Err(); err != nil {
		return transient(err)
	}

	var keys []string
	for _, idx := range e.unique {
		if key, ok := e.IndexKey(idx, current); ok {
			keys = append(keys, key)
		}
	}
	if len(keys) > 0 {
		if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
			return transient(err)
		}
	}
	for _, field := range e.groups {
		if v := current.String(field); v != "" {
			if err := s.rdb.SRem(ctx, e.GroupKey(field, v), id).Err(); err != nil {
				return transient(err)
			}
		}
	}
	return nil
}

// Upsert creates or overwrites the record identified by the entity's first
// unique index. It reports whether a new record was created. Repeated calls
// with the same key converge on one id.
func (s *Store) Upsert(ctx context.Context, entity string, fields Record) (Record, bool, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, false, err
	}
	if len(e.unique) != 1 {
		return nil, false, fmt.Errorf("store: upsert needs exactly one unique index on %s", e.Name)
	}

	key, ok := e.IndexKey(e.unique[0], fields)
	if !ok {
		return nil, false, apperror.Validation(e.unique[0].label() + " is required")
	}

	id := s.newID()
	created, err := s.rdb.SetNX(ctx, key, id, 0).Result()
	if err != nil {
		return nil, false, transient(err)
	}

	var current Record
	if !created {
		id, err = s.rdb.Get(ctx, key).Result()
		if err != nil {
			return nil, false, transient(err)
		}
		raw, err := s.rdb.HGetAll(ctx, e.RecordKey(id)).Result()
		if err != nil {
			return nil, false, transient(err)
		}
		current = Decode(raw, e.Schema)
	}

	rec := fields.clone()
	rec["id"] = id
	if e.Timestamps {
		ts := s.timestamp()
		rec["createdAt"] = ts
		if current != nil {
			if c, ok := current["createdAt"]; ok {
				rec["createdAt"] = c
			}
		}
		rec["updatedAt"] = ts
	}

	encoded, err := Encode(rec)
	if err != nil {
		return nil, false, apperror.Wrap(err, apperror.CodeInvalidInput, "record cannot be stored", http.StatusBadRequest)
	}
	if err := s.write(ctx, e, id, encoded); err != nil {
		return nil, false, err
	}
	if err := s.addGroups(ctx, e, id, rec); err != nil {
		return nil, false, err
	}

	return Decode(encoded, e.Schema), created, nil
}

// FindByIndex resolves a record through the unique index covering exactly
// the fields in values.
func (s *Store) FindByIndex(ctx context.Context, entity string, values Record) (Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(values))
	for k := range values {
		fields = append(fields, k)
	}
	idx, ok := e.indexFor(fields)
	if !ok {
		return nil, fmt.Errorf("store: no unique index on %s for %v", e.Name, fields)
	}
	key, ok := e.IndexKey(idx, values)
	if !ok {
		return nil, apperror.NotFound(e.Name + " not found")
	}

	id, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NotFound(e.Name + " not found")
	}
	if err != nil {
		return nil, transient(err)
	}
	return s.load(ctx, e, id)
}

// Lookup resolves a record through idx, with values given in the index's
// field order.
func (s *Store) Lookup(ctx context.Context, entity string, idx Index, values ...string) (Record, error) {
	if len(values) != len(idx.Fields) {
		return nil, fmt.Errorf("store: index %s takes %d values, got %d", idx.label(), len(idx.Fields), len(values))
	}
	key := make(Record, len(values))
	for i, f := range idx.Fields {
		key[f] = values[i]
	}
	return s.FindByIndex(ctx, entity, key)
}

// FindByUnique is FindByIndex for single-field indexes.
func (s *Store) FindByUnique(ctx context.Context, entity, field, value string) (Record, error) {
	return s.FindByIndex(ctx, entity, Record{field: value})
}

// List loads every member, filters in memory and paginates (1-indexed).
func (s *Store) List(ctx context.Context, entity string, pred Predicate, page, limit int) (Page, error) {
	e, err := s.entity(entity)
	if err != nil {
		return Page{}, err
	}
	return s.list(ctx, e, e.SetKey, pred, page, limit)
}

// ListGroup is List restricted to the ids of one group index value.
func (s *Store) ListGroup(ctx context.Context, entity, field, value string, pred Predicate, page, limit int) (Page, error) {
	e, err := s.entity(entity)
	if err != nil {
		return Page{}, err
	}
	return s.list(ctx, e, e.GroupKey(field, value), pred, page, limit)
}

// Collect is List without pagination, in the same order.
func (s *Store) Collect(ctx context.Context, entity string, pred Predicate) ([]Record, error) {
	e, err := s.entity(entity)
	if err != nil {
		return nil, err
	}
	return s.collect(ctx, e, e.SetKey, pred)
}

func (s *Store) list(ctx context.Context, e *Entity, setKey string, pred Predicate, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	items, err := s.collect(ctx, e, setKey, pred)
	if err != nil {
		return Page{}, err
	}

	total := len(items)
	start, end := bounds(total, page, limit)
	return Page{Items: items[start:end], Total: total, Page: page, Limit: limit}, nil
}

// bounds slices total items into 1-indexed pages without overflowing on
// huge page or limit values.
func bounds(total, page, limit int) (start, end int) {
	start = total
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end = total
	if limit < total-start {
		end = start + limit
	}
	return start, end
}

func (s *Store) collect(ctx context.Context, e *Entity, setKey string, pred Predicate) ([]Record, error) {
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, transient(err)
	}
	sort.Strings(ids)

	items := make([]Record, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.HGetAll(ctx, e.RecordKey(id)).Result()
		if err != nil {
			return nil, transient(err)
		}
		rec := Decode(raw, e.Schema)
		if rec == nil {
			continue
		}
		if pred != nil && !pred(rec) {
			continue
		}
		items = append(items, rec)
	}

	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := items[i].String("createdAt"), items[j].String("createdAt")
		if ci != cj {
			return ci < cj
		}
		return items[i].ID() < items[j].ID()
	})
	return items, nil
}
