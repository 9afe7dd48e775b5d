package store

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection implements Collection in process memory. Documents go
// through the same bson codec as the Mongo implementation, so struct tags,
// omitempty and ObjectID handling behave the same way.
type MemoryCollection struct {
	name   string
	unique []string

	mu   sync.RWMutex
	docs map[primitive.ObjectID]bson.M
}

// NewMemoryCollection returns an empty collection. uniqueFields are enforced
// like single-field unique indexes.
func NewMemoryCollection(name string, uniqueFields ...string) *MemoryCollection {
	return &MemoryCollection{
		name:   name,
		unique: uniqueFields,
		docs:   make(map[primitive.ObjectID]bson.M),
	}
}

func (m *MemoryCollection) Name() string {
	return m.name
}

func (m *MemoryCollection) Insert(_ context.Context, doc any) (primitive.ObjectID, error) {
	d, err := toDocument(doc)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := d["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		d["_id"] = id
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; exists {
		return primitive.NilObjectID, ErrDuplicateKey
	}
	if err := m.checkUnique(id, d); err != nil {
		return primitive.NilObjectID, err
	}
	m.docs[id] = d
	return id, nil
}

func (m *MemoryCollection) FindByID(_ context.Context, id primitive.ObjectID, out any) error {
	m.mu.RLock()
	d, ok := m.docs[id]
	m.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	return fromDocument(d, out)
}

func (m *MemoryCollection) FindOne(ctx context.Context, filter Filter, out any) error {
	matches, err := m.match(filter, FindOptions{Limit: 1})
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return ErrNotFound
	}
	return fromDocument(matches[0], out)
}

func (m *MemoryCollection) FindMany(_ context.Context, filter Filter, opts FindOptions, out any) error {
	ptr := reflect.ValueOf(out)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("%s: FindMany needs a pointer to a slice, got %T", m.name, out)
	}

	matches, err := m.match(filter, opts)
	if err != nil {
		return err
	}

	sliceType := ptr.Elem().Type()
	result := reflect.MakeSlice(sliceType, 0, len(matches))
	for _, d := range matches {
		elem := reflect.New(sliceType.Elem())
		if err := fromDocument(d, elem.Interface()); err != nil {
			return err
		}
		result = reflect.Append(result, elem.Elem())
	}
	ptr.Elem().Set(result)
	return nil
}

func (m *MemoryCollection) UpdateByID(_ context.Context, id primitive.ObjectID, fields any, opts UpdateOptions, out any) error {
	update, err := toDocument(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.docs[id]
	if !ok && !opts.Upsert {
		return ErrNotFound
	}

	next := bson.M{}
	if !opts.Override {
		for k, v := range existing {
			next[k] = v
		}
	}
	for k, v := range update {
		next[k] = v
	}
	next["_id"] = id

	if err := m.checkUnique(id, next); err != nil {
		return err
	}
	m.docs[id] = next

	if out == nil {
		return nil
	}
	return fromDocument(next, out)
}

func (m *MemoryCollection) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *MemoryCollection) DeleteMany(_ context.Context, filter Filter) (int64, error) {
	want, err := toDocument(filter)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, d := range m.docs {
		if matches(d, want) {
			delete(m.docs, id)
			n++
		}
	}
	return n, nil
}

func (m *MemoryCollection) Count(_ context.Context, filter Filter) (int64, error) {
	found, err := m.match(filter, FindOptions{})
	if err != nil {
		return 0, err
	}
	return int64(len(found)), nil
}

// match returns the matching documents after sort, skip and limit.
func (m *MemoryCollection) match(filter Filter, opts FindOptions) ([]bson.M, error) {
	want, err := toDocument(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	found := make([]bson.M, 0, len(m.docs))
	for _, d := range m.docs {
		if matches(d, want) {
			found = append(found, d)
		}
	}
	m.mu.RUnlock()

	// map iteration order is random; _id gives a stable base order
	sort.SliceStable(found, func(i, j int) bool {
		return compareValues(found[i]["_id"], found[j]["_id"]) < 0
	})
	if len(opts.Sort) > 0 {
		sort.SliceStable(found, func(i, j int) bool {
			for _, s := range opts.Sort {
				c := compareValues(found[i][s.Field], found[j][s.Field])
				if c == 0 {
					continue
				}
				if s.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(found)) {
			return nil, nil
		}
		found = found[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(found)) {
		found = found[:opts.Limit]
	}
	return found, nil
}

func (m *MemoryCollection) checkUnique(id primitive.ObjectID, d bson.M) error {
	for _, field := range m.unique {
		v, ok := d[field]
		if !ok {
			continue
		}
		for otherID, other := range m.docs {
			if otherID != id && reflect.DeepEqual(other[field], v) {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

func matches(d, want bson.M) bool {
	for k, v := range want {
		got, ok := d[k]
		if !ok || !reflect.DeepEqual(got, v) {
			return false
		}
	}
	return true
}

func toDocument(v any) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var d bson.M
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}

func fromDocument(d bson.M, out any) error {
	raw, err := bson.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return bson.Unmarshal(raw, out)
}

// compareValues orders the scalar types the models store. Missing values
// sort first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	switch x := a.(type) {
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return bytes.Compare(x[:], y[:])
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return cmpOrdered(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmpOrdered(x, y)
		}
	case int32:
		if y, ok := b.(int32); ok {
			return cmpOrdered(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return cmpOrdered(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered[T ~string | ~int32 | ~int64 | ~float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
