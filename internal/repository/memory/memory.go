// Package memory provides in-memory implementations of the user, menu and
// cart repositories.  They satisfy the same method sets as the MongoDB
// repositories and are used by tests and local experiments.  Documents are
// copied on the way in and out so callers cannot mutate stored state.
package memory

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/summer-camp-booking/internal/model"
	"github.com/iliyamo/summer-camp-booking/internal/repository"
)

// collection is an ordered, mutex-guarded list of documents.
type collection struct {
	mu   sync.RWMutex
	docs []model.Document
	// Err, when set, is returned by every operation.  Tests use it to
	// simulate an unreachable store.
	err error
}

func (c *collection) find(match func(model.Document) bool) ([]model.Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}
	out := []model.Document{}
	for _, d := range c.docs {
		if match == nil || match(d) {
			out = append(out, clone(d))
		}
	}
	return out, nil
}

func (c *collection) findOne(match func(model.Document) bool) (model.Document, error) {
	docs, err := c.find(match)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return docs[0], nil
}

func (c *collection) insert(doc model.Document) (repository.InsertResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return repository.InsertResult{}, c.err
	}
	d := clone(doc)
	id := primitive.NewObjectID()
	d[model.FieldID] = id
	c.docs = append(c.docs, d)
	return repository.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (c *collection) deleteByID(hex string) (repository.DeleteResult, error) {
	oid, err := repository.ParseID(hex)
	if err != nil {
		return repository.DeleteResult{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return repository.DeleteResult{}, c.err
	}
	for i, d := range c.docs {
		if d[model.FieldID] == oid {
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return repository.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
		}
	}
	return repository.DeleteResult{Acknowledged: true}, nil
}

func (c *collection) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

func (c *collection) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func fieldEquals(key, want string) func(model.Document) bool {
	return func(d model.Document) bool {
		s, ok := d[key].(string)
		return ok && s == want
	}
}

func clone(d model.Document) model.Document {
	out := make(model.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// UserStore is an in-memory users collection.
type UserStore struct{ c collection }

func NewUserStore() *UserStore { return &UserStore{} }

// SetErr makes every subsequent call fail with err (nil clears it).
func (s *UserStore) SetErr(err error) { s.c.setErr(err) }

// Len reports the number of stored users.
func (s *UserStore) Len() int { return s.c.len() }

func (s *UserStore) List(ctx context.Context) ([]model.Document, error) {
	return s.c.find(nil)
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (model.Document, error) {
	return s.c.findOne(fieldEquals(model.FieldEmail, email))
}

func (s *UserStore) FindByID(ctx context.Context, id string) (model.Document, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.c.findOne(func(d model.Document) bool { return d[model.FieldID] == oid })
}

// CreateIfAbsent holds the write lock across the existence check and the
// insert, matching the atomic upsert of the MongoDB repository.
func (s *UserStore) CreateIfAbsent(ctx context.Context, email string, doc model.Document) (repository.InsertResult, bool, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.err != nil {
		return repository.InsertResult{}, false, s.c.err
	}
	match := fieldEquals(model.FieldEmail, email)
	for _, d := range s.c.docs {
		if match(d) {
			return repository.InsertResult{}, false, nil
		}
	}
	d := clone(doc)
	id := primitive.NewObjectID()
	d[model.FieldID] = id
	d[model.FieldEmail] = email
	s.c.docs = append(s.c.docs, d)
	return repository.InsertResult{Acknowledged: true, InsertedID: id}, true, nil
}

func (s *UserStore) DeleteByID(ctx context.Context, id string) (repository.DeleteResult, error) {
	return s.c.deleteByID(id)
}

func (s *UserStore) UpdateRole(ctx context.Context, id string, role model.Role) (repository.UpdateResult, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return repository.UpdateResult{}, err
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.err != nil {
		return repository.UpdateResult{}, s.c.err
	}
	res := repository.UpdateResult{Acknowledged: true}
	for _, d := range s.c.docs {
		if d[model.FieldID] != oid {
			continue
		}
		res.MatchedCount = 1
		if cur, _ := d[model.FieldRole].(string); cur != string(role) {
			d[model.FieldRole] = string(role)
			res.ModifiedCount = 1
		}
		break
	}
	return res, nil
}

// MenuStore is an in-memory menu collection.
type MenuStore struct{ c collection }

func NewMenuStore() *MenuStore { return &MenuStore{} }

func (s *MenuStore) SetErr(err error) { s.c.setErr(err) }

func (s *MenuStore) List(ctx context.Context) ([]model.Document, error) {
	return s.c.find(nil)
}

func (s *MenuStore) ListByInstructor(ctx context.Context, email string) ([]model.Document, error) {
	return s.c.find(fieldEquals(model.FieldInstructorEmail, email))
}

func (s *MenuStore) Insert(ctx context.Context, doc model.Document) (repository.InsertResult, error) {
	return s.c.insert(doc)
}

// CartStore is an in-memory cart collection.  Calls counts ListByEmail
// invocations so tests can assert the store was not touched.
type CartStore struct {
	c     collection
	mu    sync.Mutex
	calls int
}

func NewCartStore() *CartStore { return &CartStore{} }

func (s *CartStore) SetErr(err error) { s.c.setErr(err) }

// ListCalls reports how many times ListByEmail ran.
func (s *CartStore) ListCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *CartStore) Insert(ctx context.Context, doc model.Document) (repository.InsertResult, error) {
	return s.c.insert(doc)
}

func (s *CartStore) ListByEmail(ctx context.Context, email string) ([]model.Document, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.c.find(fieldEquals(model.FieldEmail, email))
}

func (s *CartStore) DeleteByID(ctx context.Context, id string) (repository.DeleteResult, error) {
	return s.c.deleteByID(id)
}
