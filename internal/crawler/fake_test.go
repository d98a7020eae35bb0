package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/target"
)

type fakeCollection struct {
	name       string
	docs       []bson.D
	count      int64 // used when docs is nil
	countErr   error
	findErr    error
	// countDelay stalls CountDocuments until it passes or ctx is done.
	countDelay time.Duration
}

func (c *fakeCollection) total() int64 {
	if c.docs != nil {
		return int64(len(c.docs))
	}
	return c.count
}

type fakeDatabase struct {
	collections []*fakeCollection
	listErr     error
}

func (d *fakeDatabase) collection(name string) *fakeCollection {
	for _, c := range d.collections {
		if c.name == name {
			return c
		}
	}
	return nil
}

// fakeServer hands out sessions and records their lifecycle.
type fakeServer struct {
	mu sync.Mutex

	listing   []models.DatabaseInfo
	totalSize int64
	listErr   error
	databases map[string]*fakeDatabase
	openErrs  map[string]error
	delay     time.Duration
	onOpen    func(database string)

	opened    []string
	closed    int
	active    int
	maxActive int
}

func (f *fakeServer) open(ctx context.Context, t target.Target) (Session, error) {
	if f.onOpen != nil {
		f.onOpen(t.Database())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	if err, ok := f.openErrs[t.Database()]; ok {
		f.mu.Unlock()
		return nil, err
	}
	f.opened = append(f.opened, t.Database())
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	return &fakeSession{server: f, name: t.Database()}, nil
}

func (f *fakeServer) openedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.opened)
}

func (f *fakeServer) closedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeSession struct {
	server *fakeServer
	name   string
	once   sync.Once
}

func (s *fakeSession) DatabaseName() string { return s.name }

func (s *fakeSession) ListDatabases(ctx context.Context) ([]models.DatabaseInfo, int64, error) {
	if s.server.listErr != nil {
		return nil, 0, s.server.listErr
	}
	return s.server.listing, s.server.totalSize, nil
}

func (s *fakeSession) db() (*fakeDatabase, error) {
	db, ok := s.server.databases[s.name]
	if !ok {
		return nil, fmt.Errorf("database %s not found", s.name)
	}
	return db, nil
}

func (s *fakeSession) ListCollectionNames(ctx context.Context) ([]string, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	if db.listErr != nil {
		return nil, db.listErr
	}
	names := make([]string, 0, len(db.collections))
	for _, c := range db.collections {
		names = append(names, c.name)
	}
	return names, nil
}

func (s *fakeSession) CountDocuments(ctx context.Context, collection string) (int64, error) {
	db, err := s.db()
	if err != nil {
		return 0, err
	}
	c := db.collection(collection)
	if c == nil {
		return 0, errors.New("no such collection")
	}
	if c.countDelay > 0 {
		select {
		case <-time.After(c.countDelay):
		case <-ctx.Done():
		}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.countErr != nil {
		return 0, c.countErr
	}
	return c.total(), nil
}

func (s *fakeSession) FindDocuments(ctx context.Context, collection string, limit int64) ([]bson.D, error) {
	db, err := s.db()
	if err != nil {
		return nil, err
	}
	c := db.collection(collection)
	if c == nil {
		return nil, errors.New("no such collection")
	}
	if c.findErr != nil {
		return nil, c.findErr
	}

	if c.docs == nil {
		n := c.count
		if limit < n {
			n = limit
		}
		out := make([]bson.D, 0, n)
		for i := int64(0); i < n; i++ {
			out = append(out, bson.D{{Key: "seq", Value: i}, {Key: "level", Value: "info"}})
		}
		return out, nil
	}

	if int64(len(c.docs)) > limit {
		return c.docs[:limit], nil
	}
	return c.docs, nil
}

func (s *fakeSession) Close() error {
	s.once.Do(func() {
		s.server.mu.Lock()
		s.server.closed++
		s.server.active--
		s.server.mu.Unlock()
	})
	return nil
}

func mustTarget(uri string) target.Target {
	t, err := target.Parse(uri)
	if err != nil {
		panic(err)
	}
	return t
}

func userDocs() []bson.D {
	return []bson.D{
		{{Key: "_id", Value: int32(1)}, {Key: "username", Value: "ann"}, {Key: "email", Value: "a@x.com"}},
		{{Key: "_id", Value: int32(2)}, {Key: "username", Value: "bob"}, {Key: "email", Value: "b@x.com"}},
	}
}

func simpleDatabase(collections ...string) *fakeDatabase {
	db := &fakeDatabase{}
	for _, name := range collections {
		db.collections = append(db.collections, &fakeCollection{name: name, count: 3})
	}
	return db
}
