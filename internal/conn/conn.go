// Package conn owns the lifecycle of live MongoDB connections.
package conn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/redact"
	"github.com/ppiankov/mongoscope/internal/target"
)

const (
	// DefaultConnectTimeout bounds connecting and the initial ping.
	DefaultConnectTimeout = 10 * time.Second

	// closeTimeout bounds Disconnect. It does not derive from the caller's
	// context so handles still close after cancellation.
	closeTimeout = 10 * time.Second

	appName = "mongoscope"
)

// Options tune how handles are opened.
type Options struct {
	ConnectTimeout time.Duration
	// Sink receives driver log messages when set.
	Sink mongoopts.LogSink
}

// ConnectionError reports a handle that could not be opened.
type ConnectionError struct {
	Target string // redacted
	Err    error
}

func (e *ConnectionError) Error() string {
	return redact.Text(fmt.Sprintf("could not connect to %s: %v", e.Target, e.Err))
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Handle is one live connection bound to a single database.
type Handle struct {
	client    *mongo.Client
	database  *mongo.Database
	target    target.Target
	closeOnce sync.Once
	closeErr  error
}

// Open connects to t and verifies the connection with a ping. The returned
// handle must be closed by the caller.
func Open(ctx context.Context, t target.Target, opts Options) (*Handle, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOpts := mongoopts.Client().
		ApplyURI(t.URI()).
		SetAppName(appName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	if opts.Sink != nil {
		// Command logs are left off: their replies carry raw documents.
		clientOpts.SetLoggerOptions(mongoopts.Logger().
			SetSink(opts.Sink).
			SetComponentLevel(mongoopts.LogComponentTopology, mongoopts.LogLevelDebug).
			SetComponentLevel(mongoopts.LogComponentServerSelection, mongoopts.LogLevelDebug).
			SetComponentLevel(mongoopts.LogComponentConnection, mongoopts.LogLevelInfo))
	}

	if err := clientOpts.Validate(); err != nil {
		return nil, &ConnectionError{Target: t.String(), Err: fmt.Errorf("invalid client options: %w", err)}
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, &ConnectionError{Target: t.String(), Err: err}
	}

	if err := client.Ping(ctx, readpref.PrimaryPreferred()); err != nil {
		disconnect(client)
		return nil, &ConnectionError{Target: t.String(), Err: err}
	}

	name := t.Database()
	if name == "" {
		name = target.AdminDatabase
	}

	return &Handle{
		client:   client,
		database: client.Database(name),
		target:   t,
	}, nil
}

// DatabaseName returns the database this handle reads from.
func (h *Handle) DatabaseName() string {
	return h.database.Name()
}

// Target returns the target the handle was opened against.
func (h *Handle) Target() target.Target {
	return h.target
}

// ListDatabases returns the server's databases in server order.
// Requires the listDatabases privilege.
func (h *Handle) ListDatabases(ctx context.Context) ([]models.DatabaseInfo, int64, error) {
	result, err := h.client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, 0, err
	}

	dbs := make([]models.DatabaseInfo, 0, len(result.Databases))
	for _, entry := range result.Databases {
		dbs = append(dbs, models.DatabaseInfo{
			Name:       entry.Name,
			SizeOnDisk: entry.SizeOnDisk,
			Empty:      entry.Empty,
		})
	}
	return dbs, result.TotalSize, nil
}

// ListCollectionNames lists collections in the order the server returns them.
func (h *Handle) ListCollectionNames(ctx context.Context) ([]string, error) {
	return h.database.ListCollectionNames(ctx, bson.D{})
}

// CountDocuments returns the exact number of documents in a collection.
func (h *Handle) CountDocuments(ctx context.Context, collection string) (int64, error) {
	return h.database.Collection(collection).CountDocuments(ctx, bson.D{})
}

// FindDocuments returns up to limit documents in natural order.
func (h *Handle) FindDocuments(ctx context.Context, collection string, limit int64) ([]bson.D, error) {
	cursor, err := h.database.Collection(collection).Find(ctx, bson.D{}, mongoopts.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(context.Background()) }()

	var docs []bson.D
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// Close disconnects the handle. Safe to call more than once.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = disconnect(h.client)
	})
	return h.closeErr
}

func disconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}
