//go:build integration
// +build integration

package crawler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ppiankov/mongoscope/internal/conn"
	"github.com/ppiankov/mongoscope/internal/models"
	"github.com/ppiankov/mongoscope/internal/target"
)

const (
	integrationUser     = "auditor"
	integrationPassword = "integration-pw"
)

// startMongo runs a throwaway mongod and returns a root connection string.
func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		Env: map[string]string{
			"MONGO_INITDB_ROOT_USERNAME": integrationUser,
			"MONGO_INITDB_ROOT_PASSWORD": integrationPassword,
		},
		WaitingFor: wait.ForAll(
			// the init script restarts mongod once
			wait.ForLog("Waiting for connections").WithOccurrence(2),
			wait.ForListeningPort("27017/tcp"),
		).WithDeadline(2 * time.Minute),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("failed to get container endpoint: %v", err)
	}

	return fmt.Sprintf("mongodb://%s:%s@%s/", integrationUser, integrationPassword, endpoint)
}

func seed(t *testing.T, uri string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoopts.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	shop := client.Database("shop")
	users := []interface{}{
		bson.D{{Key: "username", Value: "ann"}, {Key: "email", Value: "a@x.com"}, {Key: "password", Value: "pw1"}},
		bson.D{{Key: "username", Value: "bob"}, {Key: "email", Value: "b@x.com"}, {Key: "password", Value: "pw2"}},
	}
	if _, err := shop.Collection("users").InsertMany(ctx, users); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	logs := make([]interface{}, 0, 1000)
	for i := 0; i < 1000; i++ {
		logs = append(logs, bson.D{{Key: "seq", Value: i}, {Key: "level", Value: "info"}})
	}
	if _, err := shop.Collection("logs").InsertMany(ctx, logs); err != nil {
		t.Fatalf("seed logs: %v", err)
	}

	if err := shop.CreateCollection(ctx, "empty"); err != nil {
		t.Fatalf("create empty collection: %v", err)
	}
}

func liveOpen(ctx context.Context, t target.Target) (Session, error) {
	h, err := conn.Open(ctx, t, conn.Options{ConnectTimeout: 20 * time.Second})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func findDatabase(report *models.ServerReport, name string) *models.DatabaseReport {
	for i := range report.Databases {
		if report.Databases[i].Name == name {
			return &report.Databases[i]
		}
	}
	return nil
}

func findCollection(db *models.DatabaseReport, name string) *models.CollectionSummary {
	for i := range db.Collections {
		if db.Collections[i].Name == name {
			return &db.Collections[i]
		}
	}
	return nil
}

func TestIntegrationCrawlServer(t *testing.T) {
	uri := startMongo(t)
	seed(t, uri)

	root, err := target.Parse(uri)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c := New(liveOpen, Config{Concurrency: 3})
	report, err := c.Crawl(context.Background(), root, models.ModeServer)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}

	if strings.Contains(report.Target, integrationPassword) {
		t.Errorf("report target leaks the password: %s", report.Target)
	}

	shop := findDatabase(report, "shop")
	if shop == nil {
		t.Fatalf("shop missing from %+v", report.Databases)
	}
	if shop.Status != models.StatusOK {
		t.Fatalf("shop status = %s (%s)", shop.Status, shop.Error)
	}
	if size, ok := report.Size("shop"); !ok || size <= 0 {
		t.Errorf("shop size = %d, %v", size, ok)
	}

	users := findCollection(shop, "users")
	if users == nil || users.Count != 2 || len(users.Samples) != 2 {
		t.Fatalf("users = %+v", users)
	}
	if users.Samples[0] != "Username: ann, Email: a@x.com" {
		t.Errorf("sample = %q", users.Samples[0])
	}

	logs := findCollection(shop, "logs")
	if logs == nil || logs.Count != 1000 || len(logs.Samples) != 1 || !logs.Truncated {
		t.Errorf("logs = %+v", logs)
	}

	empty := findCollection(shop, "empty")
	if empty == nil || empty.Count != 0 || len(empty.Samples) != 0 {
		t.Errorf("empty = %+v", empty)
	}
}

func TestIntegrationCrawlDatabase(t *testing.T) {
	uri := startMongo(t)
	seed(t, uri)

	root, err := target.Parse(uri)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	c := New(liveOpen, Config{})
	report, err := c.Crawl(context.Background(), root.WithDatabase("shop"), models.ModeDatabase)
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if len(report.Databases) != 1 || report.Databases[0].Name != "shop" {
		t.Fatalf("databases = %+v", report.Databases)
	}
	if len(report.Databases[0].Collections) != 3 {
		t.Errorf("collections = %+v", report.Databases[0].Collections)
	}
}
