// Package storagetest поднимает MongoDB в контейнере для интеграционных тестов.
package storagetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoPort = nat.Port("27017/tcp")

// MongoURI возвращает адрес MongoDB для тестов: из TEST_MONGODB_URI или из
// свежего контейнера mongo:7 с набором реплик из одного узла (нужен для транзакций).
// В режиме -short тест пропускается.
func MongoURI(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}
	if uri := os.Getenv("TEST_MONGODB_URI"); uri != "" {
		return uri, func() {}
	}

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{string(mongoPort)},
		Cmd:          []string{"mongod", "--replSet", "rs0", "--bind_ip_all"},
		WaitingFor:   wait.ForListeningPort(mongoPort).WithStartupTimeout(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start mongo container")

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mongo container: %v", err)
		}
	}

	code, _, err := container.Exec(ctx, []string{
		"mongosh", "--quiet", "--eval",
		"rs.initiate({_id: 'rs0', members: [{_id: 0, host: 'localhost:27017'}]})",
	})
	require.NoError(t, err, "failed to initiate replica set")
	require.Zero(t, code, "rs.initiate exited with non-zero code")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, mongoPort)
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port()), cleanup
}

// Connect подключается к uri и ждёт, пока узел станет primary.
func Connect(ctx context.Context, t *testing.T, uri string) *mongo.Client {
	t.Helper()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	// Выборы primary после rs.initiate занимают несколько секунд.
	for attempt := 0; attempt < 30; attempt++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	require.NoError(t, err, "mongo primary is not available")

	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	return client
}

// MigrationsSource возвращает file:// URL каталога migrations в корне модуля.
func MigrationsSource(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	root, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", "..", ".."))
	require.NoError(t, err)
	return "file://" + filepath.Join(root, "migrations")
}

// DBName возвращает уникальное имя базы для теста.
func DBName() string {
	return fmt.Sprintf("campus_market_test_%d", time.Now().UnixNano())
}
