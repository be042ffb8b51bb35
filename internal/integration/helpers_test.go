//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
)

// mockFixture mirrors the entries written by cmd/genmock.
type mockFixture struct {
	Site          string              `json:"site"`
	Field         domain.FieldVector  `json:"field"`
	Message       domain.QueryMessage `json:"message"`
	ExpectedLevel domain.Level        `json:"expected_level"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadMockData(t *testing.T) []mockFixture {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "data", "mock", "gtf_queries.json"))
	require.NoError(t, err)

	var fixtures []mockFixture
	require.NoError(t, json.Unmarshal(data, &fixtures))
	require.NotEmpty(t, fixtures)
	return fixtures
}

// storedFields serves each fixture's stored field vector in place of the
// NCEI calculator.
func storedFields(fixtures []mockFixture) domain.FieldProvider {
	fields := make(map[string]domain.FieldVector, len(fixtures))
	for _, f := range fixtures {
		q, err := f.Message.Query().Validate()
		if err != nil {
			continue
		}
		fields[siteKey(q)] = f.Field
	}
	return domain.FieldProviderFunc(func(_ context.Context, q domain.Query) (domain.FieldVector, error) {
		v, ok := fields[siteKey(q)]
		if !ok {
			return domain.FieldVector{}, fmt.Errorf("no stored field for %s", siteKey(q))
		}
		return v, nil
	})
}

func siteKey(q domain.Query) string {
	return fmt.Sprintf("%.4f,%.4f", q.Latitude, q.Longitude)
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("gtf-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cconn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cconn.Close()

	require.NoError(t, cconn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}
