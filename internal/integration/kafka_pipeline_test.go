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
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/kafka"
	"github.com/couchcryptid/reverse-r-etl/internal/adapter/snapshotdir"
	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/observability"
	"github.com/couchcryptid/reverse-r-etl/internal/pipeline"
)

const testTopic = "test-region-curves"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	kc, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("reverse-r-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = kc.Terminate(context.Background()) })

	brokers, err := kc.Brokers(ctx)
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
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}))
}

// writeSnapshots lays out a small report directory spanning the schema cutover.
func writeSnapshots(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	start := time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		day := start.AddDate(0, 0, i)
		cases := 100 * (i + 1)
		var body string
		if day.Before(domain.DefaultSchemaCutover) {
			body = "Province/State,Country/Region,Last Update,Confirmed,Deaths,Recovered\n" +
				fmt.Sprintf(",Italy,%s,%d,%d,0\n", day.Format(time.RFC3339), cases, i) +
				fmt.Sprintf(",\"Korea, South\",%s,%d,0,0\n", day.Format(time.RFC3339), cases/2)
		} else {
			body = "FIPS,Admin2,Province_State,Country_Region,Last_Update,Lat,Long_,Confirmed,Deaths,Recovered,Active,Combined_Key\n" +
				fmt.Sprintf(",,,Italy,%s,41.8,12.5,%d,%d,0,0,Italy\n", day.Format(time.DateTime), cases, i) +
				fmt.Sprintf(",,,\"Korea, South\",%s,35.9,127.7,%d,0,0,0,\"Korea, South\"\n", day.Format(time.DateTime), cases/2)
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, day.Format("01-02-2006")+".csv"), []byte(body), 0o600))
	}
	return dir
}

// TestPipelinePublishesRegionTables runs one full estimation over a report
// directory and reads the published tables back from Kafka.
func TestPipelinePublishesRegionTables(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	k, err := domain.NewKernel(domain.DefaultKernelParams())
	require.NoError(t, err)
	est := domain.NewEstimator(domain.EstimatorOptions{
		Kernel:        k,
		Thresholds:    domain.DefaultRThresholds(),
		DeathEstimate: domain.DefaultDeathEstimateParams(),
		Smoothing:     domain.DefaultSmoothingParams(),
	}, discardLogger())

	reader := snapshotdir.NewReader(writeSnapshots(t), discardLogger())
	transformer := pipeline.NewTransformer(domain.NewNormalizer(domain.NormalizerOptions{}), domain.DefaultErrata(), est, 2, discardLogger())
	writer := kafka.NewWriter([]string{broker}, testTopic, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, transformer, writer, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, p.RunOnce(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]domain.RegionTable{}
	for len(received) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from topic")

		headers := map[string]string{}
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(msg.Key), headers["region"])
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be RFC3339")

		var table domain.RegionTable
		require.NoError(t, json.Unmarshal(msg.Value, &table))
		received[table.Region] = table
	}

	italy, ok := received["Italy"]
	require.True(t, ok)
	require.Len(t, italy.Rows, 20)
	assert.Equal(t, "2020-03-15", italy.Rows[0].Date)
	assert.Equal(t, int64(2000), italy.Rows[19].TotalCases)
	assert.Equal(t, int64(100), italy.Rows[19].NewCases)
	assert.Zero(t, italy.GapWindows)

	korea, ok := received["South Korea"]
	require.True(t, ok)
	assert.Len(t, korea.Rows, 20)
}
