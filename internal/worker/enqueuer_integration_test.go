//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestEnqueuerSchedulesCleanupOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	redisOpt := asynq.RedisClientOpt{Addr: opts.Addr}

	client := asynq.NewClient(redisOpt)
	t.Cleanup(func() { _ = client.Close() })
	inspector := asynq.NewInspector(redisOpt)
	t.Cleanup(func() { _ = inspector.Close() })

	enq := NewEnqueuer(client, time.Minute)
	require.NoError(t, enq.ScheduleCleanup(ctx, "bukti_rab", "202505/p1/a.pdf"))
	require.NoError(t, enq.ScheduleCleanup(ctx, "bukti_rab", "202505/p1/a.pdf"), "duplicate is ignored")

	tasks, err := inspector.ListScheduledTasks(cleanupQueue)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, TypeEvidenceCleanup, tasks[0].Type)

	var payload CleanupPayload
	require.NoError(t, json.Unmarshal(tasks[0].Payload, &payload))
	assert.Equal(t, CleanupPayload{Bucket: "bukti_rab", Path: "202505/p1/a.pdf"}, payload)
}
