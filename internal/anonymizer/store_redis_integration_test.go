//go:build integration

package anonymizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identia/internal/anonymizer"
	"identia/pkg/platform/sentinel"
	"identia/pkg/testutil/containers"
)

func TestRedisSessionStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	redis := containers.NewRedisContainer(t)
	ctx := context.Background()
	require.NoError(t, redis.FlushAll(ctx))

	store := anonymizer.NewRedisSessionStore(redis.Client, time.Minute)
	a := anonymizer.New("integration-salt", anonymizer.WithSessionStore(store))

	result, err := a.Anonymize(ctx, "Mi cédula es 001-1234567-8", "sess-redis-1")
	require.NoError(t, err)
	require.NotContains(t, result.AnonymizedText, "001-1234567-8")

	cached, err := store.Find(ctx, "sess-redis-1")
	require.NoError(t, err)
	assert.Equal(t, result.AnonymizedText, cached.AnonymizedText)
	assert.Equal(t, result.Mapping, cached.Mapping)

	// Deanonymization on a later request uses the cached session mapping.
	mapping, err := a.SessionMapping(ctx, "sess-redis-1")
	require.NoError(t, err)
	restored := anonymizer.Deanonymize(result.AnonymizedText, mapping.Mapping)
	assert.Contains(t, restored, "001-1234567-8")

	require.NoError(t, store.Delete(ctx, "sess-redis-1"))
	_, err = store.Find(ctx, "sess-redis-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
