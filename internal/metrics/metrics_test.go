package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersUpdateCollectors(t *testing.T) {
	before := testutil.ToFloat64(MutationCount.WithLabelValues("insert", "ok"))
	IncrementMutation("insert", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(MutationCount.WithLabelValues("insert", "ok")))

	SetLiveViewSubscribers(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(LiveViewSubscribers))
	SetLiveViewSubscribers(0)

	RecordStoreQuery("sqlite", "list", 2*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(StoreQueryDuration), 1)
}

func TestHandlerServesTodoMetrics(t *testing.T) {
	IncrementMutation("delete", "unavailable")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `todo_mutation_count{operation="delete",outcome="unavailable"}`)
	assert.Contains(t, string(body), "todo_live_view_subscribers")
}
