package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/properties", "200"))

	RecordHTTPRequest("GET", "/properties", 200, 15*time.Millisecond)
	RecordHTTPRequest("GET", "/properties", 200, 20*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/properties", "200")))
}

func TestRecordBreakerTransition(t *testing.T) {
	RecordBreakerTransition("sqlstore", "closed", "open")
	assert.Equal(t, 1.0, testutil.ToFloat64(StorageBreakerTransitions.WithLabelValues("sqlstore", "closed", "open")))
}
