package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

func TestInit_WithoutExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	log, _ := test.NewNullLogger()

	shutdown, err := Init(context.Background(), "", log)
	require.NoError(t, err)
	defer shutdown(context.Background())

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
}

func TestHTTPMiddleware_StartsServerSpan(t *testing.T) {
	log, _ := test.NewNullLogger()
	shutdown, err := Init(context.Background(), "evaluation-test", log)
	require.NoError(t, err)
	defer shutdown(context.Background())

	var seen trace.SpanContext
	h := HTTPMiddleware("evaluation-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.SpanContextFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/domains", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, seen.IsValid())
}
