package tracer

import (
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJaegerTracer_Disabled(t *testing.T) {
	tr, closer, err := NewJaegerTracer("diary-test", Config{})
	require.NoError(t, err)
	defer closer.Close()

	assert.IsType(t, opentracing.NoopTracer{}, tr)
	assert.IsType(t, opentracing.NoopTracer{}, opentracing.GlobalTracer())
}

func TestNewJaegerTracer_Enabled(t *testing.T) {
	tr, closer, err := NewJaegerTracer("diary-test", Config{
		JaegerEnabled: true,
		AgentHostPort: "127.0.0.1:6831",
		SampleRate:    1,
	})
	require.NoError(t, err)
	defer func() {
		_ = closer.Close()
		opentracing.SetGlobalTracer(opentracing.NoopTracer{})
	}()

	span := tr.StartSpan("write-diary")
	span.Finish()
	assert.NotNil(t, span.Context())
}
