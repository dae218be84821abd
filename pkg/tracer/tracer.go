// Package tracer Jaeger 链路追踪初始化，数据库插件和 HTTP 中间件共用全局 tracer
package tracer

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

// Config 链路追踪配置
type Config struct {
	// Enabled 是否启用请求追踪（生成 Trace ID）
	Enabled bool `yaml:"enabled" default:"true"`
	// Header Trace ID 请求头名称
	Header string `yaml:"header" default:"X-Trace-ID"`
	// JaegerEnabled 是否上报到 Jaeger
	JaegerEnabled bool `yaml:"jaeger-enabled"`
	// AgentHostPort Jaeger agent 地址
	AgentHostPort string `yaml:"agent-host-port" default:"127.0.0.1:6831"`
	// SampleRate 采样率 0 ~ 1
	SampleRate float64 `yaml:"sample-rate" default:"1"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewJaegerTracer 创建 Jaeger tracer 并设置为 opentracing 全局 tracer
// 未启用时返回 NoopTracer
func NewJaegerTracer(serviceName string, cfg Config) (opentracing.Tracer, io.Closer, error) {
	if !cfg.JaegerEnabled {
		t := opentracing.NoopTracer{}
		opentracing.SetGlobalTracer(t)
		return t, nopCloser{}, nil
	}

	jc := &jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  "probabilistic",
			Param: cfg.SampleRate,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:            false,
			BufferFlushInterval: time.Second,
			LocalAgentHostPort:  cfg.AgentHostPort,
		},
	}
	t, closer, err := jc.NewTracer()
	if err != nil {
		return nil, nil, errors.Wrap(err, "jaeger")
	}
	opentracing.SetGlobalTracer(t)
	return t, closer, nil
}
