package middleware

import (
	"context"
	"strings"

	"github.com/haierkeys/onchain-diary-service/pkg/tracer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/uber/jaeger-client-go"
)

const (
	// DefaultTraceIDHeader 默认的 Trace ID 请求头名称
	DefaultTraceIDHeader = "X-Trace-ID"
	// TraceIDKey Context 中存储 Trace ID 的键
	TraceIDKey = "trace_id"
)

type traceIDKey struct{}

// TraceMiddleware 创建请求追踪中间件
// 1. 从请求头获取 Trace ID，没有时使用 Jaeger span 的 trace id 或新生成一个
// 2. 将 Trace ID 注入到 gin.Context 和 request.Context
// 3. 在响应头中返回 Trace ID
// t 为 nil 时不创建 span
func TraceMiddleware(cfg tracer.Config, t opentracing.Tracer) gin.HandlerFunc {
	headerName := cfg.Header
	if headerName == "" {
		headerName = DefaultTraceIDHeader
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		var span opentracing.Span
		if t != nil {
			parent, _ := t.Extract(opentracing.HTTPHeaders, opentracing.HTTPHeadersCarrier(c.Request.Header))
			span = t.StartSpan(c.Request.Method+" "+c.FullPath(), ext.RPCServerOption(parent))
			ext.HTTPMethod.Set(span, c.Request.Method)
			ext.HTTPUrl.Set(span, c.Request.URL.Path)
			ctx = opentracing.ContextWithSpan(ctx, span)
		}

		traceID := c.GetHeader(headerName)
		if traceID == "" {
			traceID = spanTraceID(span)
		}
		if traceID == "" {
			traceID = strings.ReplaceAll(uuid.NewString(), "-", "")
		}

		c.Set(TraceIDKey, traceID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, traceIDKey{}, traceID))
		c.Header(headerName, traceID)

		c.Next()

		if span != nil {
			ext.HTTPStatusCode.Set(span, uint16(c.Writer.Status()))
			if c.Writer.Status() >= 500 {
				ext.Error.Set(span, true)
			}
			span.Finish()
		}
	}
}

// spanTraceID Jaeger span 的 trace id，其它实现返回空
func spanTraceID(span opentracing.Span) string {
	if span == nil {
		return ""
	}
	if sc, ok := span.Context().(jaeger.SpanContext); ok {
		return sc.TraceID().String()
	}
	return ""
}

// GetTraceID 从 context.Context 获取 Trace ID
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetTraceIDFromGin 从 gin.Context 获取 Trace ID
func GetTraceIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(TraceIDKey)
}
