package logging

import (
	"context"
	"regexp"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type (
	requestKey struct{}
	userKey    struct{}
	planKey    struct{}
	loggerKey  struct{}
)

const maxIDLen = 128

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// validID guards log fields against values a client could use to forge
// entries.
func validID(id string) bool {
	return id != "" && len(id) <= maxIDLen && idPattern.MatchString(id)
}

// ContextFields returns the correlation fields carried by ctx: the active
// span, then request, user and plan identifiers.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}
	if id := RequestID(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if id := UserID(ctx); id != "" {
		fields = append(fields, zap.String("user.id", id))
	}
	if id := PlanID(ctx); id != "" {
		fields = append(fields, zap.String("plan.id", id))
	}
	return fields
}

// WithRequestID tags ctx with a request ID. Invalid IDs are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestKey{}, id)
}

// RequestID returns the request ID stored in ctx.
func RequestID(ctx context.Context) string { return idFrom(ctx, requestKey{}) }

// WithUserID tags ctx with the user the plan is generated for.
func WithUserID(ctx context.Context, id string) context.Context {
	return withID(ctx, userKey{}, id)
}

// UserID returns the user ID stored in ctx.
func UserID(ctx context.Context) string { return idFrom(ctx, userKey{}) }

// WithPlanID tags ctx with the plan being generated.
func WithPlanID(ctx context.Context, id string) context.Context {
	return withID(ctx, planKey{}, id)
}

// PlanID returns the plan ID stored in ctx.
func PlanID(ctx context.Context) string { return idFrom(ctx, planKey{}) }

func withID(ctx context.Context, key any, id string) context.Context {
	if !validID(id) {
		return ctx
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key any) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok && l != nil {
		return l
	}
	return NewNop()
}
