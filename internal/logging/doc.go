// Package logging wraps zap with context-aware methods.
//
// Every method takes a context and prepends the correlation fields found in
// it: the active OpenTelemetry span, and the request, user and plan IDs set
// with WithRequestID, WithUserID and WithPlanID.
//
//	ctx = logging.WithPlanID(ctx, p.ID)
//	logger.Info(ctx, "plan accepted", zap.String("stage", "repair"))
//
// Output goes to stdout (JSON or console) and optionally to an OTEL log
// provider through the otelzap bridge. Entries below Error are sampled per
// message; errors never are. Sensitive keys such as api_key and values that
// look like bearer tokens or provider keys are masked before encoding.
//
// Tests use NewTestLogger and its Assert helpers:
//
//	tl := logging.NewTestLogger()
//	svc := NewThing(tl.Logger)
//	tl.AssertLogged(t, zapcore.WarnLevel, "forcing")
package logging
