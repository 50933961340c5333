package logging

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry for assertions.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger returns a logger observing every level down to Trace.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// All returns the recorded entries.
func (t *TestLogger) All() []observer.LoggedEntry { return t.observed.All() }

// FilterMessage returns entries whose message equals msg.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessage(msg)
}

// Reset drops the recorded entries.
func (t *TestLogger) Reset() { t.observed.TakeAll() }

// AssertLogged fails tb unless an entry at level contains substr.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, substr string) {
	tb.Helper()
	if t.find(level, substr) == nil {
		tb.Errorf("no %v entry containing %q; got %d entries", level, substr, t.observed.Len())
	}
}

// AssertNotLogged fails tb if an entry at level contains substr.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, substr string) {
	tb.Helper()
	if e := t.find(level, substr); e != nil {
		tb.Errorf("unexpected %v entry %q", level, e.Message)
	}
}

func (t *TestLogger) find(level zapcore.Level, substr string) *observer.LoggedEntry {
	for _, e := range t.observed.All() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return &e
		}
	}
	return nil
}

// AssertField fails tb unless an entry containing substr carries key=want.
func (t *TestLogger) AssertField(tb testing.TB, substr, key string, want any) {
	tb.Helper()
	for _, e := range t.observed.All() {
		if !strings.Contains(e.Message, substr) {
			continue
		}
		if got, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(got, want) {
			return
		}
	}
	tb.Errorf("no entry containing %q has %s=%v", substr, key, want)
}

// AssertNoSecrets fails tb if a sensitive key carries an unmasked value.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	re, err := newRedactor(NewDefaultConfig().Redaction)
	if err != nil {
		tb.Fatal(err)
	}
	for _, e := range t.observed.All() {
		for _, f := range e.Context {
			if f.Type != zapcore.StringType || strings.HasPrefix(f.String, "[REDACTED") {
				continue
			}
			if re.sensitive(f.Key) {
				tb.Errorf("entry %q leaks %s", e.Message, f.Key)
			}
			if _, hit := re.scrub(f.String); hit {
				tb.Errorf("entry %q field %s looks like a credential", e.Message, f.Key)
			}
		}
	}
}
