package logging

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/flowplan/internal/config"
)

const otelScope = "github.com/fyrsmithlabs/flowplan"

// newCore tees the enabled sinks and wraps them with sampling.
func newCore(cfg *Config, otelProvider log.LoggerProvider) (zapcore.Core, error) {
	var cores []zapcore.Core

	for _, sink := range []struct {
		on bool
		fd *os.File
	}{{cfg.Output.Stdout, os.Stdout}, {cfg.Output.Stderr, os.Stderr}} {
		if !sink.on {
			continue
		}
		enc, err := newRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(sink.fd), cfg.Level))
	}
	if cfg.Output.OTEL && otelProvider != nil {
		cores = append(cores, otelzap.NewCore(otelScope, otelzap.WithLoggerProvider(otelProvider)))
	}
	if len(cores) == 0 {
		return nil, errors.New("no log output available")
	}
	return sampled(zapcore.NewTee(cores...), cfg.Sampling), nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// sampled throttles entries below Error; errors always pass.
func sampled(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	belowError := &levelBand{Core: core, keep: func(l zapcore.Level) bool { return l < zapcore.ErrorLevel }}
	errorsOnly := &levelBand{Core: core, keep: func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel }}
	return zapcore.NewTee(
		zapcore.NewSamplerWithOptions(belowError, cfg.Tick.Duration(), cfg.Initial, cfg.Thereafter),
		errorsOnly,
	)
}

// levelBand restricts a core to the levels keep accepts.
type levelBand struct {
	zapcore.Core
	keep func(zapcore.Level) bool
}

func (b *levelBand) Enabled(l zapcore.Level) bool {
	return b.keep(l) && b.Core.Enabled(l)
}

func (b *levelBand) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !b.keep(e.Level) {
		return ce
	}
	return b.Core.Check(e, ce)
}

func (b *levelBand) With(fields []zapcore.Field) zapcore.Core {
	return &levelBand{Core: b.Core.With(fields), keep: b.keep}
}

// Redaction markers.
const (
	redacted        = "[REDACTED]"
	redactedPattern = "[REDACTED:pattern]"
)

// Secret logs a config secret as its length only.
func Secret(key string, s config.Secret) zap.Field {
	return RedactedString(key, s.Value())
}

// RedactedString logs val as its length only.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// redactor holds the masking rules.
type redactor struct {
	keys     map[string]bool
	patterns []*regexp.Regexp
}

func newRedactor(cfg RedactionConfig) (*redactor, error) {
	r := &redactor{keys: make(map[string]bool, len(cfg.Fields))}
	for _, f := range cfg.Fields {
		r.keys[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling redaction pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

func (r *redactor) sensitive(key string) bool { return r.keys[strings.ToLower(key)] }

func (r *redactor) scrub(val string) (string, bool) {
	for _, re := range r.patterns {
		if re.MatchString(val) {
			return redactedPattern, true
		}
	}
	return val, false
}

// redactingEncoder masks values of sensitive keys and string values matching
// a credential pattern.
type redactingEncoder struct {
	zapcore.Encoder
	*redactor
}

func newRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (zapcore.Encoder, error) {
	if !cfg.Enabled {
		return base, nil
	}
	r, err := newRedactor(cfg)
	if err != nil {
		return nil, err
	}
	return &redactingEncoder{Encoder: base, redactor: r}, nil
}

func (e *redactingEncoder) AddString(key, val string) {
	if e.sensitive(key) {
		val = redacted
	} else {
		val, _ = e.scrub(val)
	}
	e.Encoder.AddString(key, val)
}

func (e *redactingEncoder) AddByteString(key string, val []byte) {
	if e.sensitive(key) {
		val = []byte(redacted)
	}
	e.Encoder.AddByteString(key, val)
}

func (e *redactingEncoder) AddReflected(key string, val any) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *redactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

func (e *redactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.sensitive(key) {
		e.Encoder.AddString(key, redacted)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

func (e *redactingEncoder) Clone() zapcore.Encoder {
	return &redactingEncoder{Encoder: e.Encoder.Clone(), redactor: e.redactor}
}

// EncodeEntry scrubs the message and the per-entry fields. Fields attached
// with With go through the Add methods above.
func (e *redactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if msg, hit := e.scrub(ent.Message); hit {
		ent.Message = msg
	}
	clean := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		clean[i] = f
		switch {
		case e.sensitive(f.Key):
			clean[i] = zap.String(f.Key, redacted)
		case f.Type == zapcore.StringType:
			if v, hit := e.scrub(f.String); hit {
				clean[i] = zap.String(f.Key, v)
			}
		}
	}
	return e.Encoder.EncodeEntry(ent, clean)
}
