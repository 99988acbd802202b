package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls the process-wide logger
type Config struct {
	// Output is "stderr", "stdout" or a file path
	Output string `mapstructure:"output"`
	// Severity is a logrus level name: debug, info, warn, error
	Severity string `mapstructure:"severity"`
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
}

type contextKey struct{}

// DefaultConfig logs warnings and above as text to stderr
func DefaultConfig() Config {
	return Config{
		Output:   "stderr",
		Severity: "warn",
		Format:   "text",
	}
}

// Setup applies conf to the standard logger
func Setup(conf Config) error {
	std := logrus.StandardLogger()

	out, err := openOutput(conf.Output)
	if err != nil {
		return err
	}
	std.SetOutput(out)

	severity := conf.Severity
	if severity == "" {
		severity = "warn"
	}
	level, err := logrus.ParseLevel(severity)
	if err != nil {
		return fmt.Errorf("unsupported severity %q: %w", conf.Severity, err)
	}
	std.SetLevel(level)

	switch strings.ToLower(conf.Format) {
	case "", "text":
		std.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unsupported log format %q", conf.Format)
	}
	return nil
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}
	f, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// Standard returns the process-wide logger as a field logger
func Standard() logrus.FieldLogger {
	return logrus.StandardLogger()
}

// WithLogger attaches log to ctx
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// WithField returns ctx carrying the context logger extended with key=value
func WithField(ctx context.Context, key string, value interface{}) (context.Context, logrus.FieldLogger) {
	log := Get(ctx).WithField(key, value)
	return WithLogger(ctx, log), log
}

// Get returns the logger attached to ctx, or the standard logger
func Get(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(contextKey{}).(logrus.FieldLogger); ok && log != nil {
		return log
	}
	return Standard()
}

// Redact shortens a secret to a recognisable prefix for logs
func Redact(secret string) string {
	const keep = 8
	if secret == "" {
		return "<empty>"
	}
	if len(secret) <= keep {
		return "***"
	}
	return secret[:keep] + "..."
}
