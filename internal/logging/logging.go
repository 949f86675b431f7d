// Package logging builds the diagnostic logger. It writes to stderr only:
// stdout belongs to the operator-facing progress stream, and the two must
// never interleave. Every line carries an invocation id so output from
// overlapping shell sessions can be told apart.
package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the process logger. Verbose enables debug entries, which
// include captured tool output.
func New(verbose bool) *zap.Logger {
	return NewWithWriter(verbose, os.Stderr)
}

// NewWithWriter is New with the sink swapped out, for tests.
func NewWithWriter(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "ts",
		LevelKey:    "level",
		MessageKey:  "msg",
		EncodeTime:  zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core).With(zap.String("invocation_id", uuid.NewString()))
}
