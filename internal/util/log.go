package util

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// FatalLogr is a logr.Logger for binaries that may need to give up.
type FatalLogr struct {
	logr.Logger
}

// NewLogger returns a zap-backed logger named name writing to w. A verbosity
// above zero enables V(n) logs up to that level.
func NewLogger(w io.Writer, name string, verbosity int) FatalLogr {
	opts := []zap.Opts{zap.WriteTo(w)}
	if verbosity > 0 {
		opts = append(opts, zap.Level(zapcore.Level(-verbosity)))
	}
	return FatalLogr{Logger: zap.New(opts...).WithName(name)}
}

func (l *FatalLogr) Fatal(err error, msg string, keysAndValues ...interface{}) {
	l.Error(err, msg, keysAndValues...)
	os.Exit(1)
}
