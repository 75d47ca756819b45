package iocore

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// loggerBox holds the package-wide logger used by every Manager
// constructed without WithLogger, including Default(). It is disabled
// (zerolog.Nop()) until the embedding application calls SetLogger, so
// the hot registration and dispatch paths pay nothing for logging by
// default.
var loggerBox atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.Nop()
	loggerBox.Store(&l)
}

// SetLogger installs the package-wide default logger. It does not
// affect Managers constructed with an explicit WithLogger option, nor a
// Manager that has already logged: each Manager resolves its logger
// once, on first use.
func SetLogger(l zerolog.Logger) {
	loggerBox.Store(&l)
}

// SetLogOutput is a convenience wrapper around SetLogger for callers
// that just want leveled text on an io.Writer (e.g. os.Stderr) without
// constructing a zerolog.Logger themselves.
func SetLogOutput(w io.Writer, level zerolog.Level) {
	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	SetLogger(l)
}

func defaultLogger() zerolog.Logger {
	return *loggerBox.Load()
}

// loggerHolder memoizes the once-computed child logger for a Manager so
// repeated calls on the hot path don't re-derive it.
type loggerHolder struct {
	once sync.Once
	l    zerolog.Logger
	base zerolog.Logger
	set  bool
}

func (h *loggerHolder) get() zerolog.Logger {
	h.once.Do(func() {
		if h.set {
			h.l = h.base.With().Str("component", "iocore").Logger()
			return
		}
		h.l = defaultLogger().With().Str("component", "iocore").Logger()
	})
	return h.l
}
