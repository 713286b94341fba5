// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	levelOff
)

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// sink is shared by a logger and every child created with With, so that
// SetLevel on the root applies to all components.
type sink struct {
	mu  sync.Mutex
	lvl Level
	lg  *log.Logger
}

type kvLogger struct {
	out   *sink
	scope []string
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, lvl Level) Logger {
	return &kvLogger{out: &sink{lvl: lvl, lg: log.New(w, "", 0)}}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return NewWithWriter(io.Discard, levelOff)
}

func (l *kvLogger) With(kv ...any) Logger {
	return &kvLogger{
		out:   l.out,
		scope: append(append([]string{}, l.scope...), kvPairs(kv...)...),
	}
}

func (l *kvLogger) SetLevel(lvl Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.lvl = lvl
}

func (l *kvLogger) Debug(msg string, kv ...any) { l.log(LevelDebug, "DBG", msg, kv...) }
func (l *kvLogger) Info(msg string, kv ...any)  { l.log(LevelInfo, "INF", msg, kv...) }
func (l *kvLogger) Warn(msg string, kv ...any)  { l.log(LevelWarn, "WRN", msg, kv...) }
func (l *kvLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	kv = append([]any{"error", err.Error()}, kv...)
	l.log(LevelError, "ERR", "", kv...)
}

func (l *kvLogger) log(lvl Level, tag, msg string, kv ...any) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if lvl < l.out.lvl {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(tag)
	if strings.TrimSpace(msg) != "" {
		b.WriteByte(' ')
		b.WriteString(msg)
	}
	for _, f := range l.scope {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	for _, f := range kvPairs(kv...) {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	l.out.lg.Println(b.String())
}

func kvPairs(kv ...any) []string {
	out := make([]string, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		s := fmt.Sprintf("%v", v)
		if strings.ContainsAny(s, " \t\"") {
			s = fmt.Sprintf("%q", s)
		}
		out = append(out, fmt.Sprintf("%v=%s", kv[i], s))
	}
	return out
}

// ParseLevel maps a level name to a Level. Unknown names map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "warn", "warning", "wrn":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "off"
	}
}
