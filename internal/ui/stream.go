package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// EventFormatter parses the engine's JSON log stream and writes
// human-readable lines to dest. It implements io.Writer so it can sit
// behind a zap core.
type EventFormatter struct {
	dest io.Writer
	mu   *sync.Mutex
	buf  []byte
}

// NewEventFormatter creates an EventFormatter writing to dest. mu guards dest
// when it is shared with other writers.
func NewEventFormatter(dest io.Writer, mu *sync.Mutex) *EventFormatter {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &EventFormatter{dest: dest, mu: mu}
}

func (ef *EventFormatter) Write(p []byte) (int, error) {
	ef.mu.Lock()
	defer ef.mu.Unlock()

	ef.buf = append(ef.buf, p...)
	for {
		idx := bytes.IndexByte(ef.buf, '\n')
		if idx == -1 {
			break
		}
		line := string(ef.buf[:idx])
		ef.buf = ef.buf[idx+1:]
		ef.processLine(line)
	}
	return len(p), nil
}

// Sync implements zapcore.WriteSyncer.
func (ef *EventFormatter) Sync() error { return nil }

func (ef *EventFormatter) processLine(line string) {
	if !gjson.Valid(line) {
		return
	}

	ev := gjson.Parse(line)
	scope := ev.Get("schedule_id").String()
	msg := ev.Get("msg").String()

	var text string
	switch msg {
	case "command applied":
		text = ef.formatApplied(ev)
	case "command rejected", "recompute failed":
		text = Red("✗ ") + ev.Get("op").String() + ": " + ev.Get("error").String()
	case "resource conflicts detected":
		text = BoldYellow("⚠ ") + fmt.Sprintf("%d resource conflicts", ev.Get("count").Int())
	case "workspace changed":
		text = Dim("↻ " + ev.Get("path").String())
	default:
		level := strings.ToLower(ev.Get("level").String())
		if level != "warn" && level != "error" {
			return
		}
		text = Yellow(level+": ") + msg
		if e := ev.Get("error"); e.Exists() {
			text += ": " + e.String()
		}
	}

	if scope != "" {
		fmt.Fprintf(ef.dest, "  %s %s\n", Prefix(scope), text)
		return
	}
	fmt.Fprintf(ef.dest, "  %s\n", text)
}

func (ef *EventFormatter) formatApplied(ev gjson.Result) string {
	var path []string
	ev.Get("critical_path").ForEach(func(_, id gjson.Result) bool {
		path = append(path, id.String())
		return true
	})

	text := Green("✓ ") + ev.Get("op").String()
	if len(path) > 0 {
		text += "  " + BoldYellow("⚡ "+strings.Join(path, " → "))
	}
	if p := ev.Get("progress"); p.Exists() {
		text += "  " + Dim(fmt.Sprintf("%.1f%%", p.Float()))
	}
	return text
}
