package crashreport

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// MaxStackLen bounds the stack trace sent in the code-block message.
const MaxStackLen = 3000

type Report struct {
	App       string
	Host      string
	Error     string
	Goroutine string
	Stack     string
	Source    string
	Time      time.Time
}

// Capture builds a report for a recovered value.
func Capture(app, goroutine, source string, recovered any, stack []byte) Report {
	return Report{
		App:       app,
		Host:      hostInfo(),
		Error:     fmt.Sprint(recovered),
		Goroutine: goroutine,
		Stack:     string(stack),
		Source:    source,
		Time:      time.Now().UTC(),
	}
}

func hostInfo() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("Host: %s\nRuntime: %s %s/%s", host, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Summary is the plain text first message.
func (r Report) Summary() string {
	errText := r.Error
	if errText == "" {
		errText = "unknown error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Crash in %s 🚨\n\n", r.App)
	fmt.Fprintf(&b, "🖥 Host:\n%s\n\n", r.Host)
	fmt.Fprintf(&b, "⚠️ Error:\n%s\n\n", errText)
	fmt.Fprintf(&b, "🧵 Goroutine: %s", r.Goroutine)
	if r.Source != "" {
		fmt.Fprintf(&b, "\n📍 Source: %s", r.Source)
	}
	return b.String()
}

// CodeBlock is the Markdown second message carrying the truncated stack.
func (r Report) CodeBlock() string {
	stack := r.Stack
	if stack == "" {
		stack = "no stack trace"
	}
	if len(stack) > MaxStackLen {
		stack = stack[:MaxStackLen]
	}
	return "```\n" + stack + "\n```"
}

// Fields flattens the report for the task stream.
func (r Report) Fields() map[string]any {
	return map[string]any{
		"app":       r.App,
		"host":      r.Host,
		"error":     r.Error,
		"goroutine": r.Goroutine,
		"stack":     r.Stack,
		"source":    r.Source,
		"time":      r.Time.Format(time.RFC3339Nano),
	}
}

func FromFields(values map[string]string) Report {
	t, _ := time.Parse(time.RFC3339Nano, values["time"])
	return Report{
		App:       values["app"],
		Host:      values["host"],
		Error:     values["error"],
		Goroutine: values["goroutine"],
		Stack:     values["stack"],
		Source:    values["source"],
		Time:      t,
	}
}
