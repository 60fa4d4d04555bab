package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
)

// console writes the user-facing progress lines.
type console struct {
	w io.Writer
}

func (c console) errorf(format string, args ...any) {
	errorColor.Fprintf(c.w, "❌ "+format+"\n", args...)
}

func (c console) warnf(format string, args ...any) {
	warnColor.Fprintf(c.w, "⚠️ "+format+"\n", args...)
}

func (c console) infof(format string, args ...any) {
	infoColor.Fprintf(c.w, "🚀 "+format+"\n", args...)
}

func (c console) successf(format string, args ...any) {
	successColor.Fprintf(c.w, "✅ "+format+"\n", args...)
}

func (c console) println(s string) {
	fmt.Fprintln(c.w, s)
}
