package cmdutil

import (
	"fmt"
	"io"

	"github.com/agentstation/curator/internal/appcontext"
	"github.com/agentstation/curator/internal/cmd/alerts"
	"github.com/agentstation/curator/internal/cmd/output"
)

// Printer renders command results in the configured output format.
type Printer struct {
	w      io.Writer
	format output.Format
}

// NewPrinter validates the app's output format and detects one when unset.
func NewPrinter(w io.Writer, app appcontext.Interface) (*Printer, error) {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return nil, err
	}
	return &Printer{w: w, format: output.DetectFormat(string(format))}, nil
}

// Format returns the resolved output format.
func (p *Printer) Format() output.Format {
	return p.format
}

// Structured reports whether output is JSON or YAML.
func (p *Printer) Structured() bool {
	return p.format != output.FormatTable
}

// Print renders v with the formatter for the output format.
func (p *Printer) Print(v any) error {
	return output.NewFormatter(p.format).Format(p.w, v)
}

// Table prints a titled table. It does nothing for structured output,
// which is printed whole with Print instead.
func (p *Printer) Table(title string, data output.Data) error {
	if p.Structured() {
		return nil
	}
	if title != "" {
		if _, err := fmt.Fprintf(p.w, "\n%s\n", title); err != nil {
			return err
		}
	}
	return p.Print(data)
}

// Text prints a plain text block. Like Table it does nothing for
// structured output.
func (p *Printer) Text(s string) error {
	if p.Structured() {
		return nil
	}
	_, err := fmt.Fprintf(p.w, "\n%s", s)
	return err
}

// Alerts returns an alert writer for w that matches the output format and
// honours --no-color.
func Alerts(w io.Writer, app appcontext.Interface, format output.Format) alerts.Writer {
	fw := alerts.NewFormatWriter(w, format)
	if app.Settings().NoColor {
		fw = fw.WithConfig(alerts.WriterConfig{ShowDetails: true})
	}
	return fw
}
