package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/traynote/internal/model"
)

// PlainFormatter formats statuses as plain text, one per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
	now      func() time.Time
}

// templateData is passed to custom templates.
type templateData struct {
	Index        int
	Status       *model.Status
	RelativeTime string
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts, now: time.Now}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes statuses as plain text.
func (f *PlainFormatter) Format(w io.Writer, statuses []model.Status) error {
	if len(statuses) == 0 && f.template == nil {
		_, err := fmt.Fprintln(w, "no outstanding notifications")
		return err
	}

	for i := range statuses {
		if err := f.formatStatus(w, i+1, &statuses[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) formatStatus(w io.Writer, index int, s *model.Status) error {
	if f.template != nil {
		data := templateData{
			Index:        index,
			Status:       s,
			RelativeTime: f.relativeTime(s.ShownAt),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		fmt.Fprintf(&sb, "[%d] ", index)
	}

	fmt.Fprintf(&sb, "%-10d %-8s", s.ID, s.Backend)

	if f.opts.ShowTime {
		fmt.Fprintf(&sb, " %s", f.relativeTime(s.ShownAt))
	}

	if f.opts.ShowRef && s.Ref != "" {
		fmt.Fprintf(&sb, " %s", s.Ref)
	}

	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *PlainFormatter) relativeTime(t time.Time) string {
	if t.IsZero() || t.Unix() <= 0 {
		return "unknown"
	}
	return humanize.RelTime(t, f.now(), "ago", "from now")
}

// templateFuncs returns the functions available to custom templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"unix": func(t time.Time) int64 {
			return t.Unix()
		},
		"rfc3339": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
	}
}

// FormatField outputs a specific field from a status.
func FormatField(s *model.Status, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return fmt.Sprintf("%d", s.ID)
	case "backend", "owner":
		return s.Backend
	case "ref":
		return s.Ref
	case "shown_at", "time":
		return s.ShownAt.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%d", s.ID)
	}
}
