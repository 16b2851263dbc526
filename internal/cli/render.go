package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pysugar/api-tracker/internal/backend"
	"github.com/pysugar/api-tracker/internal/config"
	"github.com/pysugar/api-tracker/internal/docs"
	"github.com/pysugar/api-tracker/internal/monitor"
	"github.com/pysugar/api-tracker/internal/tracker"
	"github.com/pysugar/api-tracker/internal/util"
)

const maxURLWidth = 60

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusText(c backend.APICall) string {
	if c.Status == 0 {
		if c.Error != "" {
			return "ERR"
		}
		return "-"
	}
	return strconv.Itoa(c.Status)
}

// renderCalls prints calls grouped by host
func renderCalls(w io.Writer, calls []backend.APICall) {
	if len(calls) == 0 {
		fmt.Fprintln(w, "No API calls tracked yet.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Host", "ID", "Method", "Status", "URL", "Time"})
	for i, group := range tracker.Group(calls) {
		if i > 0 {
			t.AppendSeparator()
		}
		for j, c := range group.Calls {
			host := ""
			if j == 0 {
				host = group.Host
			}
			t.AppendRow(table.Row{
				host,
				c.ID,
				c.Method,
				statusText(c),
				util.Shorten(c.URL, maxURLWidth),
				c.Time().Format("15:04:05"),
			})
		}
	}
	failed := 0
	for _, c := range calls {
		if c.Failed() {
			failed++
		}
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d calls, %d failed", len(calls), failed), ""})
	t.Render()
}

// renderCall prints one call in full
func renderCall(w io.Writer, c backend.APICall) {
	t := newTable(w)
	t.AppendRow(table.Row{"ID", c.ID})
	t.AppendRow(table.Row{"Method", c.Method})
	t.AppendRow(table.Row{"URL", c.URL})
	t.AppendRow(table.Row{"Status", statusText(c)})
	t.AppendRow(table.Row{"Time", c.Time().Format(time.RFC3339)})
	if c.Error != "" {
		t.AppendRow(table.Row{"Error", c.Error})
	}

	keys := make([]string, 0, len(c.Headers))
	for k := range c.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{"Header " + k, c.Headers[k]})
	}
	t.Render()

	if c.Response != "" {
		fmt.Fprintln(w, "\nResponse:")
		fmt.Fprintln(w, c.Response)
	}
}

// renderRun prints a run's output followed by its calls
func renderRun(w io.Writer, res *backend.RunResult) {
	fmt.Fprintf(w, "Status: %s\n", res.Status)
	if res.Output != "" {
		fmt.Fprintln(w, "\nOutput:")
		fmt.Fprint(w, res.Output)
		if res.Output[len(res.Output)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w)
	renderCalls(w, res.APICalls)
}

// renderDocTree prints every category in display order, empty ones included
func renderDocTree(w io.Writer, structure map[string][]docs.Endpoint) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Category", "ID", "Method", "Path", "Title"})
	for i, category := range docs.Categories() {
		if i > 0 {
			t.AppendSeparator()
		}
		endpoints := structure[category]
		if len(endpoints) == 0 {
			t.AppendRow(table.Row{category, "-", "", "", ""})
			continue
		}
		for j, ep := range endpoints {
			name := ""
			if j == 0 {
				name = category
			}
			t.AppendRow(table.Row{name, ep.ID, ep.Method, ep.Path, ep.Title})
		}
	}
	t.Render()
}

// renderDoc prints one documentation record
func renderDoc(w io.Writer, doc *docs.Doc) {
	fmt.Fprintf(w, "%s\n", doc.Title)
	if doc.Method != "" || doc.Path != "" {
		fmt.Fprintf(w, "%s %s\n", doc.Method, doc.Path)
	}
	if doc.Description != "" {
		fmt.Fprintf(w, "\n%s\n", doc.Description)
	}
	if doc.Content != "" {
		fmt.Fprintf(w, "\n%s\n", doc.Content)
	}

	if len(doc.Parameters) > 0 {
		fmt.Fprintln(w)
		t := newTable(w)
		t.AppendHeader(table.Row{"Parameter", "In", "Type", "Required", "Description"})
		for _, p := range doc.Parameters {
			t.AppendRow(table.Row{p.Name, p.In, p.Type, p.Required, p.Description})
		}
		t.Render()
	}

	langs := make([]string, 0, len(doc.Examples))
	for lang := range doc.Examples {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(w, "\nExample (%s):\n%s\n", lang, doc.Examples[lang])
	}
}

// renderLogs prints log entries, newest first
func renderLogs(w io.Writer, logs []monitor.LogEntry, total int64) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No log entries.")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Time", "Level", "Message", "Status", "Duration"})
	for _, e := range logs {
		status, duration := "", ""
		if e.StatusCode != 0 {
			status = strconv.Itoa(e.StatusCode)
		}
		if e.Duration != 0 {
			duration = fmt.Sprintf("%dms", e.Duration)
		}
		t.AppendRow(table.Row{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Level,
			util.Shorten(e.Message, 80),
			status,
			duration,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d of %d", len(logs), total), "", ""})
	t.Render()
}

// renderConfig prints the effective configuration with secrets masked
func renderConfig(w io.Writer, cfg *config.Config, path string) {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Value"})
	t.AppendRow(table.Row{"backend_url", cfg.BackendURL})
	t.AppendRow(table.Row{"backend_token", mask(cfg.BackendToken)})
	t.AppendRow(table.Row{"auto_refresh", cfg.AutoRefresh})
	t.AppendRow(table.Row{"refresh_delay", cfg.RefreshDelay})
	t.AppendRow(table.Row{"request_timeout", cfg.RequestTimeout})
	t.AppendRow(table.Row{"db_path", cfg.DBPath})
	t.AppendRow(table.Row{"host", cfg.Host})
	t.AppendRow(table.Row{"port", cfg.Port})
	t.AppendRow(table.Row{"admin_password", mask(cfg.AdminPassword)})
	t.AppendRow(table.Row{"logging_enabled", cfg.LoggingEnabled})
	t.AppendRow(table.Row{"verbose", cfg.Verbose})
	t.AppendFooter(table.Row{"file", path})
	t.Render()
}
