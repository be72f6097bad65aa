// Package report renders the results of a sync run: the Markdown
// status document, a JSON artifact for the invoking scheduler, and the
// terminal summary. It is a pure projection of the RunReport; no
// decisions are made here.
package report

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	_ "embed"

	"github.com/upstreamed/forksync/internal/syncer"
	"github.com/upstreamed/forksync/internal/utils"
)

//go:embed status.md.tpl
var statusTmpl string

const (
	emptyCell  = "n/a"
	dateLayout = "2006-01-02"
)

var tplStatus = template.Must(template.New("status").Parse(statusTmpl))

// statusData feeds the status template. Rows are pre-rendered so the
// template stays free of conditionals.
type statusData struct {
	Rows    []statusRow
	Totals  syncer.Totals
	Updated string
}

type statusRow struct {
	Fork        string
	Upstream    string
	Language    string
	Description string
	LastPush    string
}

// RenderMarkdown renders the status document for a run. The output is
// deterministic for a given report, so unchanged runs produce
// byte-identical documents.
func RenderMarkdown(rep *syncer.RunReport) ([]byte, error) {
	data := statusData{
		Rows:    make([]statusRow, 0, len(rep.Outcomes)),
		Totals:  rep.Totals,
		Updated: rep.Finished.UTC().Format(dateLayout),
	}
	for _, out := range rep.Outcomes {
		if out == nil || out.Record == nil {
			continue
		}
		data.Rows = append(data.Rows, buildRow(out.Record))
	}

	var buf bytes.Buffer
	if err := tplStatus.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteMarkdown renders the status document and writes it to path only
// when the content changed. Returns true when the file was written.
func WriteMarkdown(path string, rep *syncer.RunReport) (bool, error) {
	data, err := RenderMarkdown(rep)
	if err != nil {
		return false, err
	}
	return utils.WriteFileIfChanged(path, data, os.FileMode(0o644))
}

func buildRow(rec *syncer.ForkRecord) statusRow {
	lastPush := ""
	if !rec.PushedAt.IsZero() {
		lastPush = rec.PushedAt.UTC().Format(dateLayout)
	}
	upstream := ""
	if rec.Parent != "" {
		upstream = mdLink(rec.Parent.String(), rec.ParentHTMLURL)
	}
	return statusRow{
		Fork:        mdLink(rec.Name.String(), rec.HTMLURL),
		Upstream:    orEmptyCell(upstream),
		Language:    orEmptyCell(mdCell(rec.Language)),
		Description: orEmptyCell(mdCell(rec.Description)),
		LastPush:    orEmptyCell(lastPush),
	}
}

// mdLink renders a Markdown link, or just the name when no URL is
// known.
func mdLink(name, url string) string {
	if url == "" {
		return name
	}
	return "[" + name + "](" + url + ")"
}

// mdCell makes free-form text safe inside a Markdown table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.TrimSpace(s)
}

func orEmptyCell(s string) string {
	if s == "" {
		return emptyCell
	}
	return s
}
