// Package report renders an embedding run as an HTML page.
package report

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	rendererhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/xxxsen/samplesearch/internal/model"
)

type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(rendererhtml.WithXHTML()),
	)}
}

func (r *Renderer) Render(rep *model.EmbeddingReport) (string, error) {
	var out bytes.Buffer
	if err := r.md.Convert([]byte(Markdown(rep)), &out); err != nil {
		return "", err
	}
	title := stdhtml.EscapeString("Evaluation report: " + rep.Model)
	return "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>" + title +
		"</title></head><body>\n" + out.String() + "</body></html>\n", nil
}

// Markdown renders rep as GitHub flavoured markdown.
func Markdown(rep *model.EmbeddingReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evaluation report: %s\n\n", escapeCell(rep.Model))
	source := "fresh embeddings"
	if rep.FromCache {
		source = "cached embeddings"
	}
	fmt.Fprintf(&b, "Generated %s from %s, %d samples plotted.\n\n",
		time.UnixMilli(rep.Ctime).UTC().Format(time.RFC3339), source, len(rep.EmbeddingPoints))

	b.WriteString("## Metrics\n\n| Metric | Value |\n| --- | --- |\n")
	for _, m := range rep.EvalMetrics {
		fmt.Fprintf(&b, "| %s | %.2f |\n", m.Label, m.Value)
	}

	b.WriteString("\n## Confusion matrix\n\nRows are ground truth, columns are predictions.\n\n")
	columns := matrixColumns(rep.ConfusionMatrixData)
	b.WriteString("| actual |")
	for _, c := range columns {
		fmt.Fprintf(&b, " %s |", escapeCell(c))
	}
	b.WriteString("\n| --- |")
	for range columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rep.ConfusionMatrixData {
		fmt.Fprintf(&b, "| %s |", escapeCell(row.Predicted))
		for _, c := range columns {
			fmt.Fprintf(&b, " %d |", row.Counts[c])
		}
		b.WriteString("\n")
	}

	if len(rep.LabelDistribution) > 0 {
		b.WriteString("\n## Label distribution\n\n| Label | Count |\n| --- | --- |\n")
		for _, lc := range rep.LabelDistribution {
			fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(lc.Label), lc.Count)
		}
	}
	if len(rep.Excluded) > 0 {
		b.WriteString("\n## Excluded from evaluation\n\n")
		for _, name := range rep.Excluded {
			fmt.Fprintf(&b, "- %s\n", escapeCell(name))
		}
	}
	if len(rep.Skipped) > 0 {
		b.WriteString("\n## Skipped files\n\n| File | Reason |\n| --- | --- |\n")
		for _, s := range rep.Skipped {
			fmt.Fprintf(&b, "| %s | %s |\n", escapeCell(s.Name), escapeCell(s.Reason))
		}
	}
	return b.String()
}

func matrixColumns(rows []model.ConfusionMatrixRow) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for k := range row.Counts {
			seen[k] = struct{}{}
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
