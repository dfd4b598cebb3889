package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// HTMLWriter renders the report as markdown and converts it to a standalone HTML page.
type HTMLWriter struct {
	rootPath string
	log      *logger.Logger
}

func NewHTMLWriter(rootPath string, log *logger.Logger) *HTMLWriter {
	return &HTMLWriter{rootPath: rootPath, log: log.Named("html-writer")}
}

func (w *HTMLWriter) Name() string { return "html" }

func (w *HTMLWriter) Write(rep *report.Report, timestamp string) error {
	runDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	md := []byte(Markdown(rep))
	if err := os.WriteFile(filepath.Join(runDir, "report.md"), md, 0644); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Go2GateSpectra report " + rep.RunID,
	})
	page := markdown.ToHTML(md, p, renderer)
	path := filepath.Join(runDir, "report.html")
	if err := os.WriteFile(path, page, 0644); err != nil {
		return fmt.Errorf("failed to write html report: %w", err)
	}

	w.log.Info("HTML report written", logger.String("file", path))
	return nil
}

// Markdown renders the report as a markdown document with one table per kind
// of result.
func Markdown(rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Checkpoint analysis %s\n\n", rep.RunID)

	b.WriteString("## Datasets\n\n| Label | Path | Rows | Retained | Without b5 | Skipped | Out of order |\n|---|---|---|---|---|---|---|\n")
	for _, d := range rep.Datasets {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d | %d |\n", d.Label, d.Path, d.RawRows, d.Retained, d.Dropped, d.Skipped, d.OutOfOrder)
	}

	for _, sec := range rep.Sections {
		fmt.Fprintf(&b, "\n## %s (%s)\n", sec.Title, sec.Task)

		if len(sec.Scalars) > 0 {
			b.WriteString("\n| Dataset | Name | Value |\n|---|---|---|\n")
			for _, s := range sec.Scalars {
				fmt.Fprintf(&b, "| %s | %s | %.4f |\n", s.Dataset, s.Name, s.Value)
			}
		}
		if len(sec.Stats) > 0 {
			b.WriteString("\n| Dataset | Group | Class | Metric | Count | Min [min] | Max [min] | Mean [min] | Std dev [min] |\n|---|---|---|---|---|---|---|---|---|\n")
			for _, s := range sec.Stats {
				fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %.2f | %.2f | %.2f | %.2f |\n",
					s.Dataset, s.Group, s.Class, s.Metric, s.Summary.Count, s.Summary.Min, s.Summary.Max, s.Summary.Mean, s.Summary.StdDev)
			}
		}
		if len(sec.Fits) > 0 {
			b.WriteString("\n| Sample | Size | Best | Parameters | Note |\n|---|---|---|---|---|\n")
			for _, f := range sec.Fits {
				params := ""
				if len(f.Ranking) > 0 {
					params = formatParams(f.Ranking[0].Params)
				}
				fmt.Fprintf(&b, "| %s | %d | %s | %s | %s |\n", f.Sample, f.Size, f.Best, params, f.Err)
			}
		}
		if len(sec.Series) > 0 {
			b.WriteString("\n| Dataset | Series | Buckets | Peak | At |\n|---|---|---|---|---|\n")
			for _, s := range sec.Series {
				peak, at := 0.0, int64(0)
				for i, v := range s.Values {
					if v > peak {
						peak, at = v, s.Starts[i]
					}
				}
				fmt.Fprintf(&b, "| %s | %s | %d | %g | %s |\n", s.Dataset, s.Name, len(s.Values), peak, FormatOffset(at, isWeekly(s)))
			}
		}
		if len(sec.Figures) > 0 {
			b.WriteString("\nFigures:\n\n")
			for _, f := range sec.Figures {
				fmt.Fprintf(&b, "- `%s/%s.png` %s\n", f.Folder, f.Name, f.Title)
			}
		}
	}
	return b.String()
}
