package writer

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

const banner = "********************************************************************************"

// TextWriter writes one plain-text report per section into a fresh run directory.
type TextWriter struct {
	rootPath string
	log      *logger.Logger
}

// NewTextWriter creates a new text writer.
func NewTextWriter(rootPath string, log *logger.Logger) *TextWriter {
	return &TextWriter{rootPath: rootPath, log: log.Named("text-writer")}
}

func (w *TextWriter) Name() string { return "text" }

func (w *TextWriter) Write(rep *report.Report, timestamp string) error {
	runDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := writeText(filepath.Join(runDir, "datasets.txt"), func(b *bufio.Writer) {
		writeDatasets(b, rep.Datasets)
	}); err != nil {
		return err
	}
	for _, sec := range rep.Sections {
		sec := sec
		if err := writeText(filepath.Join(runDir, sec.Task+".txt"), func(b *bufio.Writer) {
			writeSection(b, sec)
		}); err != nil {
			return err
		}
	}

	w.log.Info("Text reports written", logger.String("dir", runDir), logger.Int("sections", len(rep.Sections)))
	return nil
}

func writeText(path string, fill func(b *bufio.Writer)) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", path, err)
	}
	defer file.Close()

	b := bufio.NewWriter(file)
	fill(b)
	if err := b.Flush(); err != nil {
		return fmt.Errorf("failed to write report file '%s': %w", path, err)
	}
	return nil
}

func writeDatasets(b *bufio.Writer, datasets []report.DatasetInfo) {
	for _, d := range datasets {
		fmt.Fprintln(b, banner)
		fmt.Fprintf(b, "Dataset %s (%s):\n", d.Label, d.Path)
		fmt.Fprintf(b, "rows read: %d\n", d.RawRows)
		fmt.Fprintf(b, "rows retained: %d\n", d.Retained)
		fmt.Fprintf(b, "rows without b5: %d\n", d.Dropped)
		fmt.Fprintf(b, "malformed rows skipped: %d\n", d.Skipped)
		fmt.Fprintf(b, "records out of order: %d\n\n", d.OutOfOrder)
	}
}

func writeSection(b *bufio.Writer, sec report.Section) {
	fmt.Fprintf(b, "%s (%s)\n\n", sec.Title, sec.Task)

	for _, s := range sec.Stats {
		fmt.Fprintln(b, banner)
		fmt.Fprintf(b, "Basic analysis of %s for %s %s (%s):\n", s.Metric, s.Class, s.Group, s.Dataset)
		fmt.Fprintf(b, "count: %d\n", s.Summary.Count)
		fmt.Fprintf(b, "max: %.4f\n", s.Summary.Max)
		fmt.Fprintf(b, "min: %.4f\n", s.Summary.Min)
		fmt.Fprintf(b, "mean: %.4f\n", s.Summary.Mean)
		fmt.Fprintf(b, "standard deviation: %.4f\n\n", s.Summary.StdDev)
	}

	if len(sec.Scalars) > 0 {
		fmt.Fprintln(b, banner)
		for _, s := range sec.Scalars {
			fmt.Fprintf(b, "%s (%s): %.4f\n", s.Name, s.Dataset, s.Value)
		}
		fmt.Fprintln(b)
	}

	for _, s := range sec.Series {
		fmt.Fprintln(b, banner)
		fmt.Fprintf(b, "%s (%s), bucket %ds:\n", s.Name, s.Dataset, s.BucketSize)
		weekly := isWeekly(s)
		for i, start := range s.Starts {
			fmt.Fprintf(b, "%s %g\n", FormatOffset(start, weekly), s.Values[i])
		}
		fmt.Fprintln(b)
	}

	for _, f := range sec.Fits {
		fmt.Fprintln(b, banner)
		if f.Err != "" {
			fmt.Fprintf(b, "fitter info for %s (%d values): %s\n\n", f.Sample, f.Size, f.Err)
			continue
		}
		fmt.Fprintf(b, "fitter info for %s (%d values):\n", f.Sample, f.Size)
		for i, c := range f.Ranking {
			if i == 3 {
				break
			}
			fmt.Fprintf(b, "%d. %s sse=%.6g {%s}\n", i+1, c.Family, c.SSE, formatParams(c.Params))
		}
		fmt.Fprintln(b)
	}

	if len(sec.Figures) > 0 {
		names := make([]string, len(sec.Figures))
		for i, f := range sec.Figures {
			names[i] = filepath.Join(f.Folder, f.Name+".png")
		}
		fmt.Fprintln(b, banner)
		fmt.Fprintf(b, "figures:\n%s\n", strings.Join(names, "\n"))
	}
}
