package writer

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"
)

// GobFile is the name of the gob dump inside a run directory.
const GobFile = "report.gob"

// SummaryData holds the metadata of a run, written next to the gob dump.
type SummaryData struct {
	RunID     string               `json:"run_id"`
	Datasets  []report.DatasetInfo `json:"datasets"`
	Sections  []string             `json:"sections"`
	Figures   int                  `json:"figures"`
	Timestamp string               `json:"timestamp"`
}

// GobWriter handles writing the report to disk in gob format.
type GobWriter struct {
	rootPath string
	log      *logger.Logger
}

// NewGobWriter creates a new gob writer.
func NewGobWriter(rootPath string, log *logger.Logger) *GobWriter {
	return &GobWriter{rootPath: rootPath, log: log.Named("gob-writer")}
}

func (w *GobWriter) Name() string { return "gob" }

// Write serializes the whole report into <root>/<timestamp>/report.gob and a
// summary.json describing it.
func (w *GobWriter) Write(rep *report.Report, timestamp string) error {
	runDir := filepath.Join(w.rootPath, timestamp)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	filePath := filepath.Join(runDir, GobFile)
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(rep); err != nil {
		return fmt.Errorf("failed to encode report to gob for file '%s': %w", filePath, err)
	}

	summary := SummaryData{
		RunID:     rep.RunID,
		Datasets:  rep.Datasets,
		Figures:   rep.FigureCount(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for _, s := range rep.Sections {
		summary.Sections = append(summary.Sections, s.Task)
	}
	summaryFile, err := os.Create(filepath.Join(runDir, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	w.log.Info("Gob report written", logger.String("file", filePath))
	return nil
}

// ReadGob decodes a report written by GobWriter.
func ReadGob(path string) (*report.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rep report.Report
	if err := gob.NewDecoder(file).Decode(&rep); err != nil {
		return nil, fmt.Errorf("failed to decode report from '%s': %w", path, err)
	}
	return &rep, nil
}
