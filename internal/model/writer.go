package model

import "Go2GateSpectra/internal/report"

// Writer persists a finished report.
type Writer interface {
	Name() string
	// Write serializes the report. timestamp names the run, e.g. "2006-01-02_15-04-05".
	Write(rep *report.Report, timestamp string) error
}
