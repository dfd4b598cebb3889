package manager

import (
	"errors"
	"fmt"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/engine/derive"
	"Go2GateSpectra/internal/model"
	"Go2GateSpectra/pkg/gatelog"
	"Go2GateSpectra/pkg/logger"
)

// LoadDataset reads, cleans and derives one input file. With skipMalformed a
// row whose timestamps do not parse is counted and skipped; otherwise the
// first ParseError is returned.
func LoadDataset(def config.DatasetDef, params model.AnalysisParams, skipMalformed bool, log *logger.Logger) (*model.Dataset, error) {
	delimiter := ';'
	if def.Delimiter != "" {
		delimiter = []rune(def.Delimiter)[0]
	}
	format := def.TimestampFormat
	if format == "" {
		format = config.DefaultTimestampFormat
	}
	d, err := derive.New(format, params.Location)
	if err != nil {
		return nil, fmt.Errorf("dataset '%s': %w", def.Label, err)
	}

	raw, err := gatelog.Open(def.Path, delimiter)
	if err != nil {
		return nil, fmt.Errorf("dataset '%s': %w", def.Label, err)
	}
	clean, err := raw.Clean()
	if err != nil {
		return nil, fmt.Errorf("dataset '%s': %w", def.Label, err)
	}

	ds := &model.Dataset{
		Label:   def.Label,
		Path:    def.Path,
		RawRows: raw.RawRows(),
		Dropped: raw.Len() - clean.Len(),
	}
	recs := clean.Records()
	ds.Records = make([]model.PassengerRecord, 0, len(recs))
	for i := range recs {
		if err := d.Derive(&recs[i]); err != nil {
			var perr *derive.ParseError
			if skipMalformed && errors.As(err, &perr) {
				ds.Skipped++
				log.Debug("Skipping malformed row", logger.String("dataset", def.Label), logger.Error(err))
				continue
			}
			return nil, fmt.Errorf("dataset '%s': %w", def.Label, err)
		}
		ds.Records = append(ds.Records, recs[i])
	}

	log.Info("Dataset loaded",
		logger.String("dataset", ds.Label),
		logger.String("path", ds.Path),
		logger.Int("rows", ds.RawRows),
		logger.Int("retained", len(ds.Records)),
		logger.Int("dropped", ds.Dropped),
		logger.Int("skipped", ds.Skipped),
		logger.Int("out_of_order", ds.OutOfOrder()))
	return ds, nil
}
