package probe

import (
	"fmt"
	"time"

	"Go2GateSpectra/internal/report"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Summary condenses a report into a protobuf Struct: run id, generation time,
// dataset counters and every scalar of every section.
func Summary(rep *report.Report) (*structpb.Struct, error) {
	datasets := make([]any, 0, len(rep.Datasets))
	for _, d := range rep.Datasets {
		datasets = append(datasets, map[string]any{
			"label":        d.Label,
			"raw_rows":     d.RawRows,
			"retained":     d.Retained,
			"dropped":      d.Dropped,
			"skipped":      d.Skipped,
			"out_of_order": d.OutOfOrder,
		})
	}

	var scalars []any
	for _, sec := range rep.Sections {
		for _, s := range sec.Scalars {
			scalars = append(scalars, map[string]any{
				"task":    sec.Task,
				"dataset": s.Dataset,
				"name":    s.Name,
				"value":   s.Value,
			})
		}
	}

	return structpb.NewStruct(map[string]any{
		"run_id":       rep.RunID,
		"generated_at": rep.GeneratedAt.UTC().Format(time.RFC3339),
		"datasets":     datasets,
		"scalars":      scalars,
		"figures":      rep.FigureCount(),
	})
}

// EncodeSummary marshals the summary of rep to protobuf wire format.
func EncodeSummary(rep *report.Report) ([]byte, error) {
	s, err := Summary(rep)
	if err != nil {
		return nil, fmt.Errorf("failed to build run summary: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeSummary parses a published run summary.
func DecodeSummary(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
