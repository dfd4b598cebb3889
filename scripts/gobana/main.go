package main

import (
	"fmt"
	"log"
	"os"

	"Go2GateSpectra/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <report.gob>")
		os.Exit(1)
	}

	rep, err := writer.ReadGob(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to decode gob data: %v", err)
	}

	fmt.Printf("Run %s generated at %s\n", rep.RunID, rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	for _, d := range rep.Datasets {
		fmt.Printf("  dataset %-12s rows=%d retained=%d dropped=%d skipped=%d out_of_order=%d\n",
			d.Label, d.RawRows, d.Retained, d.Dropped, d.Skipped, d.OutOfOrder)
	}
	for _, sec := range rep.Sections {
		fmt.Printf("\n[%s] %s (%s)\n", sec.Task, sec.Title, sec.Type)
		fmt.Printf("  stats=%d series=%d scalars=%d figures=%d fits=%d\n",
			len(sec.Stats), len(sec.Series), len(sec.Scalars), len(sec.Figures), len(sec.Fits))
		for _, s := range sec.Scalars {
			fmt.Printf("  %s (%s) = %.4f\n", s.Name, s.Dataset, s.Value)
		}
	}
}
