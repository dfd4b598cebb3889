package main

import (
	"encoding/csv"
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/ncruces/go-strftime"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean minutes spent between consecutive checkpoints, per class.
var segmentMinutes = map[string][4]float64{
	"economy":  {4, 8, 6, 5},
	"business": {2, 3, 2, 2},
}

func main() {
	outputFile := flag.String("o", "data.csv", "Output CSV file path")
	count := flag.Int("c", 5000, "Number of passengers to generate")
	startDate := flag.String("start", "2024-01-01", "First day of the log (YYYY-MM-DD)")
	days := flag.Int("days", 7, "Number of days covered")
	business := flag.Float64("business", 0.15, "Share of business-class passengers")
	missing := flag.Float64("missing", 0.02, "Share of rows without a b5 timestamp")
	format := flag.String("format", "%d.%m.%Y %H:%M:%S", "strftime format of the timestamps")
	flag.Parse()

	start, err := time.ParseInLocation("2006-01-02", *startDate, time.Local)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'
	if err := w.Write([]string{"id", "type", "b1", "b2", "b3", "b4", "b5"}); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	// Morning and evening peaks around 08:00 and 17:30.
	morning := distuv.Normal{Mu: 8, Sigma: 1.5}
	evening := distuv.Normal{Mu: 17.5, Sigma: 2}

	log.Printf("Generating %d passengers into %s...", *count, *outputFile)
	for i := 0; i < *count; i++ {
		class := "economy"
		if rand.Float64() < *business {
			class = "business"
		}

		hour := morning.Rand()
		if rand.Float64() < 0.45 {
			hour = evening.Rand()
		}
		hour = math.Mod(math.Max(hour, 0), 24)
		day := start.AddDate(0, 0, rand.Intn(*days))
		t := day.Add(time.Duration(hour * float64(time.Hour))).Truncate(time.Second)

		row := []string{strconv.Itoa(i + 1), class, strftime.Format(*format, t)}
		for _, mean := range segmentMinutes[class] {
			wait := distuv.Gamma{Alpha: 2, Beta: 2 / mean}
			t = t.Add(time.Duration(wait.Rand() * float64(time.Minute))).Truncate(time.Second)
			row = append(row, strftime.Format(*format, t))
		}
		if rand.Float64() < *missing {
			row[len(row)-1] = ""
		}
		if err := w.Write(row); err != nil {
			log.Fatalf("Failed to write row: %v", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("Failed to flush CSV: %v", err)
	}
	log.Printf("Successfully generated %s", *outputFile)
}
