package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"Go2GateSpectra/internal/api"
	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/query"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// --- Main Function ---
func main() {
	mode := flag.String("mode", "api", "Query mode: 'api' (HTTP), 'grpc', or 'direct' (sqlite file).")
	kind := flag.String("kind", "scalars", "What to query: runs, stats, scalars or series.")
	runID := flag.String("run", "", "Run ID (default: latest run).")
	task := flag.String("task", "", "Task name filter.")
	dataset := flag.String("dataset", "", "Dataset label filter.")
	name := flag.String("name", "", "Metric, scalar or series name filter.")
	httpAddr := flag.String("http", "http://localhost:8080", "HTTP API base URL.")
	grpcAddr := flag.String("grpc", "localhost:50051", "gRPC API address.")
	dbPath := flag.String("db", query.DefaultSQLitePath, "SQLite report database for direct mode.")
	flag.Parse()

	f := query.Filter{RunID: *runID, Task: *task, Dataset: *dataset, Name: *name}
	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*httpAddr, *kind, f)
	case "grpc":
		queryViaGRPC(*grpcAddr, *kind, f)
	case "direct":
		queryDirect(*dbPath, *kind, f)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api', 'grpc' or 'direct'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(base, kind string, f query.Filter) {
	params := url.Values{}
	for k, v := range map[string]string{"run_id": f.RunID, "task": f.Task, "dataset": f.Dataset, "name": f.Name} {
		if v != "" {
			params.Set(k, v)
		}
	}
	apiURL := fmt.Sprintf("%s/api/v1/%s?%s", base, kind, params.Encode())
	log.Printf("Sending request to %s", apiURL)

	resp, err := http.Get(apiURL)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Fatalf("Error formatting JSON response: %v", err)
	}
	fmt.Println(prettyJSON.String())
}

// --- gRPC Query Logic ---
func queryViaGRPC(addr, kind string, f query.Filter) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer conn.Close()
	client := api.NewReportClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resp *structpb.Struct
	switch kind {
	case "runs":
		resp, err = client.ListRuns(ctx, 0)
	case "stats":
		resp, err = client.GetStats(ctx, f)
	case "scalars":
		resp, err = client.GetScalars(ctx, f)
	case "series":
		resp, err = client.GetSeries(ctx, f)
	default:
		log.Fatalf("Invalid kind: %s", kind)
	}
	if err != nil {
		log.Fatalf("gRPC call failed: %v", err)
	}
	fmt.Println(protojson.MarshalOptions{Multiline: true, Indent: "  "}.Format(resp))
}

// --- Direct Query Logic ---
func queryDirect(path, kind string, f query.Filter) {
	q, err := query.NewSQLiteQuerier(config.SQLiteConfig{Path: path})
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer q.Close()
	ctx := context.Background()

	var out interface{}
	var runID string
	switch kind {
	case "runs":
		out, err = q.ListRuns(ctx, 0)
	case "stats":
		runID, out, err = statsOf(q.Stats(ctx, f))
	case "scalars":
		runID, out, err = scalarsOf(q.Scalars(ctx, f))
	case "series":
		runID, out, err = seriesOf(q.Series(ctx, f))
	default:
		log.Fatalf("Invalid kind: %s", kind)
	}
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	if runID != "" {
		log.Printf("Run %s", runID)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Error formatting result: %v", err)
	}
	fmt.Println(string(data))
}

func statsOf(runID string, rows []query.StatRow, err error) (string, interface{}, error) {
	return runID, rows, err
}

func scalarsOf(runID string, rows []query.ScalarRow, err error) (string, interface{}, error) {
	return runID, rows, err
}

func seriesOf(runID string, rows []query.SeriesRow, err error) (string, interface{}, error) {
	return runID, rows, err
}
