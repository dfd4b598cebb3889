package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Go2GateSpectra/internal/query"
	"Go2GateSpectra/pkg/logger"

	"github.com/gorilla/mux"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ---- Grafana-specific structs ----
type QueryRequest struct {
	Targets []struct {
		Target string `json:"target"`
	} `json:"targets"`
	Range struct {
		From time.Time `json:"from"`
		To   time.Time `json:"to"`
	} `json:"range"`
}

type TimeSeriesResponse struct {
	Target     string      `json:"target"`
	Datapoints [][]float64 `json:"datapoints"` // [ [value, timestamp_ms], ... ]
}

// HTTPOptions configures the HTTP handler middleware.
type HTTPOptions struct {
	RatePerSecond float64 // <= 0 disables rate limiting
	Burst         int
}

// NewHTTPHandler serves the JSON API and the Grafana endpoints.
//
//	GET  /healthz
//	GET  /api/v1/runs?limit=N
//	GET  /api/v1/{stats|scalars|series}?run_id=&task=&dataset=&name=
//	GET  /          Grafana connection test
//	POST /search    series targets of the latest run, as task/dataset/name
//	POST /query     series datapoints for the requested targets
func NewHTTPHandler(s *Service, opts HTTPOptions) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")
	r.HandleFunc("/api/v1/runs", s.runsHandler).Methods("GET")
	r.HandleFunc("/api/v1/stats", s.filterHandler(s.GetStats)).Methods("GET")
	r.HandleFunc("/api/v1/scalars", s.filterHandler(s.GetScalars)).Methods("GET")
	r.HandleFunc("/api/v1/series", s.filterHandler(s.GetSeries)).Methods("GET")

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")
	r.HandleFunc("/search", s.searchHandler).Methods("POST")
	r.HandleFunc("/query", s.queryHandler).Methods("POST")

	var h http.Handler = r
	h = CompressionMiddleware(h)
	if opts.RatePerSecond > 0 {
		h = NewRateLimitMiddleware(opts.RatePerSecond, opts.Burst)(h)
	}
	return h
}

func (s *Service) runsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	req := &structpb.Struct{Fields: map[string]*structpb.Value{"limit": structpb.NewNumberValue(float64(limit))}}
	resp, err := s.ListRuns(r.Context(), req)
	s.writeStruct(w, resp, err)
}

func (s *Service) filterHandler(call func(context.Context, *structpb.Struct) (*structpb.Struct, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := FilterRequest(query.Filter{
			RunID:   q.Get("run_id"),
			Task:    q.Get("task"),
			Dataset: q.Get("dataset"),
			Name:    q.Get("name"),
		})
		resp, err := call(r.Context(), req)
		s.writeStruct(w, resp, err)
	}
}

func (s *Service) writeStruct(w http.ResponseWriter, resp *structpb.Struct, err error) {
	if err != nil {
		code := http.StatusInternalServerError
		if status.Code(err) == codes.NotFound {
			code = http.StatusNotFound
		}
		s.log.Warn("HTTP query failed", logger.Error(err))
		http.Error(w, status.Convert(err).Message(), code)
		return
	}
	data, err := protojson.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Service) searchHandler(w http.ResponseWriter, r *http.Request) {
	_, rows, err := s.querier.Series(r.Context(), query.Filter{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	targets := make([]string, 0, len(rows))
	for _, row := range rows {
		targets = append(targets, row.Task+"/"+row.Dataset+"/"+row.Name)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(targets)
}

// queryHandler answers Grafana targets of the form task/dataset/name from the
// latest run. Bucket starts are offsets into the week, so datapoints are laid
// out over the week that contains the start of the requested range.
func (s *Service) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from := req.Range.From
	if from.IsZero() {
		from = time.Now()
	}
	anchor := WeekStart(from)

	response := []TimeSeriesResponse{}
	for _, target := range req.Targets {
		parts := strings.SplitN(target.Target, "/", 3)
		if len(parts) != 3 {
			http.Error(w, "target must be task/dataset/name: "+target.Target, http.StatusBadRequest)
			return
		}
		_, rows, err := s.querier.Series(r.Context(), query.Filter{Task: parts[0], Dataset: parts[1], Name: parts[2]})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		ts := TimeSeriesResponse{Target: target.Target, Datapoints: [][]float64{}}
		for _, row := range rows {
			for i, start := range row.Starts {
				at := anchor.Add(time.Duration(start) * time.Second)
				ts.Datapoints = append(ts.Datapoints, []float64{row.Values[i], float64(at.UnixMilli())})
			}
		}
		response = append(response, ts)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// WeekStart returns Monday 00:00 UTC of the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
}
