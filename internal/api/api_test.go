package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Go2GateSpectra/internal/query"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const latest = "2024-01-09_09-00-00"

type fakeQuerier struct {
	empty bool
	last  query.Filter
}

func (f *fakeQuerier) ListRuns(ctx context.Context, limit int) ([]query.Run, error) {
	runs := []query.Run{
		{RunID: latest, GeneratedAt: time.Date(2024, 1, 9, 9, 0, 0, 0, time.UTC)},
		{RunID: "2024-01-08_09-00-00", GeneratedAt: time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)},
	}
	if limit > 0 && limit < len(runs) {
		runs = runs[:limit]
	}
	return runs, nil
}

func (f *fakeQuerier) runID(filter query.Filter) (string, error) {
	f.last = filter
	if f.empty {
		return "", query.ErrNoRuns
	}
	if filter.RunID != "" {
		return filter.RunID, nil
	}
	return latest, nil
}

func (f *fakeQuerier) Stats(ctx context.Context, filter query.Filter) (string, []query.StatRow, error) {
	runID, err := f.runID(filter)
	if err != nil {
		return "", nil, err
	}
	return runID, []query.StatRow{{Task: "basic", Stat: report.Stat{Dataset: "historical", Group: "weekday",
		Class: "economy", Metric: "b1_b5", Summary: report.Summary{Count: 8, Mean: 20}}}}, nil
}

func (f *fakeQuerier) Scalars(ctx context.Context, filter query.Filter) (string, []query.ScalarRow, error) {
	runID, err := f.runID(filter)
	if err != nil {
		return "", nil, err
	}
	return runID, []query.ScalarRow{{Task: "sla", Scalar: report.Scalar{Dataset: "historical", Name: "sla_ratio", Value: 0.7}}}, nil
}

func (f *fakeQuerier) Series(ctx context.Context, filter query.Filter) (string, []query.SeriesRow, error) {
	runID, err := f.runID(filter)
	if err != nil {
		return "", nil, err
	}
	return runID, []query.SeriesRow{{Task: "sla", Series: report.Series{Dataset: "historical", Name: "exits",
		BucketSize: 3600, Starts: []int64{0, 3600}, Values: []float64{2, 5}}}}, nil
}

func (f *fakeQuerier) Close() error { return nil }

func dialBufnet(t *testing.T, q query.Querier) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterReportServiceServer(srv, NewService(q, logger.Nop()))
	healthpb.RegisterHealthServer(srv, health.NewServer())
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestReportService_GRPC(t *testing.T) {
	q := &fakeQuerier{}
	client := NewReportClient(dialBufnet(t, q))
	ctx := context.Background()

	t.Run("ListRuns", func(t *testing.T) {
		resp, err := client.ListRuns(ctx, 1)
		require.NoError(t, err)
		runs := resp.GetFields()["runs"].GetListValue().GetValues()
		require.Len(t, runs, 1)
		assert.Equal(t, latest, runs[0].GetStructValue().GetFields()["run_id"].GetStringValue())
	})

	t.Run("GetScalars", func(t *testing.T) {
		resp, err := client.GetScalars(ctx, query.Filter{Task: "sla", Name: "sla_ratio"})
		require.NoError(t, err)
		assert.Equal(t, latest, resp.GetFields()["run_id"].GetStringValue())
		scalars := resp.GetFields()["scalars"].GetListValue().GetValues()
		require.Len(t, scalars, 1)
		fields := scalars[0].GetStructValue().GetFields()
		assert.Equal(t, "sla", fields["task"].GetStringValue())
		assert.Equal(t, 0.7, fields["value"].GetNumberValue())
		assert.Equal(t, query.Filter{Task: "sla", Name: "sla_ratio"}, q.last)
	})

	t.Run("GetStats", func(t *testing.T) {
		resp, err := client.GetStats(ctx, query.Filter{RunID: "2024-01-08_09-00-00"})
		require.NoError(t, err)
		assert.Equal(t, "2024-01-08_09-00-00", resp.GetFields()["run_id"].GetStringValue())
		stat := resp.GetFields()["stats"].GetListValue().GetValues()[0].GetStructValue().GetFields()
		assert.Equal(t, 8.0, stat["summary"].GetStructValue().GetFields()["count"].GetNumberValue())
	})

	t.Run("Health", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(client.cc.(*grpc.ClientConn)).Check(ctx, &healthpb.HealthCheckRequest{})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func TestReportService_NoRuns(t *testing.T) {
	client := NewReportClient(dialBufnet(t, &fakeQuerier{empty: true}))
	_, err := client.GetSeries(context.Background(), query.Filter{})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHTTPHandler(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(NewService(&fakeQuerier{}, logger.Nop()), HTTPOptions{}))
	defer srv.Close()

	t.Run("Scalars", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/scalars?task=sla")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			RunID   string `json:"run_id"`
			Scalars []struct {
				Task  string  `json:"task"`
				Name  string  `json:"name"`
				Value float64 `json:"value"`
			} `json:"scalars"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, latest, body.RunID)
		require.Len(t, body.Scalars, 1)
		assert.Equal(t, 0.7, body.Scalars[0].Value)
	})

	t.Run("BadLimit", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/runs?limit=x")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Search", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/search", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		var targets []string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&targets))
		assert.Equal(t, []string{"sla/historical/exits"}, targets)
	})

	t.Run("GrafanaQuery", func(t *testing.T) {
		body := `{"targets":[{"target":"sla/historical/exits"}],"range":{"from":"2024-01-10T12:00:00Z","to":"2024-01-11T00:00:00Z"}}`
		resp, err := http.Post(srv.URL+"/query", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var series []TimeSeriesResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&series))
		require.Len(t, series, 1)
		monday := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, [][]float64{
			{2, float64(monday.UnixMilli())},
			{5, float64(monday.Add(time.Hour).UnixMilli())},
		}, series[0].Datapoints)
	})

	t.Run("GrafanaBadTarget", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/query", "application/json", strings.NewReader(`{"targets":[{"target":"exits"}]}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHTTPHandler_NotFound(t *testing.T) {
	srv := httptest.NewServer(NewHTTPHandler(NewService(&fakeQuerier{empty: true}, logger.Nop()), HTTPOptions{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	h := NewHTTPHandler(NewService(&fakeQuerier{}, logger.Nop()), HTTPOptions{RatePerSecond: 0.001, Burst: 1})

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)))
}
