// Package api serves stored reports over gRPC and HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"Go2GateSpectra/internal/query"
	"Go2GateSpectra/pkg/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gatespectra.v1.ReportService"

// ReportServiceServer is the server API for the report service. Requests and
// responses are protobuf Structs; request fields are run_id, task, dataset,
// name and limit.
type ReportServiceServer interface {
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetScalars(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service answers report queries from a Querier.
type Service struct {
	querier query.Querier
	log     *logger.Logger
}

// NewService creates a Service backed by q.
func NewService(q query.Querier, log *logger.Logger) *Service {
	return &Service{querier: q, log: log.Named("api")}
}

// RegisterReportServiceServer registers srv on s.
func RegisterReportServiceServer(s grpc.ServiceRegistrar, srv ReportServiceServer) {
	s.RegisterService(&ReportService_ServiceDesc, srv)
}

func (s *Service) ListRuns(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit := int(req.GetFields()["limit"].GetNumberValue())
	s.log.Debug("Received ListRuns request", logger.Int("limit", limit))
	runs, err := s.querier.ListRuns(ctx, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"runs": runs})
}

func (s *Service) GetStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := filterFrom(req)
	s.log.Debug("Received GetStats request", logger.String("run_id", f.RunID), logger.String("task", f.Task))
	runID, rows, err := s.querier.Stats(ctx, f)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"run_id": runID, "stats": rows})
}

func (s *Service) GetScalars(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := filterFrom(req)
	s.log.Debug("Received GetScalars request", logger.String("run_id", f.RunID), logger.String("task", f.Task))
	runID, rows, err := s.querier.Scalars(ctx, f)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"run_id": runID, "scalars": rows})
}

func (s *Service) GetSeries(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f := filterFrom(req)
	s.log.Debug("Received GetSeries request", logger.String("run_id", f.RunID), logger.String("task", f.Task))
	runID, rows, err := s.querier.Series(ctx, f)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"run_id": runID, "series": rows})
}

func filterFrom(req *structpb.Struct) query.Filter {
	fields := req.GetFields()
	return query.Filter{
		RunID:   fields["run_id"].GetStringValue(),
		Task:    fields["task"].GetStringValue(),
		Dataset: fields["dataset"].GetStringValue(),
		Name:    fields["name"].GetStringValue(),
	}
}

// FilterRequest builds the request Struct for f.
func FilterRequest(f query.Filter) *structpb.Struct {
	fields := map[string]*structpb.Value{}
	for k, v := range map[string]string{"run_id": f.RunID, "task": f.Task, "dataset": f.Dataset, "name": f.Name} {
		if v != "" {
			fields[k] = structpb.NewStringValue(v)
		}
	}
	return &structpb.Struct{Fields: fields}
}

// toStruct converts the JSON form of v into a Struct, so the gRPC and HTTP
// APIs share field names.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to convert response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	if errors.Is(err, query.ErrNoRuns) {
		return status.Error(codes.NotFound, err.Error())
	}
	return status.Error(codes.Internal, fmt.Sprintf("query failed: %v", err))
}

func unaryHandler(method string, call func(ReportServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReportServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ReportServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ReportService_ServiceDesc is the grpc.ServiceDesc for the report service.
var ReportService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReportServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListRuns", ReportServiceServer.ListRuns),
		unaryHandler("GetStats", ReportServiceServer.GetStats),
		unaryHandler("GetScalars", ReportServiceServer.GetScalars),
		unaryHandler("GetSeries", ReportServiceServer.GetSeries),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gatespectra/v1/report.proto",
}

// ReportClient calls the report service over a gRPC connection.
type ReportClient struct {
	cc grpc.ClientConnInterface
}

// NewReportClient wraps cc.
func NewReportClient(cc grpc.ClientConnInterface) *ReportClient {
	return &ReportClient{cc: cc}
}

func (c *ReportClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReportClient) ListRuns(ctx context.Context, limit int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{"limit": structpb.NewNumberValue(float64(limit))}}
	return c.invoke(ctx, "ListRuns", in, opts...)
}

func (c *ReportClient) GetStats(ctx context.Context, f query.Filter, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetStats", FilterRequest(f), opts...)
}

func (c *ReportClient) GetScalars(ctx context.Context, f query.Filter, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetScalars", FilterRequest(f), opts...)
}

func (c *ReportClient) GetSeries(ctx context.Context, f query.Filter, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSeries", FilterRequest(f), opts...)
}
