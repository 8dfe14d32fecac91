package grpc

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/krobus00/wind-gateway/internal/constant"
	"github.com/krobus00/wind-gateway/internal/entity"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "wind.datafeed.v1.Datafeed"

	queryBarHistoryMethod = "/" + ServiceName + "/QueryBarHistory"
)

// DatafeedServer takes and returns google.protobuf.Struct so no generated stubs are needed.
type DatafeedServer interface {
	QueryBarHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DatafeedServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "QueryBarHistory",
			Handler:    queryBarHistoryHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wind/datafeed/v1/datafeed.proto",
}

func RegisterDatafeedServer(s grpc.ServiceRegistrar, srv DatafeedServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func queryBarHistoryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DatafeedServer).QueryBarHistory(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: queryBarHistoryMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DatafeedServer).QueryBarHistory(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type DatafeedClient struct {
	cc grpc.ClientConnInterface
}

func NewDatafeedClient(cc grpc.ClientConnInterface) *DatafeedClient {
	return &DatafeedClient{cc: cc}
}

func (c *DatafeedClient) QueryBarHistory(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, queryBarHistoryMethod, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

type barQuerier interface {
	QueryBarHistory(ctx context.Context, req entity.HistoryRequest) ([]entity.Bar, error)
}

type Server struct {
	datafeed barQuerier
}

func NewDatafeedGRPCServer(datafeed barQuerier) *Server {
	return &Server{datafeed: datafeed}
}

func (s *Server) QueryBarHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	historyReq, err := mapStructToHistoryRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	bars, err := s.datafeed.QueryBarHistory(ctx, historyReq)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrUnsupportedExchange), errors.Is(err, entity.ErrUnsupportedInterval):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, entity.ErrNotConnected):
			return nil, status.Error(codes.Unavailable, err.Error())
		default:
			logrus.WithField("vt_symbol", historyReq.VtSymbol()).Error(err)
			return nil, status.Error(codes.Internal, "history query failed")
		}
	}

	rows := make([]any, 0, len(bars))
	for _, bar := range bars {
		rows = append(rows, map[string]any{
			"symbol":        bar.Symbol,
			"exchange":      string(bar.Exchange),
			"interval":      string(bar.Interval),
			"datetime":      bar.Datetime.Format(time.RFC3339),
			"open_price":    number(bar.OpenPrice),
			"high_price":    number(bar.HighPrice),
			"low_price":     number(bar.LowPrice),
			"close_price":   number(bar.ClosePrice),
			"volume":        number(bar.Volume),
			"turnover":      number(bar.Turnover),
			"open_interest": number(bar.OpenInterest),
			"gateway_name":  bar.GatewayName,
		})
	}

	resp, err := structpb.NewStruct(map[string]any{"bars": rows})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	return resp, nil
}

func mapStructToHistoryRequest(req *structpb.Struct) (entity.HistoryRequest, error) {
	fields := req.GetFields()

	historyReq := entity.HistoryRequest{
		Symbol:   strings.TrimSpace(fields["symbol"].GetStringValue()),
		Exchange: entity.Exchange(strings.ToUpper(strings.TrimSpace(fields["exchange"].GetStringValue()))),
		Interval: entity.Interval(strings.TrimSpace(fields["interval"].GetStringValue())),
	}
	if historyReq.Symbol == "" || historyReq.Exchange == "" || historyReq.Interval == "" {
		return entity.HistoryRequest{}, errors.New("symbol, exchange and interval are required")
	}

	start, err := time.Parse(time.RFC3339, fields["start"].GetStringValue())
	if err != nil {
		return entity.HistoryRequest{}, errors.New("invalid start")
	}
	end, err := time.Parse(time.RFC3339, fields["end"].GetStringValue())
	if err != nil {
		return entity.HistoryRequest{}, errors.New("invalid end")
	}

	historyReq.Start = start.In(constant.ChinaTZ)
	historyReq.End = end.In(constant.ChinaTZ)

	return historyReq, nil
}

// number keeps NaN out of the response, it has no JSON form.
func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
