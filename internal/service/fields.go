package service

import (
	"math"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func stringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

// intField насыщает значение до диапазона int32: конверсия float64 вне диапазона int
// зависит от платформы, а NaN превращается в ноль.
func intField(s *structpb.Struct, name string) int {
	v := s.GetFields()[name].GetNumberValue()
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

func uuidField(s *structpb.Struct, name string, required bool) (*uuid.UUID, error) {
	raw := stringField(s, name)
	if raw == "" {
		if required {
			return nil, status.Errorf(codes.InvalidArgument, "%s is required", name)
		}
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "%s must be a UUID", name)
	}
	return &id, nil
}

func dateField(s *structpb.Struct, name string) (civil.Date, error) {
	raw := stringField(s, name)
	if raw == "" {
		return civil.Date{}, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, status.Errorf(codes.InvalidArgument, "%s must be YYYY-MM-DD", name)
	}
	return d, nil
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}
