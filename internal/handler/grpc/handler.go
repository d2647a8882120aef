package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/TomasB/proxylookup/internal/data"
	"github.com/TomasB/proxylookup/internal/lookup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Handler implements LookupServer on top of the lookup gateway.
type Handler struct {
	gateway *lookup.Gateway
}

// NewHandler creates a new gRPC handler with the given gateway.
func NewHandler(gateway *lookup.Gateway) *Handler {
	return &Handler{gateway: gateway}
}

// Lookup returns the record for a single address.
func (h *Handler) Lookup(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil || req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "ip is required")
	}

	ip, err := lookup.ParseAddr(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid IP address")
	}

	row, err := h.gateway.Single(ip)
	if errors.Is(err, data.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "no record for address")
	}
	if err != nil {
		slog.Error("lookup failed", "ip", req.GetValue(), "error", err)
		return nil, status.Error(codes.Internal, "lookup failed")
	}

	out, err := structpb.NewStruct(map[string]any(row))
	if err != nil {
		slog.Error("record not representable", "ip", req.GetValue(), "error", err)
		return nil, status.Error(codes.Internal, "lookup failed")
	}
	return out, nil
}

// Batch looks up a comma-separated address list, answering one entry per
// address in input order with null for addresses without a record.
func (h *Handler) Batch(_ context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "ips is required")
	}

	ips, err := lookup.ParseBatch(req.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	rows, err := h.gateway.Batch(ips)
	if err != nil {
		slog.Error("batch lookup failed", "count", len(ips), "error", err)
		return nil, status.Error(codes.Internal, "lookup failed")
	}

	values := make([]any, len(rows))
	for i, row := range rows {
		if row != nil {
			values[i] = map[string]any(row)
		}
	}
	out, err := structpb.NewList(values)
	if err != nil {
		slog.Error("record not representable", "error", err)
		return nil, status.Error(codes.Internal, "lookup failed")
	}
	return out, nil
}

// Status returns the database header snapshot.
func (h *Handler) Status(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := h.gateway.Status()
	out, err := structpb.NewStruct(map[string]any{
		"px":        st.PX,
		"day":       st.Day,
		"month":     st.Month,
		"year":      st.Year,
		"rows_ipv4": st.RowsIPv4,
		"rows_ipv6": st.RowsIPv6,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
