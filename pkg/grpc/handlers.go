package grpc

import (
	"context"
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
	"liyu1981.xyz/iot-anchor-service/pkg/common"
	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

type uploadRequest struct {
	UserID     string   `zog:"user_id"`
	Chain      string   `zog:"chain"`
	ReadingIDs []string `zog:"reading_ids"`
}

var uploadRequestSchema = z.Struct(z.Shape{
	"UserID":     z.String().Min(1).Required(),
	"Chain":      z.String().Required(),
	"ReadingIDs": z.Slice(z.String()).Required(),
})

type chainRequest struct {
	Chain string `zog:"chain"`
	TxID  string `zog:"tx_id"`
}

var confirmRequestSchema = z.Struct(z.Shape{
	"Chain": z.String().Required(),
	"TxID":  z.String().Min(1).Required(),
})

var statsRequestSchema = z.Struct(z.Shape{
	"Chain": z.String().Required(),
})

func (s *AnchorServer) UploadToChain(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req uploadRequest
	if issues := uploadRequestSchema.Parse(in.AsMap(), &req); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	result, err := s.Anchor.UploadToChain(ctx, anchor.UploadRequest{
		UserID:     req.UserID,
		Chain:      models.Chain(req.Chain),
		ReadingIDs: req.ReadingIDs,
	})
	if err != nil {
		return nil, statusOf(err)
	}

	fields := map[string]any{
		"batch_id":      result.BatchID,
		"tx_id":         result.TxID,
		"explorer_url":  result.ExplorerURL,
		"tag":           result.Tag,
		"payload_size":  result.PayloadSize,
		"reading_count": result.ReadingCount,
		"elapsed_ms":    result.ElapsedMs,
		"status":        string(result.Status),
	}
	if result.FeePlanck != nil {
		fields["fee_planck"] = *result.FeePlanck
	}
	return newStruct(fields)
}

func (s *AnchorServer) ConfirmTransaction(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req chainRequest
	if issues := confirmRequestSchema.Parse(in.AsMap(), &req); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	confirmation, err := s.Anchor.ConfirmTransaction(ctx, models.Chain(req.Chain), req.TxID)
	if err != nil {
		return nil, statusOf(err)
	}

	fields := map[string]any{
		"chain":        string(confirmation.Chain),
		"tx_id":        confirmation.TxID,
		"confirmed":    confirmation.Confirmed,
		"block_height": confirmation.BlockHeight,
		"changed":      confirmation.Changed,
	}
	if !confirmation.ConfirmedAt.IsZero() {
		fields["confirmed_at"] = confirmation.ConfirmedAt.UTC().Format(time.RFC3339)
	}
	return newStruct(fields)
}

func (s *AnchorServer) GetUploadStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req chainRequest
	if issues := statsRequestSchema.Parse(in.AsMap(), &req); issues != nil {
		return nil, status.Errorf(codes.InvalidArgument, "validation error: %v", issues)
	}

	stats, err := s.Anchor.GetUploadStats(ctx, models.Chain(req.Chain))
	if err != nil {
		return nil, statusOf(err)
	}

	daily := make([]any, 0, len(stats.Daily))
	for _, d := range stats.Daily {
		daily = append(daily, map[string]any{
			"date":       d.Date,
			"uploads":    d.Uploads,
			"readings":   d.Readings,
			"bytes":      d.Bytes,
			"fee_planck": d.FeePlanck,
		})
	}

	return newStruct(map[string]any{
		"chain":               string(stats.Chain),
		"total_uploads":       stats.TotalUploads,
		"confirmed":           stats.Confirmed,
		"pending":             stats.Pending,
		"total_readings":      stats.TotalReadings,
		"total_bytes":         stats.TotalBytes,
		"total_fee_planck":    stats.TotalFeePlanck,
		"failed_attempts":     stats.FailedAttempts,
		"submit_latency_ms":   latencyFields(stats.SubmitLatencyMs),
		"confirm_latency_sec": latencyFields(stats.ConfirmLatencySec),
		"daily":               daily,
	})
}

func latencyFields(l anchor.LatencyStats) map[string]any {
	return map[string]any{"p50": l.P50, "p95": l.P95, "max": l.Max}
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// statusOf maps an anchor error to a grpc status. The error kind, code, size and limit
// travel as a Struct detail.
func statusOf(err error) error {
	var e *anchor.Error
	if !errors.As(err, &e) {
		e = &anchor.Error{Kind: anchor.KindInternal, Code: string(anchor.KindInternal), Err: err}
	}

	code := codes.Internal
	message := e.Message
	switch e.Kind {
	case anchor.KindInvalidInput:
		code = codes.InvalidArgument
	case anchor.KindPayloadTooLarge:
		code = codes.InvalidArgument
		message = fmt.Sprintf("%s: %d bytes exceeds limit of %d", e.Message, e.Size, e.Limit)
	case anchor.KindNoMatchingReadings, anchor.KindNotYetIncluded:
		code = codes.FailedPrecondition
	case anchor.KindNoMatchingRecord:
		code = codes.NotFound
	case anchor.KindNodeConnectionFailed:
		code = codes.Unavailable
	default:
		message = "internal error"
		common.GetLogger().Named(common.LoggerNameGrpcServer).Error("Request failed", zap.Error(err))
	}

	st := status.New(code, message)
	detail, derr := structpb.NewStruct(map[string]any{
		"kind":        string(e.Kind),
		"code":        e.Code,
		"node_status": e.NodeStatus,
		"size":        e.Size,
		"limit":       e.Limit,
	})
	if derr != nil {
		return st.Err()
	}
	if withDetail, derr := st.WithDetails(detail); derr == nil {
		st = withDetail
	}
	return st.Err()
}
