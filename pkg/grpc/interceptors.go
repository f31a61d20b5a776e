package grpc

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"user-service/pkg/errors"
	"user-service/pkg/logger"
)

const (
	// TraceIDMetadataKey is the metadata key for trace ID
	TraceIDMetadataKey = "x-trace-id"
	// ErrorDetailsMetadataKey carries AppError details as JSON in the response trailer (binary header)
	ErrorDetailsMetadataKey = "x-error-details-bin"
)

// UnaryServerInterceptor creates a server interceptor for logging, tracing, and error handling
func UnaryServerInterceptor(log *logger.Logger, timeout time.Duration) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		traceID := extractTraceID(ctx)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx = logger.WithTraceIDContext(ctx, traceID)

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		resp, err := handler(ctx, req)

		logFields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
		}

		if err != nil {
			st := errors.GRPCStatus(err)
			logFields = append(logFields, zap.String("grpc_code", status.Code(st).String()), zap.Error(err))
			if errors.HTTPStatus(err) >= 500 {
				log.WithContext(ctx).Error("grpc request failed", logFields...)
			} else {
				log.WithContext(ctx).Warn("grpc request rejected", logFields...)
			}

			setErrorDetails(ctx, err)
			return nil, st
		}

		log.WithContext(ctx).Info("grpc request completed", logFields...)
		return resp, nil
	}
}

// UnaryClientInterceptor creates a client interceptor for tracing and timeout
func UnaryClientInterceptor(timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		if traceID := logger.GetTraceID(ctx); traceID != "" {
			ctx = metadata.AppendToOutgoingContext(ctx, TraceIDMetadataKey, traceID)
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var trailer metadata.MD
		opts = append(opts, grpc.Trailer(&trailer))

		if err := invoker(ctx, method, req, reply, cc, opts...); err != nil {
			appErr := errors.FromGRPCStatus(err)
			if values := trailer.Get(ErrorDetailsMetadataKey); len(values) > 0 && json.Valid([]byte(values[0])) {
				appErr.Details = json.RawMessage(values[0])
			}
			return appErr
		}

		return nil
	}
}

// setErrorDetails forwards the details of client-facing AppErrors to the caller
func setErrorDetails(ctx context.Context, err error) {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Details == nil || appErr.Code == errors.CodeInternal {
		return
	}

	data, mErr := json.Marshal(appErr.Details)
	if mErr != nil {
		return
	}
	_ = grpc.SetTrailer(ctx, metadata.Pairs(ErrorDetailsMetadataKey, string(data)))
}

func extractTraceID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(TraceIDMetadataKey)
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
