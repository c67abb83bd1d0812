package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/AbdoViper23/halaqa-Save/internal/metrics"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and records it in the RPC metrics.
//
// Rejections caused by racing joiners (AlreadyExists, Aborted) are normal
// operation and logged at Info.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			duration := elapsed.Milliseconds()
			code := "ok"
			userID := GetUserID(ctx) // empty if pre-auth

			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
					attrs := []any{
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"user_id", userID,
						"duration_ms", duration,
					}
					switch connectErr.Code() {
					case connect.CodeAlreadyExists, connect.CodeAborted:
						slog.Info("RPC rejected", attrs...)
					default:
						slog.Warn("RPC error", attrs...)
					}
				} else {
					code = connect.CodeUnknown.String()
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"user_id", userID,
						"duration_ms", duration,
					)
				}
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"user_id", userID,
					"duration_ms", duration,
				)
			}

			metrics.ObserveRPC(procedure, code, elapsed)
			return resp, err
		}
	}
}
