package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "cartline/internal/errors"
)

type traceIDKey struct{}

const TraceHeader = "X-Trace-Id"

// TraceID assigns every request a trace id, echoed in the response header and
// in error bodies so a client report can be matched with the logs.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.New().String()
		w.Header().Set(TraceHeader, traceID)
		ctx := context.WithValue(r.Context(), traceIDKey{}, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}

// Logger returns logger tagged with the request's trace id.
func Logger(r *http.Request, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("traceId", TraceIDFrom(r.Context())))
}

type ErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Errors  []apperrors.ValidationDetail `json:"errors"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func StatusFor(err error) int {
	switch apperrors.Kind(err) {
	case apperrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	case apperrors.KindPreconditionFailed:
		return http.StatusPreconditionFailed
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindTimeout:
		return http.StatusGatewayTimeout
	case apperrors.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func WriteJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError renders err as {traceId, errors}. Server side failures are logged
// with their cause, which never reaches the body.
func WriteError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := StatusFor(err)
	log := Logger(r, logger)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	WriteJSON(w, logger, status, ErrorResponse{
		TraceID: TraceIDFrom(r.Context()),
		Errors:  apperrors.Details(err),
	})
}

// DecodeJSON reads the request body into dst. A malformed body is a validation error on "body".
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.NewValidationError("invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
	}
	return nil
}
