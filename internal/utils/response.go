package utils

import (
	"context"
	"encoding/json"
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type errorBody struct {
	Code    apperror.Code  `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to encode response", zap.Error(err))
	}
}

// WriteError renders err as {"error":{code,message,details}}. Errors without
// a code are logged in full and answered with a generic INTERNAL body.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := apperror.As(err)
	if appErr.Code == apperror.CodeInternal {
		logger.FromCtx(ctx).Error("request failed", zap.Error(err))
		appErr = apperror.New(apperror.CodeInternal, "internal error")
	}

	WriteJSON(w, apperror.HTTPStatus(appErr.Code), errorEnvelope{Error: errorBody{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}
