// Package response writes the JSON envelope every endpoint answers with:
//
//	{ "success": bool, "data"?: any, "message"?: string, "error"?: code }
//
// Handlers never encode JSON themselves; they go through JSON, Success or
// Error so that the envelope and the error codes stay uniform.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/taskmanager-go/apperror"
)

// Envelope is the response body shared by all endpoints.
type Envelope struct {
	Success bool          `json:"success" example:"true"`
	Data    any           `json:"data,omitempty"`
	Message string        `json:"message,omitempty" example:"Task created successfully"`
	Error   string        `json:"error,omitempty" example:"VALIDATION_ERROR"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails carries the raw error text. It is only attached when the
// service runs in development mode.
type ErrorDetails struct {
	OriginalMessage string `json:"originalMessage"`
}

// ErrorResponse documents the failure envelope for the API docs.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"task not found"`
	Error   string `json:"error" example:"NOT_FOUND"`
}

// Writer turns handler results into envelopes. The zero value is usable; it
// logs through slog.Default and hides internal messages.
type Writer struct {
	// Development exposes raw error text in 5xx responses.
	Development bool
	Logger      *slog.Logger
}

var defaultWriter = &Writer{}

// SetDefault replaces the package-level writer used by JSON, Success and Error.
func SetDefault(w *Writer) {
	if w != nil {
		defaultWriter = w
	}
}

// JSON serializes `body` and writes it with the given status.
func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent; all we can do is record it.
		defaultWriter.logger().Error("failed to encode response", "error", err)
	}
}

// Success writes `{success:true, data, message}`.
func Success(w http.ResponseWriter, status int, data any, message string) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// Error writes the failure envelope for err using the default writer.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	defaultWriter.Error(w, r, err)
}

// Error converts any error into the failure envelope. Errors that are not
// *apperror.AppError are treated as internal. Server-side failures are logged
// with the request context; their messages are replaced by a generic one
// unless the writer runs in development mode.
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("internal server error", err)
	}

	status := appErr.StatusCode()
	log := wr.logger().With(
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", appErr.Code(),
	)

	env := Envelope{Success: false, Message: appErr.Message, Error: appErr.Code()}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", "error", err)
		if !wr.Development {
			env.Message = "internal server error"
			if appErr.Type == apperror.ServiceUnavailableError {
				env.Message = "service temporarily unavailable"
			}
		}
	} else {
		log.DebugContext(r.Context(), "request rejected", "error", err)
	}
	if wr.Development && appErr.Err != nil {
		env.Details = &ErrorDetails{OriginalMessage: appErr.Err.Error()}
	}

	JSON(w, status, env)
}

func (wr *Writer) logger() *slog.Logger {
	if wr.Logger != nil {
		return wr.Logger
	}
	return slog.Default()
}
