package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/user/taskmanager-go/apperror"
)

// DecodeJSON reads the request body into dst. An empty body leaves dst
// untouched so that field validation reports what is missing. Unknown JSON
// keys are ignored. Broken or mistyped JSON is a validation error; only an
// oversized body is a bad request.
func DecodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.NewBadRequestError("request body too large", err)
	}
	return apperror.NewValidationError("invalid request body", err)
}
