package api

import (
	"encoding/json"
	"net/http"

	"github.com/stock-tracker/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

const ErrCodeInternalError = "INTERNAL_ERROR"

// statusForError maps service error codes to HTTP status codes.
func statusForError(err *types.ServiceError) int {
	switch err.Code {
	case types.CodeInvalidInput:
		return http.StatusBadRequest
	case types.CodeInsufficientFunds, types.CodeInsufficientShares:
		return http.StatusUnprocessableEntity
	case types.CodeNoPosition:
		return http.StatusNotFound
	case types.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case types.CodeQuoteProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError maps a service-layer error onto the wire, keeping
// the error code and details intact for known codes.
func respondServiceError(w http.ResponseWriter, err error) {
	if svcErr, ok := err.(*types.ServiceError); ok {
		respondError(w, statusForError(svcErr), svcErr.Code, svcErr.Message, svcErr.Details)
		return
	}
	respondError(w, http.StatusInternalServerError, ErrCodeInternalError, "An internal error occurred", nil)
}
