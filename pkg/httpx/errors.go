package httpx

import (
	"net/http"
	"time"
)

// ErrorResponse is the single error body shape of the API.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// Client-facing messages shared between middleware and handlers.
const (
	MsgTokenRequired       = "Access token required"
	MsgInvalidToken        = "Invalid or expired token"
	MsgMisconfigured       = "Server configuration error"
	MsgInternal            = "Internal server error"
	MsgUnavailable         = "Service temporarily unavailable"
	MsgAuthRequired        = "Authentication required"
	MsgTooManyRequests     = "Too many requests. Please try again later."
	MsgInvalidBody         = "Invalid request body"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgRefreshTokenMissing = "Refresh token required"
)

// WriteError writes the uniform error body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// WriteUnauthorized is WriteError(401) with the Bearer challenge header.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	WriteError(w, http.StatusUnauthorized, message)
}
