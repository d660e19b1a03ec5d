package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kaszm/imagegallery/pkg/httpx"
)

// RFC 6749 section 5.2 error codes, plus the extensions used here.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeInvalidClient        = "invalid_client"
	ErrorCodeInvalidGrant         = "invalid_grant"
	ErrorCodeUnsupportedGrantType = "unsupported_grant_type"
	ErrorCodeInvalidScope         = "invalid_scope"
	ErrorCodeServerError          = "server_error"
	ErrorCodeAccessDenied         = "access_denied"
	ErrorCodeMFARequired          = "mfa_required"
	ErrorCodeValidation           = "validation_error"
	ErrorCodeConflict             = "conflict"
	ErrorCodeNotFound             = "not_found"
)

// OAuth2Error is the JSON error body returned by every endpoint.
type OAuth2Error struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *OAuth2Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as the response.
func (e *OAuth2Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// WithDescription copies e with a more specific message.
func (e *OAuth2Error) WithDescription(desc string) *OAuth2Error {
	c := *e
	c.Description = desc
	return &c
}

var (
	ErrInvalidRequest = &OAuth2Error{http.StatusBadRequest, ErrorCodeInvalidRequest, "the request is malformed or missing required parameters"}
	ErrInvalidClient  = &OAuth2Error{http.StatusUnauthorized, ErrorCodeInvalidClient, "invalid client"}

	// ErrInvalidGrant deliberately does not say which credential was wrong.
	ErrInvalidGrant         = &OAuth2Error{http.StatusBadRequest, ErrorCodeInvalidGrant, "invalid credentials"}
	ErrUnsupportedGrantType = &OAuth2Error{http.StatusBadRequest, ErrorCodeUnsupportedGrantType, "grant type not supported"}
	ErrInvalidScope         = &OAuth2Error{http.StatusBadRequest, ErrorCodeInvalidScope, "requested scope is invalid"}
	ErrServerError          = &OAuth2Error{http.StatusInternalServerError, ErrorCodeServerError, "internal server error"}
	ErrAccessDenied         = &OAuth2Error{http.StatusForbidden, ErrorCodeAccessDenied, "access denied"}
	ErrNotFound             = &OAuth2Error{http.StatusNotFound, ErrorCodeNotFound, "not found"}
	ErrConflict             = &OAuth2Error{http.StatusConflict, ErrorCodeConflict, "the resource was modified or already exists"}
	ErrValidation           = &OAuth2Error{http.StatusBadRequest, ErrorCodeValidation, "validation failed"}
	ErrInvalidToken         = &OAuth2Error{http.StatusUnauthorized, "invalid_token", "the access token is missing or invalid"}
	ErrTooManyAttempts      = &OAuth2Error{http.StatusTooManyRequests, ErrorCodeAccessDenied, "too many attempts"}
	ErrInvalidContentType   = &OAuth2Error{http.StatusBadRequest, ErrorCodeInvalidRequest, "content-type must be application/x-www-form-urlencoded"}
)

// MFARequiredError is returned by the password grant when the account has
// an enrolled authenticator. The client completes the login with the
// mfa_otp grant using MFAToken.
type MFARequiredError struct {
	MFAToken string   `json:"mfa_token"`
	Methods  []string `json:"mfa_methods"`
}

func (e *MFARequiredError) Error() string {
	return fmt.Sprintf("mfa required: methods=%v", e.Methods)
}

// WriteError responds 403 with an mfa_required body.
func (e *MFARequiredError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusForbidden, map[string]any{
		"error":             ErrorCodeMFARequired,
		"error_description": "a second factor is required to complete sign in",
		"mfa_token":         e.MFAToken,
		"mfa_methods":       e.Methods,
	})
}

// parseError turns a non-success response body into a typed error.
func parseError(status int, body []byte) error {
	var raw struct {
		Error       string   `json:"error"`
		Description string   `json:"error_description"`
		MFAToken    string   `json:"mfa_token"`
		MFAMethods  []string `json:"mfa_methods"`
	}
	if err := json.Unmarshal(body, &raw); err != nil || raw.Error == "" {
		return &OAuth2Error{StatusCode: status, Code: ErrorCodeServerError, Description: http.StatusText(status)}
	}
	if raw.Error == ErrorCodeMFARequired && raw.MFAToken != "" {
		return &MFARequiredError{MFAToken: raw.MFAToken, Methods: raw.MFAMethods}
	}
	return &OAuth2Error{StatusCode: status, Code: raw.Error, Description: raw.Description}
}
