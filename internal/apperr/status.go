package apperr

import "net/http"

var statusByKind = map[Kind]int{
	NetworkUnavailable:   http.StatusServiceUnavailable,
	UserNotFound:         http.StatusNotFound,
	BadPassword:          http.StatusUnauthorized,
	DuplicateIdentifier:  http.StatusConflict,
	CodeExpired:          http.StatusGone,
	CodeMismatch:         http.StatusBadRequest,
	RateLimited:          http.StatusTooManyRequests,
	RemoteStoreError:     http.StatusInternalServerError,
	UnknownAction:        http.StatusBadRequest,
	RegistrationNotFound: http.StatusNotFound,
	DeliveryFailed:       http.StatusBadGateway,
	InvalidInput:         http.StatusBadRequest,
	Unauthorized:         http.StatusUnauthorized,
	Banned:               http.StatusForbidden,
	NotFound:             http.StatusNotFound,
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(k Kind) int {
	if s, ok := statusByKind[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}
