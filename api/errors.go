package api

import "net/http"

// Error carries the status code and client-facing detail for a failed
// request. Handlers return these; the transport adapter maps them onto the
// response.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string { return e.Detail }

func BadRequest(detail string) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail}
}

func Forbidden(detail string) *Error {
	return &Error{Status: http.StatusForbidden, Detail: detail}
}

func NotFound(detail string) *Error {
	return &Error{Status: http.StatusNotFound, Detail: detail}
}

func Internal() *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: "internal server error"}
}

// PaymentFailed is the one internal failure whose detail is meant for the
// client: the external capture was rejected and the order stays outstanding.
func PaymentFailed(detail string) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail}
}
