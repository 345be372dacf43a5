package agora

import (
	"errors"
	"fmt"
	"net/http"
)

// An ErrorResponder is an error that knows which response it maps to. RespondError
// returns false if it wrote nothing and the error should be handled as an internal one.
type ErrorResponder interface {
	RespondError(w http.ResponseWriter, r *http.Request) bool
}

// respondError writes the response matching err, falling back on an internal server error
// for errors that don't know how to respond.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var er ErrorResponder
	if errors.As(err, &er) && er.RespondError(w, r) {
		s.Logger.Debug().Err(err).Str("path", r.URL.Path).Msg("Request rejected")
		return
	}

	s.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// StatusError responds with a fixed status code and wraps the error that caused it.
type StatusError struct {
	Status int
	err    error
}

// NotFound wraps err into a not found response.
func NotFound(err error) *StatusError {
	return &StatusError{Status: http.StatusNotFound, err: err}
}

// BadRequest wraps err into a bad request response.
func BadRequest(err error) *StatusError {
	return &StatusError{Status: http.StatusBadRequest, err: err}
}

// MethodNotAllowed is the response to a route called with the wrong method.
func MethodNotAllowed(method string, path string) *StatusError {
	return &StatusError{
		Status: http.StatusMethodNotAllowed,
		err:    fmt.Errorf("%v %v", method, path),
	}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %v", http.StatusText(e.Status), e.err)
}

func (e *StatusError) Unwrap() error {
	return e.err
}

func (e *StatusError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	http.Error(w, http.StatusText(e.Status), e.Status)
	return true
}

// Maybe404Error responds with not found status code, if its supplied error
// is about an unknown or unsupported content type.
type Maybe404Error struct {
	err error
}

func Maybe404(err error) *Maybe404Error {
	return &Maybe404Error{err: err}
}

func (e *Maybe404Error) Error() string {
	return fmt.Sprintf("Maybe404: %v", e.err)
}

func (e *Maybe404Error) Unwrap() error {
	return e.err
}

func (e *Maybe404Error) Is404() bool {
	return errors.Is(e.err, ErrInvalidContentType) || errors.Is(e.err, ErrUnsupportedContentType)
}

func (e *Maybe404Error) RespondError(w http.ResponseWriter, r *http.Request) bool {
	if !e.Is404() {
		return false
	}

	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	return true
}

// UnprocessableEntityError responds with unprocessable entity status code, listing
// fields that are invalid.
type UnprocessableEntityError struct {
	fieldNames []string
	err        error
}

func UnprocessableEntity(fieldNames ...string) *UnprocessableEntityError {
	return &UnprocessableEntityError{fieldNames: fieldNames}
}

func UnprocessableEntityWithError(err error, fieldNames ...string) *UnprocessableEntityError {
	return &UnprocessableEntityError{err: err, fieldNames: fieldNames}
}

func (e *UnprocessableEntityError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("invalid %v: %v", e.fieldNames, e.err)
	}
	return fmt.Sprintf("invalid %v", e.fieldNames)
}

func (e *UnprocessableEntityError) Unwrap() error {
	return e.err
}

func (e *UnprocessableEntityError) RespondError(w http.ResponseWriter, r *http.Request) bool {
	msg := fmt.Sprintf("%s: invalid %v", http.StatusText(http.StatusUnprocessableEntity), e.fieldNames)
	http.Error(w, msg, http.StatusUnprocessableEntity)
	return true
}
