package domain

import "net/http"

// Code is a machine-readable error classification.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodeAuthorization  Code = "AUTHORIZATION_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodeConflict       Code = "CONFLICT_ERROR"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Error carries a taxonomy code and an HTTP status hint alongside the
// message. The API error handler relies on Status when translating to a
// transport response; everything below it treats Error as a plain error.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches another *Error with the same code and message, so the
// sentinels below work with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// NewValidationError builds a 400-class error.
func NewValidationError(msg string) *Error {
	return &Error{Code: CodeValidation, Status: http.StatusBadRequest, Message: msg}
}

// NewAuthenticationError builds a 401-class error.
func NewAuthenticationError(msg string) *Error {
	return &Error{Code: CodeAuthentication, Status: http.StatusUnauthorized, Message: msg}
}

// NewAuthorizationError builds a 403-class error.
func NewAuthorizationError(msg string) *Error {
	return &Error{Code: CodeAuthorization, Status: http.StatusForbidden, Message: msg}
}

// NewNotFoundError builds a 404-class error for the named resource.
func NewNotFoundError(resource string) *Error {
	return &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: resource + " not found"}
}

// NewConflictError builds a 409-class error.
func NewConflictError(msg string) *Error {
	return &Error{Code: CodeConflict, Status: http.StatusConflict, Message: msg}
}

var (
	ErrUserNotFound       = NewNotFoundError("user")
	ErrNameTaken          = NewConflictError("username already exists")
	ErrInvalidCredentials = NewAuthenticationError("invalid credentials")
	ErrWrongPassword      = NewAuthenticationError("current password is incorrect")
	ErrAuthTimeout        = NewAuthenticationError("authentication timed out")
	ErrTokenExpired       = NewAuthenticationError("token expired")
	ErrTokenInvalid       = NewAuthenticationError("invalid token")
	ErrTokenNotYetValid   = NewAuthenticationError("token not yet valid")
	ErrForbidden          = NewAuthorizationError("access forbidden")
	ErrOwnResourcesOnly   = NewAuthorizationError("you can only access your own resources")

	ErrInvalidRole              = NewValidationError("role is not valid")
	ErrNameTooShort             = NewValidationError("name must contain at least 2 characters")
	ErrPasswordRequired         = NewValidationError("password is required")
	ErrServerNeedsEstablishment = NewValidationError("a server must be assigned to an establishment")
	ErrServerKeepsEstablishment = NewValidationError("a server cannot be removed from its establishment")
	ErrLastAdmin                = NewValidationError("cannot delete the last administrator")
	ErrSelfDelete               = NewAuthorizationError("you cannot delete your own account")
)

// WeakPasswordError reports every character class the candidate password
// is missing, not only the first.
type WeakPasswordError struct {
	Missing []string
}

func (e *WeakPasswordError) Error() string {
	if len(e.Missing) == 0 {
		return "password does not meet the strength policy"
	}
	msg := "password must contain: " + e.Missing[0]
	for _, m := range e.Missing[1:] {
		msg += ", " + m
	}
	return msg
}

