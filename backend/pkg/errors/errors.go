package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the domain an error originated in
type ErrorType string

const (
	// ErrorTypeUser represents user/profile errors
	ErrorTypeUser ErrorType = "user"
	// ErrorTypeGraph represents relationship graph errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeNotification represents notification log/delivery errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeValidation represents request validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrorKind classifies how an error maps onto the client-facing contract
type ErrorKind string

const (
	// KindNotFound means the referenced user, edge or notification is absent
	KindNotFound ErrorKind = "not_found"
	// KindInvalidOperation means the operation is never valid for its arguments
	KindInvalidOperation ErrorKind = "invalid_operation"
	// KindInvalidArgument means a request field is missing or malformed
	KindInvalidArgument ErrorKind = "invalid_argument"
	// KindUnavailable means an underlying store could not serve the request
	KindUnavailable ErrorKind = "unavailable"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Kind      ErrorKind
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Class returns the client-facing class of the error. The method is
// promoted into every wrapper type that embeds BaseError, which is what
// lets IsKind match wrappers without unwrapping.
func (e *BaseError) Class() ErrorKind {
	return e.Kind
}

// Domain returns the domain the error originated in
func (e *BaseError) Domain() ErrorType {
	return e.Type
}

// ClientMessage returns the message without the domain prefix or the
// wrapped cause, suitable for a client-facing response body
func (e *BaseError) ClientMessage() string {
	return e.Message
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, kind ErrorKind, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// User Errors

// ErrUserNotFound is returned when a user id has no user record
type ErrUserNotFound struct {
	*BaseError
	UserID int
}

func NewUserNotFound(userID int) *ErrUserNotFound {
	return &ErrUserNotFound{
		BaseError: NewBaseError(ErrorTypeUser, KindNotFound, fmt.Sprintf("user not found: %d", userID), nil),
		UserID:    userID,
	}
}

// ErrUsernameTaken is returned when a username is already held by another user
type ErrUsernameTaken struct {
	*BaseError
	Username string
}

func NewUsernameTaken(username string) *ErrUsernameTaken {
	return &ErrUsernameTaken{
		BaseError: NewBaseError(ErrorTypeUser, KindInvalidArgument, fmt.Sprintf("username already taken: %s", username), nil),
		Username:  username,
	}
}

// Graph Errors

// ErrSelfFollow is returned when a user tries to follow or unfollow themselves
type ErrSelfFollow struct {
	*BaseError
	UserID int
}

func NewSelfFollow(userID int) *ErrSelfFollow {
	return &ErrSelfFollow{
		BaseError: NewBaseError(ErrorTypeGraph, KindInvalidOperation, fmt.Sprintf("user cannot follow themselves: %d", userID), nil),
		UserID:    userID,
	}
}

// ErrEdgeNotFound is returned when unfollowing a user that is not followed
type ErrEdgeNotFound struct {
	*BaseError
	FollowerID int
	FolloweeID int
}

func NewEdgeNotFound(followerID, followeeID int) *ErrEdgeNotFound {
	return &ErrEdgeNotFound{
		BaseError:  NewBaseError(ErrorTypeGraph, KindInvalidOperation, fmt.Sprintf("user %d does not follow user %d", followerID, followeeID), nil),
		FollowerID: followerID,
		FolloweeID: followeeID,
	}
}

// ErrGraphUnavailable is returned when the graph store cannot serve a query
type ErrGraphUnavailable struct {
	*BaseError
	Operation string
}

func NewGraphUnavailable(operation string, err error) *ErrGraphUnavailable {
	return &ErrGraphUnavailable{
		BaseError: NewBaseError(ErrorTypeGraph, KindUnavailable, fmt.Sprintf("graph store unavailable: %s", operation), err),
		Operation: operation,
	}
}

// Notification Errors

// ErrNotificationNotFound is returned when a notification id does not exist
type ErrNotificationNotFound struct {
	*BaseError
	NotificationID int64
}

func NewNotificationNotFound(id int64) *ErrNotificationNotFound {
	return &ErrNotificationNotFound{
		BaseError:      NewBaseError(ErrorTypeNotification, KindNotFound, fmt.Sprintf("notification not found: %d", id), nil),
		NotificationID: id,
	}
}

// ErrNotificationStoreFailed is returned when the notification log cannot serve a query
type ErrNotificationStoreFailed struct {
	*BaseError
	Operation string
}

func NewNotificationStoreFailed(operation string, err error) *ErrNotificationStoreFailed {
	return &ErrNotificationStoreFailed{
		BaseError: NewBaseError(ErrorTypeNotification, KindUnavailable, fmt.Sprintf("notification store failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrNotificationDeliveryFailed is returned by emitters when the single
// delivery attempt fails. Callers log it and move on; it never propagates
// to the client that triggered the emission.
type ErrNotificationDeliveryFailed struct {
	*BaseError
	RecipientID int
}

func NewNotificationDeliveryFailed(recipientID int, err error) *ErrNotificationDeliveryFailed {
	return &ErrNotificationDeliveryFailed{
		BaseError:   NewBaseError(ErrorTypeNotification, KindUnavailable, fmt.Sprintf("failed to deliver notification to user %d", recipientID), err),
		RecipientID: recipientID,
	}
}

// Validation Errors

// ErrMissingField is returned when a required request field is empty
type ErrMissingField struct {
	*BaseError
	Field string
}

func NewMissingField(field string) *ErrMissingField {
	return &ErrMissingField{
		BaseError: NewBaseError(ErrorTypeValidation, KindInvalidArgument, fmt.Sprintf("missing required field: %s", field), nil),
		Field:     field,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, KindInvalidArgument, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type classed interface {
	Class() ErrorKind
}

type domained interface {
	Domain() ErrorType
}

type messaged interface {
	ClientMessage() string
}

// ClientMessage extracts the client-facing message from any error in the
// taxonomy; other errors fall back to a generic string.
func ClientMessage(err error) string {
	var m messaged
	if errors.As(err, &m) {
		return m.ClientMessage()
	}
	return "internal server error"
}

// IsErrorType checks if an error is of a specific domain type
func IsErrorType(err error, errType ErrorType) bool {
	var d domained
	if errors.As(err, &d) {
		return d.Domain() == errType
	}
	return false
}

// IsKind checks if an error belongs to a specific client-facing class
func IsKind(err error, kind ErrorKind) bool {
	var c classed
	if errors.As(err, &c) {
		return c.Class() == kind
	}
	return false
}

// IsNotFound reports whether err refers to an absent user, edge or notification
func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsInvalidOperation reports whether err is an operation that is never valid
// for its arguments (self-follow, unfollow of an absent edge)
func IsInvalidOperation(err error) bool {
	return IsKind(err, KindInvalidOperation)
}

// IsInvalidArgument reports whether err is a malformed-request error
func IsInvalidArgument(err error) bool {
	return IsKind(err, KindInvalidArgument)
}

// IsUnavailable reports whether err means an underlying store failed
func IsUnavailable(err error) bool {
	return IsKind(err, KindUnavailable)
}
