package sc2

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aiseeq/s2l/protocol/api"
)

type (
	// ConnectionError is returned when the connection to the game fails.
	ConnectionError struct {
		// Op is the request being made
		Op string

		// Status is the game status before the request was made
		Status api.Status

		Err error
	}

	// ProtocolError is returned when the game's response is malformed or
	// reports errors.
	ProtocolError struct {
		Op     string
		Status api.Status

		// Errors are the error messages reported by the game, if any
		Errors []string

		Err error
	}

	// RequestError is returned when the game rejects a request.
	RequestError struct {
		Op     string
		Status api.Status

		// Code is the name of the request specific error
		Code string

		// Details is the free text explanation supplied by the game
		Details string
	}

	// statusError is implemented by errors which know the game status at the
	// time of the failure.
	statusError interface {
		error
		InGame() bool
	}
)

// inGameText is the status text which marks an error raised mid-game.
const inGameText = "in_game"

// Error returns the error string.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection error (status %s): %v", e.Op, e.Status, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// InGame reports whether the game was running when the connection failed.
func (e *ConnectionError) InGame() bool {
	return e.Status == api.Status_in_game
}

// Error returns the error string.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: protocol error (status %s): %v", e.Op, e.Status, e.Err)
	}

	return fmt.Sprintf("%s: protocol error (status %s): %s", e.Op, e.Status, strings.Join(e.Errors, "; "))
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// InGame reports whether the game was running when the error occurred.
func (e *ProtocolError) InGame() bool {
	return e.Status == api.Status_in_game
}

// Error returns the error string.
func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: request error (status %s): %s: %s", e.Op, e.Status, e.Code, e.Details)
}

// InGame reports whether the game was running when the request failed.
func (e *RequestError) InGame() bool {
	return e.Status == api.Status_in_game
}

// IsClientError reports whether err originates from talking to the game.
func IsClientError(err error) bool {
	var (
		ce *ConnectionError
		pe *ProtocolError
		re *RequestError
	)

	return errors.As(err, &ce) || errors.As(err, &pe) || errors.As(err, &re)
}

// WasInGame reports whether err was raised while the game was running. Errors
// from this package carry the status; other errors are judged by their text.
func WasInGame(err error) bool {
	if err == nil {
		return false
	}

	var se statusError
	if errors.As(err, &se) {
		return se.InGame()
	}

	return strings.Contains(err.Error(), inGameText)
}
