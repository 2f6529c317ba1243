package proto

import (
	"bytes"
	"reflect"
)

type (
	// QueryResponder represents an interface to a concrete type which responds
	// to query requests.
	QueryResponder interface {
		Respond(clientAddress string, buf []byte) ([]byte, error)
	}

	// WireEncoder is an interface which allows for different query implementations
	// to write data to a byte buffer in a specific format.
	WireEncoder interface {
		WriteString(resp *bytes.Buffer, s string) error
		Write(resp *bytes.Buffer, v interface{}) error
	}

	// QueryState represents the state of a hosted match as reported to
	// queries.
	QueryState struct {
		// CurrentPlayers is the number of players identified so far
		CurrentPlayers int32

		// MaxPlayers is the number of players the match expects
		MaxPlayers int32

		// ServerName is the name of the match configuration
		ServerName string

		// GameType is the game being hosted
		GameType string

		// Phase is the lifecycle phase of the match, e.g. running
		Phase string

		// Map is the name of the map being played
		Map string

		// Port is the game port of the hosting server
		Port uint16
	}

	// StateSource provides a consistent snapshot of the current query state.
	StateSource interface {
		QueryState() QueryState
	}
)

// Description returns the game type qualified by the current phase.
func (qs QueryState) Description() string {
	if qs.Phase == "" {
		return qs.GameType
	}

	if qs.GameType == "" {
		return qs.Phase
	}

	return qs.GameType + " - " + qs.Phase
}

// WireWrite writes the provided data to resp with the provided WireEncoder w.
func WireWrite(resp *bytes.Buffer, w WireEncoder, data interface{}) error {
	t := reflect.TypeOf(data)
	vs := reflect.Indirect(reflect.ValueOf(data))
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		v := vs.FieldByName(f.Name)

		// Dereference pointer
		if f.Type.Kind() == reflect.Ptr {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Struct:
			if err := WireWrite(resp, w, v.Interface()); err != nil {
				return err
			}

		case reflect.String:
			if err := w.WriteString(resp, v.String()); err != nil {
				return err
			}

		default:
			if err := w.Write(resp, v.Interface()); err != nil {
				return err
			}
		}
	}

	return nil
}
