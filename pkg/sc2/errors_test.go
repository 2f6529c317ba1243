package sc2

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aiseeq/s2l/protocol/api"
	"github.com/stretchr/testify/require"
)

func Test_WasInGame(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			want: false,
		},
		{
			name: "connection lost mid-game",
			err:  &ConnectionError{Op: "observation", Status: api.Status_in_game, Err: io.EOF},
			want: true,
		},
		{
			name: "wrapped protocol error mid-game",
			err:  fmt.Errorf("observe: %w", &ProtocolError{Op: "observation", Status: api.Status_in_game, Errors: []string{"x"}}),
			want: true,
		},
		{
			name: "request rejected before the game",
			err:  &RequestError{Op: "join_game", Status: api.Status_init_game, Code: "MissingParticipation"},
			want: false,
		},
		{
			name: "connection lost after the game ended",
			err:  &ConnectionError{Op: "save_replay", Status: api.Status_ended, Err: io.EOF},
			want: false,
		},
		{
			name: "foreign error mentioning the status",
			err:  errors.New("Status.in_game -> Status.ended"),
			want: true,
		},
		{
			name: "foreign error",
			err:  errors.New("broken pipe"),
			want: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, WasInGame(tt.err))
		})
	}
}

func Test_errorStrings(t *testing.T) {
	t.Parallel()
	err := &ConnectionError{Op: "observation", Status: api.Status_in_game, Err: io.EOF}
	require.Contains(t, err.Error(), "in_game")
	require.ErrorIs(t, err, io.EOF)

	pe := &ProtocolError{Op: "step", Status: api.Status_ended, Errors: []string{"a", "b"}}
	require.Contains(t, pe.Error(), "a; b")

	require.False(t, IsClientError(errors.New("other")))
	require.True(t, IsClientError(fmt.Errorf("wrapped: %w", pe)))
}
