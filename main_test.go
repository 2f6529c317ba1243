package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/replay"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func Test_parseFlags(t *testing.T) {
	t.Parallel()
	opts, err := parseFlags([]string{
		"-config", "my-config.json",
		"-log", "/tmp/host.log",
		"-loglevel", "debug",
		"-timeout", "5s",
		"-debug",
		"-queryport", "9001",
		"-query", "a2s",
		"-report", "http://results.local/matches",
		"-replay", "/tmp/match.SC2Replay",
		"-env", ".env",
	})

	require.NoError(t, err)
	require.Equal(t, options{
		config:    "my-config.json",
		log:       "/tmp/host.log",
		logLevel:  "debug",
		timeout:   5 * time.Second,
		debug:     true,
		queryPort: 9001,
		query:     "a2s",
		report:    "http://results.local/matches",
		replay:    "/tmp/match.SC2Replay",
		env:       ".env",
	}, opts)
}

func Test_parseFlags_defaults(t *testing.T) {
	t.Parallel()
	opts, err := parseFlags(nil)

	require.NoError(t, err)
	require.Equal(t, "match.json", filepath.Base(opts.config))
	require.Equal(t, "info", opts.logLevel)
	require.Equal(t, 2*time.Minute, opts.timeout)
	require.Equal(t, "sqp", opts.query)
	require.Zero(t, opts.queryPort)
	require.False(t, opts.debug)

	_, err = parseFlags([]string{"-timeout", "soon"})
	require.Error(t, err)
}

func Test_queryBind(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", queryBind(0))
	require.Equal(t, ":7787", queryBind(7787))
}

func Test_writeReplay(t *testing.T) {
	t.Parallel()
	p := filepath.Join(t.TempDir(), "match.SC2Replay")

	require.NoError(t, writeReplay(p, replay.Encode([]byte("replay-bytes"))))

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, []byte("replay-bytes"), data)

	require.Error(t, writeReplay(p, "not base64!"))
}

func Test_run_missingConfig(t *testing.T) {
	t.Parallel()
	out := &bytes.Buffer{}
	err := run(
		context.Background(),
		logrus.NewEntry(logrus.New()),
		options{config: filepath.Join(t.TempDir(), "missing.json")},
		out,
	)

	require.Error(t, err)
	require.Empty(t, out.String())
}
