package sc2

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func Test_LauncherConfigFromEnv(t *testing.T) {
	t.Setenv("SC2PATH", "/opt/StarCraftII")
	t.Setenv("SC2_PORT", "5678")
	t.Setenv("SC2_CONNECT_TIMEOUT", "30s")
	t.Setenv("SC2_EXTRA_ARGS", "-verbose -eglpath libEGL.so")

	cfg, err := LauncherConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, LauncherConfig{
		Path:           "/opt/StarCraftII",
		ListenHost:     "127.0.0.1",
		Port:           5678,
		ConnectTimeout: 30 * time.Second,
		ExtraArgs:      []string{"-verbose", "-eglpath", "libEGL.so"},
	}, cfg)
}

func Test_ProcessLauncher_args(t *testing.T) {
	t.Parallel()
	l := NewProcessLauncher(LauncherConfig{
		ListenHost: "127.0.0.1",
		DataDir:    "/data",
		ExtraArgs:  []string{"-verbose"},
	}, logrus.NewEntry(logrus.New()))

	require.Equal(t, []string{
		"-listen", "127.0.0.1",
		"-port", "5000",
		"-displayMode", "1",
		"-dataDir", "/data",
		"-verbose",
	}, l.args(5000, true))

	require.Equal(t, []string{
		"-listen", "127.0.0.1",
		"-port", "5000",
		"-displayMode", "0",
		"-dataDir", "/data",
		"-verbose",
	}, l.args(5000, false))
}

func Test_ProcessLauncher_executable(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	for _, v := range []string{"Base75689", "Base81009"} {
		exe := filepath.Join(dir, "Versions", v, binaryName(runtime.GOOS))
		require.NoError(t, os.MkdirAll(filepath.Dir(exe), 0o755))
		require.NoError(t, os.WriteFile(exe, nil, 0o755))
	}

	l := NewProcessLauncher(LauncherConfig{Path: dir}, logrus.NewEntry(logrus.New()))
	exe, err := l.executable()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "Versions", "Base81009", binaryName(runtime.GOOS)), exe)

	l = NewProcessLauncher(LauncherConfig{Path: t.TempDir()}, logrus.NewEntry(logrus.New()))
	_, err = l.executable()
	require.ErrorIs(t, err, ErrExecutableNotFound)

	l = NewProcessLauncher(LauncherConfig{}, logrus.NewEntry(logrus.New()))
	_, err = l.executable()
	require.ErrorIs(t, err, ErrExecutableNotFound)

	l = NewProcessLauncher(LauncherConfig{Executable: "/usr/bin/sc2"}, logrus.NewEntry(logrus.New()))
	exe, err = l.executable()
	require.NoError(t, err)
	require.Equal(t, "/usr/bin/sc2", exe)
}

func Test_ProcessLauncher_exitsEarly(t *testing.T) {
	t.Parallel()
	exe, err := exec.LookPath("false")
	if err != nil {
		t.Skip("false not available")
	}

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	l := NewProcessLauncher(LauncherConfig{
		Executable:     exe,
		ListenHost:     "127.0.0.1",
		ConnectTimeout: 10 * time.Second,
	}, logrus.NewEntry(logger))

	_, err = l.Launch(context.Background(), false)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrProcessExited))

	var dialErrors int
	for _, e := range hook.AllEntries() {
		if e.Message != "game not accepting connections yet" {
			continue
		}

		dialErrors++
		require.IsType(t, "", e.Data["error"])
		require.NotEmpty(t, e.Data["error"])
	}
	require.NotZero(t, dialErrors)
}

func Test_binaryName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "SC2_x64.exe", binaryName("windows"))
	require.Equal(t, "SC2_x64", binaryName("linux"))
	require.Equal(t, filepath.Join("SC2.app", "Contents", "MacOS", "SC2"), binaryName("darwin"))
}
