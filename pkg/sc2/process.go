package sc2

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

const (
	// dialInterval is the time between attempts to connect to a starting game.
	dialInterval = time.Second

	// quitTimeout bounds the quit request sent before killing the process.
	quitTimeout = 2 * time.Second
)

var (
	ErrExecutableNotFound = errors.New("game executable not found")
	ErrProcessExited      = errors.New("game process exited before accepting connections")
)

type (
	// LauncherConfig holds configuration used to start game processes.
	LauncherConfig struct {
		// Path is the game installation directory
		Path string `env:"SC2PATH"`

		// Executable overrides the game binary discovered under Path
		Executable string `env:"SC2_EXECUTABLE"`

		// ListenHost is the address the game API listens on
		ListenHost string `env:"SC2_LISTEN_HOST" envDefault:"127.0.0.1"`

		// Port is the port the game API listens on; 0 picks a free port
		Port int `env:"SC2_PORT" envDefault:"0"`

		// DataDir and TempDir are passed to the game when set
		DataDir string `env:"SC2_DATA_DIR"`
		TempDir string `env:"SC2_TEMP_DIR"`

		// ConnectTimeout bounds how long the game may take to accept a
		// connection after starting
		ConnectTimeout time.Duration `env:"SC2_CONNECT_TIMEOUT" envDefault:"2m"`

		// ExtraArgs are appended to the game's command line
		ExtraArgs []string `env:"SC2_EXTRA_ARGS" envSeparator:" "`
	}

	// ProcessLauncher launches local game processes.
	ProcessLauncher struct {
		cfg    LauncherConfig
		logger *logrus.Entry
	}

	// Process is a running game process and the connection to its API.
	Process struct {
		*Conn

		cmd    *exec.Cmd
		logger *logrus.Entry

		// exited is closed once the process has been reaped
		exited chan struct{}

		// waitErr is the result of waiting for the process
		waitErr error

		quitOnce sync.Once
		quitErr  error
	}
)

// LauncherConfigFromEnv loads launcher configuration from the environment.
func LauncherConfigFromEnv() (LauncherConfig, error) {
	cfg := LauncherConfig{}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to load launcher config from env: %w", err)
	}

	return cfg, nil
}

// NewProcessLauncher creates a launcher starting games as configured by cfg.
func NewProcessLauncher(cfg LauncherConfig, logger *logrus.Entry) *ProcessLauncher {
	return &ProcessLauncher{
		cfg:    cfg,
		logger: logger,
	}
}

// Launch starts a game process and connects to it.
func (l *ProcessLauncher) Launch(ctx context.Context, fullscreen bool) (Controller, error) {
	exe, err := l.executable()
	if err != nil {
		return nil, err
	}

	port := l.cfg.Port
	if port == 0 {
		if port, err = freePort(l.cfg.ListenHost); err != nil {
			return nil, fmt.Errorf("error picking port: %w", err)
		}
	}

	cmd := exec.Command(exe, l.args(port, fullscreen)...)
	if dir := l.workingDir(); dir != "" {
		cmd.Dir = dir
	}

	logger := l.logger.
		WithField("executable", exe).
		WithField("port", port)

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting game: %w", err)
	}

	p := &Process{
		cmd:    cmd,
		logger: logger.WithField("pid", cmd.Process.Pid),
		exited: make(chan struct{}),
	}

	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	p.logger.Debug("game process started")

	if p.Conn, err = p.dial(ctx, net.JoinHostPort(l.cfg.ListenHost, strconv.Itoa(port)), l.cfg.ConnectTimeout); err != nil {
		if qerr := p.Quit(); qerr != nil {
			p.logger.
				WithField("error", qerr.Error()).
				Warning("error terminating game process")
		}

		return nil, err
	}

	p.logger.
		WithField("status", p.Status().String()).
		Info("connected to game")

	return p, nil
}

// dial connects to the game API, retrying until timeout or until the process
// exits.
func (p *Process) dial(ctx context.Context, address string, timeout time.Duration) (*Conn, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	t := time.NewTicker(dialInterval)
	defer t.Stop()

	for {
		c, err := Dial(ctx, address)
		if err == nil {
			return c, nil
		}

		p.logger.
			WithField("error", err.Error()).
			Debug("game not accepting connections yet")

		select {
		case <-p.exited:
			return nil, fmt.Errorf("%w: %v", ErrProcessExited, p.waitErr)
		case <-ctx.Done():
			return nil, fmt.Errorf("error connecting to game: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// Quit asks the game to exit, then kills and reaps the process.
func (p *Process) Quit() error {
	p.quitOnce.Do(func() {
		var result *multierror.Error

		if p.Conn != nil {
			ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
			if err := p.Conn.RequestQuit(ctx); err != nil {
				p.logger.
					WithField("error", err.Error()).
					Debug("quit request failed")
			}
			cancel()

			if err := p.Conn.Close(); err != nil {
				result = multierror.Append(result, fmt.Errorf("error closing connection: %w", err))
			}
		}

		select {
		case <-p.exited:
		default:
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				result = multierror.Append(result, fmt.Errorf("error killing game: %w", err))
			}
			<-p.exited
		}

		p.logger.Debug("game process terminated")
		p.quitErr = result.ErrorOrNil()
	})

	return p.quitErr
}

// executable returns the game binary to run.
func (l *ProcessLauncher) executable() (string, error) {
	if l.cfg.Executable != "" {
		return l.cfg.Executable, nil
	}

	if l.cfg.Path == "" {
		return "", fmt.Errorf("%w: neither SC2PATH nor SC2_EXECUTABLE set", ErrExecutableNotFound)
	}

	// Newest build last.
	versions, err := filepath.Glob(filepath.Join(l.cfg.Path, "Versions", "Base*"))
	if err != nil {
		return "", err
	}

	sort.Strings(versions)

	for i := len(versions) - 1; i >= 0; i-- {
		exe := filepath.Join(versions[i], binaryName(runtime.GOOS))
		if _, err := os.Stat(exe); err == nil {
			return exe, nil
		}
	}

	return "", fmt.Errorf("%w: under %s", ErrExecutableNotFound, l.cfg.Path)
}

// workingDir returns the directory the game must be started from, if any.
func (l *ProcessLauncher) workingDir() string {
	if l.cfg.Path == "" {
		return ""
	}

	dir := filepath.Join(l.cfg.Path, "Support64")
	if _, err := os.Stat(dir); err != nil {
		return ""
	}

	return dir
}

// args returns the game's command line.
func (l *ProcessLauncher) args(port int, fullscreen bool) []string {
	displayMode := "0"
	if fullscreen {
		displayMode = "1"
	}

	args := []string{
		"-listen", l.cfg.ListenHost,
		"-port", strconv.Itoa(port),
		"-displayMode", displayMode,
	}

	if l.cfg.DataDir != "" {
		args = append(args, "-dataDir", l.cfg.DataDir)
	}

	if l.cfg.TempDir != "" {
		args = append(args, "-tempDir", l.cfg.TempDir)
	}

	return append(args, l.cfg.ExtraArgs...)
}

// binaryName returns the name of the game binary within a version directory.
func binaryName(goos string) string {
	switch goos {
	case "windows":
		return "SC2_x64.exe"
	case "darwin":
		return filepath.Join("SC2.app", "Contents", "MacOS", "SC2")
	default:
		return "SC2_x64"
	}
}

// freePort returns a TCP port which is currently free on host.
func freePort(host string) (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}

	defer ln.Close()

	return ln.Addr().(*net.TCPAddr).Port, nil
}
