package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/internal/agent"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/internal/report"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/config"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/game"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/replay"
	"github.com/Unity-Technologies/multiplay-examples/sc2-match-host/pkg/sc2"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type options struct {
	config    string
	log       string
	logLevel  string
	timeout   time.Duration
	debug     bool
	queryPort uint
	query     string
	report    string
	replay    string
	env       string
}

// parseFlags parses the supported flags and returns the values supplied to these flags.
func parseFlags(args []string) (opts options, err error) {
	dir, _ := os.UserHomeDir()
	f := flag.FlagSet{}

	f.StringVar(&opts.config, "config", filepath.Join(dir, "match.json"), "path to the match config file to use")
	f.StringVar(&opts.log, "log", "", "path to the log file to write to")
	f.StringVar(&opts.logLevel, "loglevel", "info", "log level for the logger")
	f.DurationVar(&opts.timeout, "timeout", game.DefaultLobbyTimeout, "how long to wait for players to join")
	f.BoolVar(&opts.debug, "debug", false, "log match lifecycle changes at info level")
	f.UintVar(&opts.queryPort, "queryport", 0, "port for the query endpoint to bind to, 0 disables it")
	f.StringVar(&opts.query, "query", game.QueryProtocolSQP, "query protocol to answer with: sqp or a2s")
	f.StringVar(&opts.report, "report", "", "URL to post the match result to")
	f.StringVar(&opts.replay, "replay", "", "path to write the match replay to")
	f.StringVar(&opts.env, "env", "", "path to a .env file to load")
	err = f.Parse(args)

	return
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		logger.WithError(err).Fatal("error parsing flags")
	}

	ll, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		logger.WithError(err).Error("Couldn't parse log level, defaulting to info")
		ll = logrus.InfoLevel
	}

	logger.SetLevel(ll)

	if opts.log != "" {
		logFile, err := os.OpenFile(opts.log, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err == nil {
			defer logFile.Close()
			logger.Out = logFile
		} else {
			logger.WithError(err).Warning("could not open log file for writing")
		}
	}

	if opts.env != "" {
		if err = godotenv.Load(opts.env); err != nil {
			logger.WithError(err).Warning("could not load env file")
		}
	}

	// SIGINT and SIGTERM interrupt the match, which the host surrenders.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, logrus.NewEntry(logger), opts, os.Stdout); err != nil {
		logger.WithError(err).Error("error hosting match")
		stop()
		os.Exit(1)
	}
}

// run hosts the configured match and writes its result to out.
func run(ctx context.Context, logger *logrus.Entry, opts options, out io.Writer) error {
	cfg, err := config.NewConfigFromFile(opts.config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	lc, err := sc2.LauncherConfigFromEnv()
	if err != nil {
		return err
	}

	logger = logger.WithField("match_id", cfg.EnsureMatchID())

	g, err := game.New(logger, sc2.NewProcessLauncher(lc, logger), game.Settings{
		LobbyTimeout:  opts.timeout,
		Debug:         opts.debug,
		QueryBind:     queryBind(opts.queryPort),
		QueryProtocol: opts.query,
	})
	if err != nil {
		return fmt.Errorf("error creating game host: %w", err)
	}

	res, replayText, err := g.Host(ctx, cfg, agent.NewObserver(logger, cfg.Path()))
	if err != nil {
		return err
	}

	logger.
		WithField("result", res.String()).
		Info("match finished")

	if opts.replay != "" && replayText != "" {
		if err = writeReplay(opts.replay, replayText); err != nil {
			logger.WithError(err).Error("error writing replay")
		}
	}

	rep := report.NewReport(cfg, res, replayText)

	if opts.report != "" {
		// The match is over, so the report is sent even if it was interrupted.
		if err = report.New(opts.report, logger).Send(context.Background(), rep); err != nil {
			logger.WithError(err).Error("error reporting match")
		}
	}

	// Replays are written to file or reported, never printed.
	rep.Replay = ""

	return json.NewEncoder(out).Encode(rep)
}

// queryBind returns the address the query endpoint binds to, or an empty
// string when it is disabled.
func queryBind(port uint) string {
	if port == 0 {
		return ""
	}

	return fmt.Sprintf(":%d", port)
}

// writeReplay decodes replayText and writes the replay to path.
func writeReplay(path, replayText string) error {
	data, err := replay.Decode(replayText)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
