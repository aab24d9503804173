package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"carbonmarket/config"
	"carbonmarket/core/events"
	"carbonmarket/core/state"
	"carbonmarket/core/types"
	"carbonmarket/native/marketplace"
	"carbonmarket/observability"
	"carbonmarket/observability/logging"
	"carbonmarket/storage"
)

const serviceName = "carbonmkt"

// session bundles the collaborators a single command runs against.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *storage.LevelDB
	state    *state.Manager
	engine   *marketplace.Engine
	recorder *events.Recorder
	registry *prometheus.Registry
}

type commandFunc func(s *session, args []string) (interface{}, error)

type command struct {
	usage     string
	stateless bool
	run       commandFunc
}

var commands = map[string]command{
	"keygen":     {usage: "keygen", stateless: true, run: runKeygen},
	"init":       {usage: "init --caller A", run: runInit},
	"mint":       {usage: "mint --to A --amount N", run: runMint},
	"register":   {usage: "register --owner A --quantity N [--metadata M]", run: runRegister},
	"list":       {usage: "list --market ID --credit ID --price N --caller A", run: runList},
	"deactivate": {usage: "deactivate --listing ID --caller A", run: runDeactivate},
	"listings":   {usage: "listings --market ID", run: runListings},
	"bid":        {usage: "bid --listing ID --amount N --caller A", run: runBid},
	"accept":     {usage: "accept --listing ID --bid ID --credit ID --caller A", run: runAccept},
	"withdraw":   {usage: "withdraw --bid ID --caller A", run: runWithdraw},
	"show":       {usage: "show --kind market|credit|listing|bid --id ID", run: runShow},
	"balance":    {usage: "balance --address A", run: runBalance},
}

var commandOrder = []string{
	"keygen", "init", "mint", "register", "list", "deactivate",
	"listings", "bid", "accept", "withdraw", "show", "balance",
}

type output struct {
	Result interface{}    `json:"result"`
	Events []*types.Event `json:"events,omitempty"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	root.SetOutput(stderr)
	root.Usage = func() { fmt.Fprintln(stderr, usage()) }
	configPath := root.String("config", "./carbonmkt.toml", "path to the TOML or YAML configuration file")
	dataDir := root.String("data-dir", "", "override the configured data directory")
	metricsFile := root.String("metrics-file", "", "write prometheus metrics in text format to this file after the command")
	if err := root.Parse(args); err != nil {
		return 1
	}

	rest := root.Args()
	if len(rest) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", rest[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: load config: %v\n", err)
		return 1
	}
	if trimmed := strings.TrimSpace(*dataDir); trimmed != "" {
		cfg.DataDir = trimmed
	}

	var logOut io.Writer = stderr
	if cfg.LogFile != "" {
		logOut = logging.Output(cfg.LogFile, cfg.LogMaxSizeMB)
		if closer, ok := logOut.(io.Closer); ok {
			defer closer.Close()
		}
	}
	logger := logging.Setup(serviceName, cfg.Environment, logOut).With("network", cfg.NetworkName, "command", rest[0])

	s := &session{cfg: cfg, logger: logger}
	if !cmd.stateless {
		if err := s.open(); err != nil {
			logger.Error("open state failed", "error", err)
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer s.close()
	}

	result, err := cmd.run(s, rest[1:])
	if err != nil {
		if s.state != nil {
			s.state.Discard()
		}
		logger.Error("command failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if s.state != nil {
		if err := s.state.Commit(); err != nil {
			logger.Error("commit failed", "error", err)
			fmt.Fprintf(stderr, "Error: commit: %v\n", err)
			return 1
		}
	}

	out := output{Result: result}
	if s.recorder != nil {
		out.Events = s.recorder.Records()
	}
	if err := printJSON(stdout, out); err != nil {
		fmt.Fprintf(stderr, "Error: print response: %v\n", err)
		return 1
	}
	if path := strings.TrimSpace(*metricsFile); path != "" && s.registry != nil {
		if err := prometheus.WriteToTextfile(path, s.registry); err != nil {
			logger.Warn("write metrics failed", "error", err, "path", path)
		}
	}
	for _, record := range out.Events {
		logger.Info("event emitted", append([]any{"type", record.Type}, logging.EventAttrs(record.Attributes)...)...)
	}
	logger.Info("command completed", "events", len(out.Events))
	return 0
}

func (s *session) open() error {
	db, err := storage.NewLevelDB(filepath.Join(s.cfg.DataDir, "state"))
	if err != nil {
		return fmt.Errorf("open leveldb: %w", err)
	}
	s.db = db
	s.state = state.NewManager(db)
	s.recorder = &events.Recorder{}
	s.registry = prometheus.NewRegistry()
	metrics, err := observability.NewMarketMetrics(s.cfg.MetricsNamespace, s.registry)
	if err != nil {
		db.Close()
		return fmt.Errorf("register metrics: %w", err)
	}

	s.engine = marketplace.NewEngine()
	s.engine.SetState(s.state)
	s.engine.SetPauses(s.cfg.Pauses.PauseView())
	s.engine.SetEmitter(events.Multi{s.recorder, metrics})
	return nil
}

func (s *session) close() {
	if s.db != nil {
		s.db.Close()
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func usage() string {
	var b strings.Builder
	b.WriteString("carbonmkt usage:\n  carbonmkt [--config PATH] [--data-dir DIR] [--metrics-file PATH] <command> [options]\n\nCommands:\n")
	for _, name := range commandOrder {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	return strings.TrimRight(b.String(), "\n")
}
