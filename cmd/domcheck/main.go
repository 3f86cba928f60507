package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/domcheck"
	"github.com/fwojciec/domcheck/check"
	"github.com/fwojciec/domcheck/config"
	dchttp "github.com/fwojciec/domcheck/http"
	"github.com/fwojciec/domcheck/ratelimit"
	"github.com/fwojciec/domcheck/retry"
	"github.com/fwojciec/domcheck/shape"
	dcslog "github.com/fwojciec/domcheck/slog"
	"github.com/fwojciec/domcheck/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// slowWait is the rate limiter wait above which a line is logged.
const slowWait = time.Second

// Main represents the program.
type Main struct {
	// Loader reads provider configuration. Set before calling Run().
	Loader *config.Loader

	// SQLite database used for run history, if --db is given.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Loader: &config.Loader{},
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("domcheck"),
		kong.Description("Batch domain availability checker"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'domcheck --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if cli.DB != "" {
		m.DB = sqlite.NewDB(cli.DB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "Hint: Set DOMCHECK_DB to use a different database path\n")
			return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
		}
		defer m.Close()
		deps.Results = sqlite.NewResultService(m.DB)
	}

	if strings.HasPrefix(kongCtx.Command(), "check") && !cli.Check.DryRun {
		loader := *m.Loader
		loader.Logger = deps.Logger
		cfg, err := loader.Load(cli.Config)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", domcheck.ErrorMessage(err))
			return err
		}

		client, err := wireChecker(deps, cfg)
		if err != nil {
			fmt.Fprintf(stderr, "error: %s\n", domcheck.ErrorMessage(err))
			return err
		}
		defer client.Close()
	}

	return kongCtx.Run(deps)
}

// wireChecker builds the checker described by cfg into deps and returns
// the HTTP client so the caller can release it.
func wireChecker(deps *Dependencies, cfg *config.Config) (*dchttp.Client, error) {
	endpoint := cfg.Endpoint()
	client, err := dchttp.NewClient(endpoint, cfg.APIKey, cfg.APIHost,
		dchttp.WithTimeout(cfg.RequestTimeout()),
		dchttp.WithMethod(cfg.Method),
		dchttp.WithBody(dchttp.BodyFormat(cfg.Body)),
		dchttp.WithHeaderNames(cfg.KeyHeader, cfg.HostHeader),
	)
	if err != nil {
		return nil, err
	}

	window, err := ratelimit.NewWindow(cfg.RateLimitPerMinute, cfg.RatePeriod())
	if err != nil {
		return nil, err
	}
	// The window goes last so it records departure times.
	var limiter domcheck.Limiter = ratelimit.Chain{ratelimit.NewPacer(cfg.MinInterval()), window}

	parser, err := shape.NewParser(cfg.ResponseShapes...)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	policy := retry.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Base:        cfg.BackoffBase(),
		Factor:      cfg.BackoffFactor,
		Cap:         cfg.BackoffCap(),
		Jitter:      cfg.Jitter,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("retrying", "attempt", attempt, "delay", delay, "err", domcheck.ErrorMessage(err))
		},
	}

	deps.Checker = dcslog.NewLoggingChecker(&check.Checker{
		Client:  dcslog.NewLoggingClient(client, logger),
		Limiter: dcslog.NewLoggingLimiter(limiter, logger, slowWait),
		Parser:  parser,
		Retry:   policy,
	}, logger)

	shapes, err := json.Marshal(cfg.ResponseShapes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response shapes: %w", err)
	}
	deps.Fingerprint = check.Fingerprint(endpoint, strings.ToUpper(cfg.Method), cfg.Body, string(shapes))

	return client, nil
}
