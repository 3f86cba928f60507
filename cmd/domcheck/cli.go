package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/domcheck"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Checker domcheck.Checker

	// Results is nil unless a history database is configured.
	Results     domcheck.ResultService
	Fingerprint string
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Config  string `short:"c" type:"path" env:"DOMCHECK_CONFIG" help:"YAML configuration file"`
	DB      string `name:"db" type:"path" env:"DOMCHECK_DB" help:"SQLite database for run history"`

	Check   CheckCmd   `cmd:"" help:"Check availability of domains listed one per line"`
	History HistoryCmd `cmd:"" help:"List recent runs stored in the history database"`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	Input    string        `short:"i" required:"" help:"File with one domain per line, '-' for stdin"`
	Output   string        `short:"o" default:"-" help:"CSV output path, '-' for stdout"`
	DryRun   bool          `help:"Count input domains without calling the API"`
	Unique   bool          `short:"u" help:"Skip repeated domains"`
	NoHeader bool          `help:"Omit the CSV header row"`
	Status   bool          `help:"Add http_status and attempts columns"`
	Reuse    time.Duration `help:"Reuse stored verdicts younger than this (requires --db)"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of runs to show"`
}
