// Package main is the entry point for esdump, a debugging tool that
// decodes application/vnd.amazon.eventstream frames from a file or stdin
// and prints their headers and payloads.
package main

import (
	"context"
	"os"

	"charm.land/fang/v2"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel    string
	showPayload bool
)

var rootCmd = &cobra.Command{
	Use:   "esdump [file]",
	Short: "Decode and print event stream frames",
	Long: `Decode application/vnd.amazon.eventstream frames from a file (or stdin
when no file is given) and print each frame's headers and payload.
Both checksums are verified; a corrupt frame stops the dump.`,
	Args: cobra.MaximumNArgs(1),
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging()
	},
	RunE: runDump,
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&showPayload, "payload", true,
		"print frame payloads")
}

func main() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
