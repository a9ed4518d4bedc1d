// Command facturas extracts billing data from energy invoice PDFs, exports
// it and optionally reconciles it against the billing database.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pyhub-apps/factura-energia-golang/pkg/config"
)

const usage = `Usage: facturas <command> [flags] <path>

Commands:
  convert    write the flattened layout of a PDF as CSV
  extract    extract the fields and components of one invoice
  batch      process every PDF under a directory and export the results
  inspect    validate a PDF and print its metadata

Configuration is read from the environment and from .env (FACTURAS_*,
POSTGRES_*). Run "facturas <command> -h" for the command flags.
`

// errAllFailed makes the process exit with a non-zero status after the
// report has been written
var errAllFailed = errors.New("every document failed")

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "facturas: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		stop()
		if !errors.Is(err, errAllFailed) {
			logger.Error("command failed", "command", os.Args[1], "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string, args []string, stdout io.Writer) error {
	switch command {
	case "convert":
		return runConvert(ctx, cfg, logger, args, stdout)
	case "extract":
		return runExtract(ctx, cfg, logger, args, stdout)
	case "batch":
		return runBatch(ctx, cfg, logger, args, stdout)
	case "inspect":
		return runInspect(args, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
