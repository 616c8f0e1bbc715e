// Command fintrack-cli edits and inspects the ledger from a terminal using
// the same configuration as the server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const usage = `usage: fintrack-cli <command> [flags]

commands:
  add -type Income|Expense -description TEXT -amount N [-date YYYY-MM-DD]
  rm INDEX
  list [-date YYYY-MM-DD]
  summary [-date YYYY-MM-DD]
`

var errUsage = errors.New("usage")

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(envOr("LOG_LEVEL", "warn")).WithComponent(log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	l, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	publisher, closePublisher := cli.NewPublisher(logger, cfg)
	svc := cli.NewService(logger, l, publisher, closePublisher)

	err = run(ctx, svc, os.Args[1:], os.Stdout, os.Stderr)
	if cerr := svc.Close(); cerr != nil {
		logger.Error("Cleanup failed", log.FieldError, cerr)
	}
	switch {
	case errors.Is(err, errUsage):
		os.Exit(2)
	case err != nil:
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.TransactionService, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	switch cmd {
	case "add":
		txType := fs.String("type", "", "Income or Expense")
		desc := fs.String("description", "", "description")
		amount := fs.String("amount", "", "amount")
		date := fs.String("date", "", "date (YYYY-MM-DD)")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		entry, err := svc.Add(ctx, core.Transaction{
			Type:        core.TransactionType(*txType),
			Description: *desc,
			Amount:      core.Amount(*amount),
			Date:        *date,
		})
		if core.IsSubmissionError(err) {
			fmt.Fprintf(stderr, "%v\n%s", err, usage)
			return errUsage
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "added #%d\n", entry.Index)
		return nil

	case "rm":
		if err := fs.Parse(rest); err != nil || fs.NArg() != 1 {
			fmt.Fprint(stderr, usage)
			return errUsage
		}
		index, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(stderr, "index must be an integer: %q\n", fs.Arg(0))
			return errUsage
		}
		before := svc.Store().Len()
		if err := svc.Remove(ctx, index); err != nil {
			return err
		}
		if svc.Store().Len() == before {
			fmt.Fprintf(stdout, "no transaction at #%d\n", index)
			return nil
		}
		fmt.Fprintf(stdout, "removed #%d\n", index)
		return nil

	case "list":
		date := fs.String("date", "", "only show this date")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTYPE\tDESCRIPTION\tAMOUNT\tDATE")
		for _, e := range svc.List(*date) {
			tx := e.Transaction
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Index, tx.Type, tx.Description, tx.Amount, tx.Date)
		}
		return tw.Flush()

	case "summary":
		date := fs.String("date", "", "only count this date")
		if err := fs.Parse(rest); err != nil {
			return errUsage
		}
		t := svc.Summary(*date)
		fmt.Fprintf(stdout, "Total Income: %s\nTotal Expense: %s\nBalance: %s\n",
			core.FormatMoney(t.Income), core.FormatMoney(t.Expense), core.FormatMoney(t.Balance))
		return nil

	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return errUsage
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
