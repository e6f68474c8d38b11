package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/FACorreiaa/statement-tracker/cmd/statements/app"
	"github.com/FACorreiaa/statement-tracker/pkg/config"
)

// errUsage marks errors already reported together with command usage.
var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app.App, out io.Writer, args []string) error
}

var commands = []command{
	{"import", "Import one or more bank statement PDFs", runImport},
	{"list", "List stored transactions", runList},
	{"summary", "Show expenses by category", runSummary},
	{"top", "Show the largest expenses or merchants", runTop},
	{"categories", "List categories and rule order", runCategories},
	{"export", "Export transactions to CSV or XLSX", runExport},
	{"migrate", "Re-apply category rules to Transfers and Other", runMigrate},
	{"serve-cron", "Run scheduled category migration and expose metrics", runServeCron},
	{"clear", "Delete all stored transactions", runClear},
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(os.Stdout)
		return
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err := run(*cmd, os.Args[2:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(cmd command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return cmd.run(ctx, a, os.Stdout, args)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Statement Tracker")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  statements <command> [options]")
	fmt.Fprintln(w, "\nCommands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-11s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w, "  help        Show this help message")
	fmt.Fprintln(w, "\nRun 'statements <command> -h' for more information on a command.")
}
