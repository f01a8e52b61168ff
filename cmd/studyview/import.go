package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/studyview/studyview/internal/config"
	"github.com/studyview/studyview/internal/importer"
	"github.com/studyview/studyview/internal/store"
)

const importCommandTimeout = 5 * time.Minute

// runImport performs a one-shot import: a directory scan, the
// configured import command, or both.
func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dir := fs.String("dir", "",
		"Directory to scan (default: configured import dir)")
	runCommand := fs.Bool("run", false,
		"Also run the configured import command")
	saveCommand := fs.String("save-command", "",
		"Store this import command in the config file")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: studyview import [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if *saveCommand != "" {
		if err := cfg.SaveImportCommand(*saveCommand); err != nil {
			log.Fatalf("saving import command: %v", err)
		}
		fmt.Printf("Saved import command: %s\n", *saveCommand)
		cfg.ImportCommand = *saveCommand
	}

	scanDir := *dir
	if scanDir == "" {
		scanDir = cfg.ImportDir
	}
	if scanDir == "" && !*runCommand {
		fmt.Fprintln(os.Stderr,
			"error: no import directory configured; use -dir or -run")
		os.Exit(1)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer st.Close()

	var dirs []string
	if scanDir != "" {
		dirs = append(dirs, scanDir)
	}
	engine := importer.NewEngine(st, dirs, cfg.ImportCommand)

	if scanDir != "" {
		stats := engine.ImportAll()
		fmt.Printf(
			"Scanned %s: %d sessions from %d files (%d skipped, %d invalid lines)\n",
			scanDir, stats.Sessions, stats.FilesImported,
			stats.FilesSkipped, stats.InvalidLines,
		)
	}

	if *runCommand {
		if cfg.ImportCommand == "" {
			fmt.Fprintln(os.Stderr,
				"error: no import command configured; use -save-command first")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(
			context.Background(), importCommandTimeout,
		)
		defer cancel()
		stats, err := engine.RunCommand(ctx)
		if err != nil {
			log.Fatalf("running import command: %v", err)
		}
		fmt.Printf("Command produced %d sessions (%d invalid lines)\n",
			stats.Sessions, stats.InvalidLines)
	}
}
