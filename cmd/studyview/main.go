package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/studyview/studyview/internal/config"
	"github.com/studyview/studyview/internal/importer"
	"github.com/studyview/studyview/internal/report"
	"github.com/studyview/studyview/internal/server"
	"github.com/studyview/studyview/internal/store"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	periodicImportInterval = 15 * time.Minute
	watcherDebounce        = 500 * time.Millisecond
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "import":
			runImport(os.Args[2:])
			return
		case "prune":
			runPrune(os.Args[2:])
			return
		case "update":
			runUpdate(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("studyview %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`studyview %s - local study analytics server

Imports study session records from JSONL files into SQLite and
serves weekly reports, monthly trends, productivity metrics, and
goal progress over a local REST API.

Usage:
  studyview [flags]          Start the server (default command)
  studyview serve [flags]    Start the server (explicit)
  studyview import [flags]   Run a one-shot import and exit
  studyview prune [flags]    Delete sessions matching filters
  studyview update [flags]   Check for a newer release
  studyview version          Show version information
  studyview help             Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8931)
  -import-dir string  Directory of JSONL record files to watch
  -timezone string    Default IANA timezone for reports
  -no-cache           Disable the report cache

Import flags:
  -dir string         Directory to scan (default: configured import dir)
  -run                Also run the configured import command
  -save-command str   Store this import command in the config file

Prune flags:
  -user string        Sessions belonging to this user id
  -subject string     Sessions whose subject contains this substring
  -before string      Sessions started before this date (YYYY-MM-DD)
  -max-minutes int    Sessions of at most N minutes (default -1)
  -dry-run            Show what would be pruned without deleting
  -yes                Skip confirmation prompt

Update flags:
  -force              Force check (ignore cache)

Environment variables:
  STUDYVIEW_DATA_DIR    Data directory (database, config)
  STUDYVIEW_IMPORT_DIR  Record file directory
  STUDYVIEW_PORT        Listen port

Data is stored in ~/.studyview/ by default.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	st := mustOpenStore(cfg)
	defer st.Close()

	reports := newReportService(cfg, st)
	engine := newEngine(cfg, st, reports)
	if engine != nil {
		runInitialImport(engine)

		stopWatcher := startFileWatcher(cfg, engine)
		defer stopWatcher()

		go startPeriodicImport(engine)
	}

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, st, reports, engine,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	fmt.Printf("studyview %s listening at http://%s:%d\n",
		version, cfg.Host, cfg.Port)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("studyview", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: studyview [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg
}

func mustOpenStore(cfg config.Config) *store.Store {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	return st
}

func newReportService(cfg config.Config, st *store.Store) *report.Service {
	source := &report.StoreSource{Store: st}
	opts := []report.Option{report.WithGoalSource(source)}
	if cfg.EnableCache {
		opts = append(opts,
			report.WithCache(report.NewCache(1024)),
			report.WithBaseTTL(cfg.CacheTTL()),
		)
	}
	return report.NewService(source, opts...)
}

// newEngine builds the import engine, or nil when no import
// directory is configured. Finished imports invalidate the cached
// reports of the affected users.
func newEngine(
	cfg config.Config, st *store.Store, reports *report.Service,
) *importer.Engine {
	if cfg.ImportDir == "" && cfg.ImportCommand == "" {
		return nil
	}
	var dirs []string
	if cfg.ImportDir != "" {
		dirs = append(dirs, cfg.ImportDir)
	}
	engine := importer.NewEngine(st, dirs, cfg.ImportCommand)
	engine.OnImported(func(userIDs []string) {
		for _, id := range userIDs {
			reports.InvalidateUser(id)
		}
	})
	return engine
}

func runInitialImport(engine *importer.Engine) {
	fmt.Println("Running initial import...")
	stats := engine.ImportAll()
	fmt.Printf(
		"Import complete: %d sessions from %d files (%d skipped, %d failed)\n",
		stats.Sessions, stats.FilesImported,
		stats.FilesSkipped, stats.FilesFailed,
	)
}

func startFileWatcher(
	cfg config.Config, engine *importer.Engine,
) func() {
	if cfg.ImportDir == "" {
		return func() {}
	}
	onChange := func(paths []string) {
		engine.ImportPaths(paths)
	}
	watcher, err := importer.NewWatcher(watcherDebounce, onChange)
	if err != nil {
		log.Printf("warning: file watcher unavailable: %v", err)
		return func() {}
	}

	if _, err := os.Stat(cfg.ImportDir); err == nil {
		if _, _, err := watcher.WatchRecursive(cfg.ImportDir); err != nil {
			log.Printf("warning: watching %s: %v", cfg.ImportDir, err)
		}
	}
	watcher.Start()
	return watcher.Stop
}

func startPeriodicImport(engine *importer.Engine) {
	ticker := time.NewTicker(periodicImportInterval)
	defer ticker.Stop()
	for range ticker.C {
		log.Println("Running scheduled import...")
		engine.ImportAll()
	}
}
