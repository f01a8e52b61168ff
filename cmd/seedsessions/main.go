package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/studyview/studyview/internal/importer"
	"github.com/studyview/studyview/internal/store"
	"github.com/studyview/studyview/internal/studyjsonl"
)

type userSpec struct {
	userID   string
	subjects []string
	days     int
	perDay   int
}

var specs = []userSpec{
	{"user-amara", []string{"python", "statistics"}, 28, 2},
	{"user-bo", []string{"javascript"}, 14, 1},
	{"user-chen", []string{"math", "physics", "chemistry"}, 28, 3},
	{"user-light", []string{"spanish"}, 7, 1},
}

func main() {
	out := flag.String("out", "", "output directory for JSONL fixture files")
	dbPath := flag.String("db", "", "optional database path to seed from the fixtures")
	flag.Parse()
	if *out == "" {
		fmt.Fprintln(os.Stderr, "usage: seedsessions -out <dir> [-db <path>]")
		os.Exit(1)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("creating output dir: %v", err)
	}

	// Anchor everything to a fixed Monday so weekly reports over
	// the fixtures are reproducible.
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	for _, spec := range specs {
		path, count, err := writeUserFixture(*out, spec, base)
		if err != nil {
			log.Fatalf("writing fixture for %s: %v", spec.userID, err)
		}
		fmt.Printf("  %s: %d sessions\n", filepath.Base(path), count)
	}

	if err := writeInvalidFixture(*out); err != nil {
		log.Fatalf("writing invalid fixture: %v", err)
	}
	fmt.Printf("Fixtures written to %s\n", *out)

	if *dbPath != "" {
		if err := seedStore(*dbPath, *out); err != nil {
			log.Fatalf("seeding store: %v", err)
		}
	}
}

func writeUserFixture(
	dir string, spec userSpec, base time.Time,
) (string, int, error) {
	b := studyjsonl.NewFileBuilder()
	count := 0
	for day := range spec.days {
		// Every user skips Sundays so consistency scores land
		// below 100 without extra tuning.
		dayStart := base.AddDate(0, 0, -day)
		if dayStart.Weekday() == time.Sunday {
			continue
		}
		for slot := range spec.perDay {
			subject := spec.subjects[(day+slot)%len(spec.subjects)]
			start := dayStart.Add(time.Duration(slot) * 3 * time.Hour)
			minutes := 25 + 5*((day+slot)%5)
			id := fmt.Sprintf(
				"%s-%s-%d", spec.userID,
				start.Format("20060102"), slot,
			)
			opts := []studyjsonl.Opt{
				studyjsonl.WithSubject(subject),
				studyjsonl.WithMinutes(minutes),
				studyjsonl.WithSatisfaction(3 + (day+slot)%3),
			}
			if slot == 0 {
				opts = append(opts,
					studyjsonl.WithTags("seeded", subject))
			}
			b.AddSession(
				id, spec.userID,
				start.Format(time.RFC3339), opts...,
			)
			count++
		}
	}

	path := filepath.Join(dir, spec.userID+".jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, count, nil
}

// writeInvalidFixture adds a file with broken lines so importer
// runs over the fixture tree exercise the invalid-line counters.
func writeInvalidFixture(dir string) error {
	b := studyjsonl.NewFileBuilder().
		AddRaw("{not valid json").
		AddSession("missing-user", "", "2025-12-01T09:00:00Z",
			studyjsonl.Without("user_id")).
		AddSession("ok-after-bad", "user-amara", "2025-12-01T20:00:00Z",
			studyjsonl.WithSubject("python"),
			studyjsonl.WithMinutes(15))
	path := filepath.Join(dir, "invalid.jsonl")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func seedStore(dbPath, dir string) error {
	if err := os.Remove(dbPath); err != nil &&
		!errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing existing db: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	engine := importer.NewEngine(st, []string{dir}, "")
	stats := engine.ImportAll()
	fmt.Printf(
		"Seeded %s: %d sessions from %d files (%d invalid lines)\n",
		dbPath, stats.Sessions, stats.FilesImported, stats.InvalidLines,
	)
	return nil
}
