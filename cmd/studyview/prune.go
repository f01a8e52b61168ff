package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/studyview/studyview/internal/config"
	"github.com/studyview/studyview/internal/store"
)

// PruneConfig holds parsed CLI options for the prune command.
type PruneConfig struct {
	Filter store.PruneFilter
	DryRun bool
	Yes    bool
}

func parsePruneFlags(args []string) (PruneConfig, error) {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	user := fs.String(
		"user", "",
		"Sessions belonging to this user id",
	)
	subject := fs.String(
		"subject", "",
		"Sessions whose subject contains this substring",
	)
	before := fs.String(
		"before", "",
		"Sessions started before this date (YYYY-MM-DD)",
	)
	maxMinutes := fs.Int(
		"max-minutes", -1,
		"Sessions of at most N minutes",
	)
	dryRun := fs.Bool(
		"dry-run", false,
		"Show what would be pruned without deleting",
	)
	yes := fs.Bool(
		"yes", false,
		"Skip confirmation prompt",
	)

	if err := fs.Parse(args); err != nil {
		return PruneConfig{}, err
	}

	if *maxMinutes < 0 && *maxMinutes != -1 {
		return PruneConfig{}, fmt.Errorf("max-minutes must be >= 0")
	}

	var mm *int
	if *maxMinutes != -1 {
		mm = maxMinutes
	}

	cfg := PruneConfig{
		Filter: store.PruneFilter{
			User:       *user,
			Subject:    *subject,
			Before:     *before,
			MaxMinutes: mm,
		},
		DryRun: *dryRun,
		Yes:    *yes,
	}

	if !cfg.Filter.HasFilters() {
		return PruneConfig{}, fmt.Errorf(
			"at least one filter is required\n" +
				"use --user, --subject, --before, or --max-minutes",
		)
	}

	return cfg, nil
}

// Pruner executes the prune workflow against a store.
type Pruner struct {
	Store *store.Store
	Out   io.Writer
	In    io.Reader
}

// Prune finds matching sessions and deletes them.
func (p *Pruner) Prune(cfg PruneConfig) error {
	if !cfg.Filter.HasFilters() {
		return fmt.Errorf(
			"at least one filter is required " +
				"(refusing to prune all sessions)",
		)
	}

	candidates, err := p.Store.FindPruneCandidates(cfg.Filter)
	if err != nil {
		return fmt.Errorf("finding candidates: %w", err)
	}

	if len(candidates) == 0 {
		fmt.Fprintln(p.Out, "No sessions match the given filters.")
		return nil
	}

	writeSummary(p.Out, candidates)

	if cfg.DryRun {
		fmt.Fprintln(p.Out, "\nDry run: no changes made.")
		return nil
	}

	if !cfg.Yes {
		msg := fmt.Sprintf("\nDelete %d sessions?", len(candidates))
		if !confirm(p.In, p.Out, msg) {
			fmt.Fprintln(p.Out, "Aborted.")
			return nil
		}
	}

	ids := make([]string, len(candidates))
	for i, s := range candidates {
		ids[i] = s.ID
	}

	deleted, err := p.Store.DeleteSessions(ids)
	if err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}

	fmt.Fprintf(p.Out, "\nDeleted %d sessions.\n", deleted)
	return nil
}

func confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N] ", msg)
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	ans := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return ans == "y" || ans == "yes"
}

func writeSummary(w io.Writer, sessions []store.StudySession) {
	totalMinutes := 0
	byUser := map[string]int{}
	var users []string
	for _, s := range sessions {
		if byUser[s.UserID] == 0 {
			users = append(users, s.UserID)
		}
		byUser[s.UserID]++
		totalMinutes += s.Minutes
	}

	sort.Strings(users)

	fmt.Fprintf(w,
		"Found %d sessions (%d minutes of study time)\n",
		len(sessions), totalMinutes,
	)
	fmt.Fprintln(w, "\nBy user:")
	for _, user := range users {
		fmt.Fprintf(w, "  %-30s %d\n", user, byUser[user])
	}
}

func runPrune(args []string) {
	cfg, err := parsePruneFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	appCfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	st, err := store.Open(appCfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer st.Close()

	pruner := &Pruner{
		Store: st,
		Out:   os.Stdout,
		In:    os.Stdin,
	}
	if err := pruner.Prune(cfg); err != nil {
		log.Fatalf("prune: %v", err)
	}
}
