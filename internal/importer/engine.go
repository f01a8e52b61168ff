// Package importer ingests JSONL study-session record files into
// the store. It discovers files under the configured import
// directories, parses them on a worker pool, and remembers
// unusable files by mtime so they are not re-parsed until they
// change.
package importer

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"maps"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"time"

	gosync "sync"

	"github.com/google/shlex"

	"github.com/studyview/studyview/internal/store"
)

const (
	batchSize  = 100
	maxWorkers = 8

	// maxLineBytes bounds a single record line. Session records
	// are small; anything past this is malformed.
	maxLineBytes = 1 << 20
)

// Stats summarizes an import run.
type Stats struct {
	FilesFound    int `json:"files_found"`
	FilesImported int `json:"files_imported"`
	FilesSkipped  int `json:"files_skipped"`
	FilesFailed   int `json:"files_failed"`
	Sessions      int `json:"sessions"`
	InvalidLines  int `json:"invalid_lines"`
}

// Engine orchestrates record file discovery and import.
type Engine struct {
	store      *store.Store
	dirs       []string
	command    string
	onImported func(userIDs []string)

	importMu gosync.Mutex // serializes full import runs
	mu       gosync.RWMutex
	lastRun  time.Time
	lastStat Stats

	// skipCache tracks files with no importable records, keyed
	// by path with the file mtime at time of caching. The file
	// is retried when its mtime changes.
	skipMu    gosync.RWMutex
	skipCache map[string]int64
}

// NewEngine creates an import engine. It pre-populates the
// in-memory skip cache from the store so files skipped in a
// prior run are not re-parsed on startup.
func NewEngine(st *store.Store, dirs []string, command string) *Engine {
	skipCache := make(map[string]int64)
	if loaded, err := st.LoadImportedFiles(); err == nil {
		skipCache = loaded
	} else {
		log.Printf("loading skip cache: %v", err)
	}

	return &Engine{
		store:     st,
		dirs:      dirs,
		command:   command,
		skipCache: skipCache,
	}
}

// OnImported registers a callback invoked with the affected user
// IDs after any import that wrote sessions. The server uses it to
// drop stale cached reports.
func (e *Engine) OnImported(fn func(userIDs []string)) {
	e.onImported = fn
}

// LastImport returns the time of the last completed import.
func (e *Engine) LastImport() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRun
}

// LastStats returns statistics from the last import.
func (e *Engine) LastStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastStat
}

// ImportAll discovers and imports every record file under the
// configured directories.
func (e *Engine) ImportAll() Stats {
	e.importMu.Lock()
	defer e.importMu.Unlock()

	var files []string
	for _, dir := range e.dirs {
		files = append(files, DiscoverRecordFiles(dir)...)
	}
	return e.importFiles(files)
}

// ImportPaths imports only the given changed paths. Paths that
// are not .jsonl record files are silently ignored.
func (e *Engine) ImportPaths(paths []string) Stats {
	e.importMu.Lock()
	defer e.importMu.Unlock()

	var files []string
	for _, p := range paths {
		if isRecordFile(p) {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return e.importFiles(files)
}

func isRecordFile(path string) bool {
	if len(path) < len(".jsonl") {
		return false
	}
	return path[len(path)-len(".jsonl"):] == ".jsonl"
}

type fileResult struct {
	path     string
	mtime    int64
	sessions []store.StudySession
	invalid  int
	skip     bool
	err      error
}

func (e *Engine) importFiles(files []string) Stats {
	stats := Stats{FilesFound: len(files)}
	if len(files) == 0 {
		e.finish(stats, nil)
		return stats
	}

	results := e.startWorkers(files)

	var pending []store.StudySession
	users := make(map[string]bool)
	for range files {
		r := <-results

		switch {
		case r.err != nil:
			stats.FilesFailed++
			log.Printf("import error: %v", r.err)
			continue
		case r.skip:
			stats.FilesSkipped++
			continue
		}

		stats.InvalidLines += r.invalid
		if len(r.sessions) == 0 {
			// Nothing usable; remember the file until it changes.
			e.cacheSkip(r.path, r.mtime)
			stats.FilesSkipped++
			continue
		}
		e.clearSkip(r.path)

		stats.FilesImported++
		stats.Sessions += len(r.sessions)
		for _, s := range r.sessions {
			users[s.UserID] = true
		}
		pending = append(pending, r.sessions...)
		if len(pending) >= batchSize {
			e.writeBatch(pending)
			pending = pending[:0]
		}
	}
	if len(pending) > 0 {
		e.writeBatch(pending)
	}

	e.persistSkipCache()
	e.finish(stats, users)
	return stats
}

func (e *Engine) finish(stats Stats, users map[string]bool) {
	e.mu.Lock()
	e.lastRun = time.Now()
	e.lastStat = stats
	e.mu.Unlock()

	if stats.Sessions > 0 {
		log.Printf(
			"import: %d session(s) from %d file(s), %d invalid line(s)",
			stats.Sessions, stats.FilesImported, stats.InvalidLines,
		)
	}
	if e.onImported != nil && len(users) > 0 {
		ids := make([]string, 0, len(users))
		for u := range users {
			ids = append(ids, u)
		}
		sort.Strings(ids)
		e.onImported(ids)
	}
}

// startWorkers fans file parsing out across a worker pool and
// returns a channel of per-file results.
func (e *Engine) startWorkers(files []string) <-chan fileResult {
	workers := min(max(runtime.NumCPU(), 2), maxWorkers)

	jobs := make(chan string, len(files))
	results := make(chan fileResult, len(files))

	for range workers {
		go func() {
			for path := range jobs {
				results <- e.processFile(path)
			}
		}()
	}

	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	return results
}

func (e *Engine) processFile(path string) fileResult {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{
			path: path,
			err:  fmt.Errorf("stat %s: %w", path, err),
		}
	}
	mtime := info.ModTime().UnixNano()

	// Skip files cached from a previous run (no importable
	// records) whose mtime is unchanged.
	e.skipMu.RLock()
	cachedMtime, cached := e.skipCache[path]
	e.skipMu.RUnlock()
	if cached && cachedMtime == mtime {
		return fileResult{path: path, mtime: mtime, skip: true}
	}

	// Fast path: size and mtime match what a previous import
	// stored with this file's sessions.
	if size, storedMtime, ok := e.store.GetFileInfoByPath(path); ok &&
		size == info.Size() && storedMtime == mtime {
		return fileResult{path: path, mtime: mtime, skip: true}
	}

	sessions, invalid, err := e.parseFile(path, info)
	if err != nil {
		return fileResult{path: path, mtime: mtime, err: err}
	}
	return fileResult{
		path:     path,
		mtime:    mtime,
		sessions: sessions,
		invalid:  invalid,
	}
}

// parseFile reads a record file line by line. Invalid lines are
// counted and logged; they never fail the file.
func (e *Engine) parseFile(
	path string, info os.FileInfo,
) ([]store.StudySession, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	size := info.Size()
	mtime := info.ModTime().UnixNano()

	var sessions []store.StudySession
	invalid := 0
	lineNo := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s, err := ParseRecordLine(line)
		if err != nil {
			invalid++
			log.Printf("import %s:%d: %v", path, lineNo, err)
			continue
		}
		s.SourcePath = &path
		s.FileSize = &size
		s.FileMtime = &mtime
		sessions = append(sessions, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, invalid, fmt.Errorf("reading %s: %w", path, err)
	}
	return sessions, invalid, nil
}

func (e *Engine) writeBatch(batch []store.StudySession) {
	if err := e.store.UpsertSessionsBatch(batch); err != nil {
		log.Printf("import write: %v", err)
	}
}

// RunCommand executes the configured import command and imports
// the JSONL records it writes to stdout. Used for one-shot pulls
// from an external recording service.
func (e *Engine) RunCommand(ctx context.Context) (Stats, error) {
	if e.command == "" {
		return Stats{}, fmt.Errorf("no import command configured")
	}
	argv, err := shlex.Split(e.command)
	if err != nil {
		return Stats{}, fmt.Errorf("parsing import command: %w", err)
	}
	if len(argv) == 0 {
		return Stats{}, fmt.Errorf("empty import command")
	}

	e.importMu.Lock()
	defer e.importMu.Unlock()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return Stats{}, fmt.Errorf("piping import command: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Stats{}, fmt.Errorf("starting import command: %w", err)
	}

	var stats Stats
	var pending []store.StudySession
	users := make(map[string]bool)

	scanner := bufio.NewScanner(out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		s, err := ParseRecordLine(line)
		if err != nil {
			stats.InvalidLines++
			log.Printf("import command output: %v", err)
			continue
		}
		stats.Sessions++
		users[s.UserID] = true
		pending = append(pending, s)
		if len(pending) >= batchSize {
			e.writeBatch(pending)
			pending = pending[:0]
		}
	}
	scanErr := scanner.Err()
	waitErr := cmd.Wait()

	if len(pending) > 0 {
		e.writeBatch(pending)
	}
	e.finish(stats, users)

	if scanErr != nil {
		return stats, fmt.Errorf("reading import command output: %w", scanErr)
	}
	if waitErr != nil {
		return stats, fmt.Errorf("import command: %w", waitErr)
	}
	return stats, nil
}

// cacheSkip records a file so it won't be retried until its
// mtime changes.
func (e *Engine) cacheSkip(path string, mtime int64) {
	e.skipMu.Lock()
	e.skipCache[path] = mtime
	e.skipMu.Unlock()
}

// clearSkip removes a skip-cache entry when a file produces
// importable records again.
func (e *Engine) clearSkip(path string) {
	e.skipMu.Lock()
	_, had := e.skipCache[path]
	delete(e.skipCache, path)
	e.skipMu.Unlock()
	if had {
		_ = e.store.DeleteImportedFile(path)
	}
}

// persistSkipCache writes the in-memory skip cache to the store
// so skipped files survive process restarts.
func (e *Engine) persistSkipCache() {
	e.skipMu.RLock()
	snapshot := make(map[string]int64, len(e.skipCache))
	maps.Copy(snapshot, e.skipCache)
	e.skipMu.RUnlock()

	if err := e.store.ReplaceImportedFiles(snapshot); err != nil {
		log.Printf("persisting skip cache: %v", err)
	}
}
