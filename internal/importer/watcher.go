package importer

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches record directories through fsnotify and reports
// changed record files in debounced batches: each matching event
// re-arms a timer, and the accumulated set is delivered once the
// directory has been quiet for the debounce period. Non-record
// files never enter a batch.
type Watcher struct {
	fsw      *fsnotify.Watcher
	match    func(path string) bool
	onChange func(paths []string)
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher that calls onChange with batches of
// changed record-file paths.
func NewWatcher(
	debounce time.Duration, onChange func(paths []string),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsw:      fsw,
		match:    isRecordFile,
		onChange: onChange,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// WatchRecursive adds root and every subdirectory under it to the
// watch list. Returns how many directories were watched and how
// many could not be added.
func (w *Watcher) WatchRecursive(root string) (watched, unwatched int, err error) {
	err = filepath.WalkDir(root,
		func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || !d.IsDir() {
				return nil
			}
			if w.fsw.Add(path) != nil {
				unwatched++
				return nil
			}
			watched++
			return nil
		})
	return watched, unwatched, err
}

// Start begins processing file events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for it to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.fsw.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	// The timer starts disarmed; note() re-arms it on every
	// matching event so the batch flushes only after a quiet
	// debounce window.
	flush := time.NewTimer(w.debounce)
	if !flush.Stop() {
		<-flush.C
	}
	defer flush.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if w.note(event) {
				flush.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)

		case <-flush.C:
			if batch := w.take(); len(batch) > 0 {
				log.Printf("watcher: %d record file(s) changed, importing",
					len(batch))
				w.onChange(batch)
			}
		}
	}
}

// note records a write or create event, following newly created
// directories so nested record drops keep getting seen. It reports
// whether a record file was added to the pending batch.
func (w *Watcher) note(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fsw.Add(event.Name)
			return false
		}
	}
	if !w.match(event.Name) {
		return false
	}

	w.mu.Lock()
	w.pending[event.Name] = struct{}{}
	w.mu.Unlock()
	return true
}

// take drains the pending set into a sorted batch.
func (w *Watcher) take() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	batch := make([]string, 0, len(w.pending))
	for path := range w.pending {
		batch = append(batch, path)
	}
	clear(w.pending)
	sort.Strings(batch)
	return batch
}
