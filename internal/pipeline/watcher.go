package pipeline

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the source roots and reruns the pipeline when
// Fortran files change. Bursts of events collapse into one run via a
// debounce timer.
type Watcher struct {
	pipeline     *Pipeline
	watcher      *fsnotify.Watcher
	extensions   map[string]bool
	outputDir    string
	debounceTime time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewWatcher creates a watcher over the pipeline's configured roots.
func NewWatcher(pl *Pipeline) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		pipeline:     pl,
		watcher:      fsw,
		extensions:   make(map[string]bool),
		outputDir:    pl.resolve(pl.cfg.Output.Dir),
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	exts := pl.cfg.Sources.Extensions
	if len(exts) == 0 {
		exts = defaultWatchExtensions()
	}
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		w.extensions[strings.ToLower(ext)] = true
	}

	for _, root := range pl.cfg.Sources.Roots {
		if err := w.addDirectoriesRecursively(pl.resolve(root)); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func defaultWatchExtensions() []string {
	return []string{".f90", ".f95", ".f03", ".f08"}
}

// Start begins watching. The loop exits when ctx is canceled or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.shouldProcessEvent(event) {
				continue
			}

			// New directories join the watch set immediately.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch new directory %s: %v", event.Name, err)
					}
				}
			}

			if debounceTimer != nil {
				if !debounceTimer.Stop() {
					select {
					case <-debounceTimer.C:
					default:
					}
				}
			}
			debounceTimer = time.NewTimer(w.debounceTime)
			timerCh = debounceTimer.C

		case <-timerCh:
			timerCh = nil
			log.Println("Change detected, regenerating...")
			if _, _, err := w.pipeline.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Printf("Warning: regeneration failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: watch error: %v", err)
		}
	}
}

// shouldProcessEvent filters to writes, creates, renames and removals
// of Fortran sources and directories, skipping the output tree.
func (w *Watcher) shouldProcessEvent(event fsnotify.Event) bool {
	const relevant = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove
	if event.Op&relevant == 0 {
		return false
	}

	if w.outputDir != "" && strings.HasPrefix(event.Name, w.outputDir+string(filepath.Separator)) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}

	// Directories pass so new subtrees get watched; otherwise require a
	// Fortran extension.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		return true
	}
	return w.extensions[strings.ToLower(filepath.Ext(event.Name))]
}

func (w *Watcher) addDirectoriesRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || path == w.outputDir) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
