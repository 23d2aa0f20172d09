package texture

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kuviman/PogPaint/internal/logging"
)

// DebounceInterval is how long a file must stay quiet before its change is
// reported.
const DebounceInterval = 100 * time.Millisecond

// Watcher invalidates cached images when their files change and reports
// the changed paths on Events. Events and Errors are closed after Close.
type Watcher struct {
	watcher *fsnotify.Watcher
	cache   *Cache
	Events  chan string
	Errors  chan error
	fired   chan string
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches dirs and all their subdirectories for changes to image
// files cached by cache. Directories created later are watched as well.
func NewWatcher(cache *Cache, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := addTree(fw, dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher: fw,
		cache:   cache,
		Events:  make(chan string, 16),
		Errors:  make(chan error, 1),
		fired:   make(chan string),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// addTree adds dir and every directory below it.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(path)
	})
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
		close(w.Events)
		close(w.Errors)
		close(w.done)
	}()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(w.watcher, event.Name); err != nil {
						logging.Logger().Warn("watch new directory", "path", event.Name, "err", err)
					}
					continue
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsImagePath(event.Name) {
				continue
			}
			// Every event restarts the quiet period, so a file written in
			// several chunks is reported once, after the last one.
			if t, ok := pending[event.Name]; ok {
				t.Reset(DebounceInterval)
				continue
			}
			name := event.Name
			pending[name] = time.AfterFunc(DebounceInterval, func() {
				select {
				case w.fired <- name:
				case <-w.closeCh:
				}
			})
		case name := <-w.fired:
			delete(pending, name)
			w.cache.Invalidate(name)
			logging.Logger().Debug("image changed", "path", name)
			select {
			case w.Events <- name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				logging.Logger().Warn("image watcher error dropped", "err", err)
			}
		case <-w.closeCh:
			return
		}
	}
}
