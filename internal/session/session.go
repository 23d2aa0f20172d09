// Package session holds the scene being edited and runs loads and saves
// in the background so the caller's loop never blocks on file I/O.
//
// A load is started with StartLoad and its outcome is picked up with Poll,
// typically once per frame after Ready fires. Starting another load or
// calling Cancel supersedes the one in flight; its result is discarded.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/kuviman/PogPaint/internal/format"
	v2 "github.com/kuviman/PogPaint/internal/format/v2"
	"github.com/kuviman/PogPaint/internal/logging"
	"github.com/kuviman/PogPaint/internal/persist"
	"github.com/kuviman/PogPaint/internal/scene"
)

var (
	// ErrBusy is returned by Save while an earlier save is still writing.
	ErrBusy = errors.New("session: save already in progress")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session: closed")
)

// Options configures a Session.
type Options struct {
	// Persist is used for every load.
	Persist persist.Options
	// Model is the initial scene; nil starts with an empty one.
	Model *scene.Model
}

// Result is the outcome of a load.
type Result struct {
	Path  string
	Model *scene.Model // nil on error
	Info  format.Info
	Err   error
}

// Session owns the current scene. Its methods are safe for concurrent use.
type Session struct {
	opts  persist.Options
	write func(path string, doc *v2.Scene) error

	mu     sync.Mutex
	model  *scene.Model
	path   string
	gen    uint64
	cancel context.CancelFunc
	slot   *Result
	ready  chan struct{}
	saving bool
	closed bool
	wg     sync.WaitGroup
}

// New creates a session.
func New(opts Options) *Session {
	m := opts.Model
	if m == nil {
		m = scene.New()
	}
	return &Session{
		opts:  opts.Persist,
		write: persist.WriteFile,
		model: m,
		ready: make(chan struct{}, 1),
	}
}

// Model returns the current scene.
func (s *Session) Model() *scene.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// Path returns the file the current scene was last loaded from or saved
// to, or "" for a new scene.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Reset replaces the current scene with m and forgets its path.
func (s *Session) Reset(m *scene.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.path = ""
}

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// StartLoad begins loading path in the background, superseding any load
// already in flight and any result not yet polled.
func (s *Session) StartLoad(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.supersedeLocked()
	gen := s.gen
	lctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	logging.Logger().Debug("load started", "path", path, "generation", gen)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		m, info, err := persist.LoadFile(lctx, path, s.opts)
		s.deliver(gen, &Result{Path: path, Model: m, Info: info, Err: err})
	}()
	return nil
}

// supersedeLocked cancels the load in flight and drops any pending result.
func (s *Session) supersedeLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.slot = nil
	select {
	case <-s.ready:
	default:
	}
}

func (s *Session) deliver(gen uint64, r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		logging.Logger().Debug("stale load discarded", "path", r.Path, "generation", gen)
		return
	}
	s.cancel()
	s.cancel = nil
	s.slot = r
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Ready fires when a load result is waiting to be polled.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Poll takes the pending load result, if any. A successful result becomes
// the current scene.
func (s *Session) Poll() (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.slot
	if r == nil {
		return nil, false
	}
	s.slot = nil
	select {
	case <-s.ready:
	default:
	}
	if r.Err != nil {
		logging.Logger().Warn("load failed", "path", r.Path, "err", r.Err)
		return r, true
	}
	s.model = r.Model
	s.path = r.Path
	return r, true
}

// Cancel aborts the load in flight, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		logging.Logger().Debug("load cancelled", "generation", s.gen)
	}
	s.supersedeLocked()
}

// Save snapshots the current scene and writes it to path in the
// background. The returned channel yields the outcome once and is closed.
// A save requested while another is writing fails with ErrBusy.
func (s *Session) Save(ctx context.Context, path string) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		done <- ErrClosed
		close(done)
		return done
	case s.saving:
		s.mu.Unlock()
		done <- ErrBusy
		close(done)
		return done
	}
	s.saving = true
	doc := persist.Snapshot(s.model)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		err := ctx.Err()
		if err == nil {
			err = s.write(path, doc)
		}
		s.mu.Lock()
		s.saving = false
		if err == nil {
			s.path = path
		}
		s.mu.Unlock()
		if err != nil {
			logging.Logger().Warn("save failed", "path", path, "err", err)
		}
		done <- err
		close(done)
	}()
	return done
}

// Close cancels the load in flight and waits for background work to finish.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.supersedeLocked()
	s.mu.Unlock()
	s.wg.Wait()
}
