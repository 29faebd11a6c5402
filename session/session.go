// Package session holds the signals of one analysis run and runs the
// per-variant analyses over them in parallel.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/cwbudde/algo-wavqa/internal/common"
	"github.com/cwbudde/algo-wavqa/internal/workerpool"
	"github.com/cwbudde/algo-wavqa/pcm"
)

// ErrUnknownSignal reports a name that was never loaded.
var ErrUnknownSignal = errors.New("session: unknown signal")

// Session is an analysis context. Construct it with New, load inputs,
// run analyses, then Close it. It is safe for concurrent use.
type Session struct {
	layout  pcm.Layout
	workers int

	mu      sync.RWMutex
	signals map[string]*pcm.Signal
}

// Option configures a Session.
type Option func(*Session)

// WithLayout sets the channel count and sample rate assumed for files the
// chunk decoder cannot read.
func WithLayout(l pcm.Layout) Option {
	return func(s *Session) { s.layout = l }
}

// WithWorkers bounds the number of concurrent analyses. 0 uses one per CPU.
func WithWorkers(n int) Option {
	return func(s *Session) { s.workers = n }
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		layout:  pcm.DefaultLayout,
		signals: make(map[string]*pcm.Signal),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load reads path and stores it under name, replacing any previous signal.
func (s *Session) Load(name, path string) error {
	sig, err := pcm.Load(path, s.layout)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	s.Add(name, sig)
	return nil
}

// LoadAll loads every name/path pair in parallel. Files that fail to load
// are reported in the returned workerpool.MultiErr; the rest stay loaded.
func (s *Session) LoadAll(paths map[string]string) error {
	wp := s.pool()
	for _, name := range sortedKeys(paths) {
		name, path := name, paths[name]
		wp.Go(func() error { return s.Load(name, path) })
	}
	return wp.Wait()
}

// Add stores sig under name.
func (s *Session) Add(name string, sig *pcm.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals[name] = sig
}

// Signal returns the signal stored under name.
func (s *Session) Signal(name string) (*pcm.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signals[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}
	return sig, nil
}

// Names returns the loaded signal names in sorted order.
func (s *Session) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.signals)
}

// Close drops every loaded signal.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signals = make(map[string]*pcm.Signal)
}

func (s *Session) pool() *workerpool.WorkerPool {
	return workerpool.New(common.ResolveWorkers(s.workers))
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
