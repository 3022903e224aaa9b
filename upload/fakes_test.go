package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitrise-io/go-utils/v2/analytics"

	"github.com/editorstack/go-uploader/upload/network"
	"github.com/editorstack/go-uploader/upload/progress"
)

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	value, ok := repo.envVars[key]
	if ok {
		return value
	} else {
		return ""
	}
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	repo.envVars[key] = ""
	return nil
}

func (repo fakeEnvRepo) List() []string {
	envs := []string{}
	for k, v := range repo.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

type fakeNotifier struct {
	mu        sync.Mutex
	busyCount int
	freeCount int
}

func (n *fakeNotifier) Busy() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.busyCount++
}

func (n *fakeNotifier) Free() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.freeCount++
}

type fakeTracker struct {
	mu     sync.Mutex
	events []string
}

func (t *fakeTracker) Enqueue(eventName string, properties ...analytics.Properties) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, eventName)
}

func (t *fakeTracker) Wait() {}

// fakeStrategy settles with the configured asset or error after replaying the
// configured progress values. When started is non-nil it is closed once
// Execute runs, and the strategy then blocks until the context is cancelled.
type fakeStrategy struct {
	name     string
	asset    network.Asset
	err      error
	percents []int
	started  chan struct{}

	onProgress func(percent int)
	onStatus   func(message string, phase progress.Phase)

	mu         sync.Mutex
	executions int
	cleanups   int
}

func (s *fakeStrategy) Execute(ctx context.Context, src network.Source) (network.Asset, error) {
	s.mu.Lock()
	s.executions++
	s.mu.Unlock()

	if s.started != nil {
		close(s.started)
		<-ctx.Done()
		return network.Asset{}, fmt.Errorf("upload cancelled: %w", ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return network.Asset{}, fmt.Errorf("upload cancelled: %w", err)
	}

	for _, percent := range s.percents {
		if s.onProgress != nil {
			s.onProgress(percent)
		}
	}
	if s.err != nil {
		return network.Asset{}, s.err
	}
	return s.asset, nil
}

func (s *fakeStrategy) SetProgressCallback(fn func(percent int)) {
	s.onProgress = fn
}

func (s *fakeStrategy) SetStatusCallback(fn func(message string, phase progress.Phase)) {
	s.onStatus = fn
}

func (s *fakeStrategy) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups++
}

func (s *fakeStrategy) Name() string {
	if s.name == "" {
		return "fake"
	}
	return s.name
}

func (s *fakeStrategy) executionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions
}

func (s *fakeStrategy) cleanupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanups
}

// fakeSelector hands out a prepared strategy per file name.
type fakeSelector struct {
	strategies map[string]*fakeStrategy
}

func (s *fakeSelector) Select(src network.Source) network.Strategy {
	return s.strategies[src.Name()]
}

type statusEvent struct {
	itemID  string
	message string
	phase   progress.Phase
}

// eventRecorder captures every queue callback for later assertions.
type eventRecorder struct {
	mu        sync.Mutex
	progress  map[string][]int
	statuses  []statusEvent
	completes []string
	errors    []error
	cancels   []string
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{progress: map[string][]int{}}
}

func (r *eventRecorder) events() Events {
	return Events{
		OnProgress: func(itemID string, percent int) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.progress[itemID] = append(r.progress[itemID], percent)
		},
		OnStatus: func(itemID string, message string, phase progress.Phase) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, statusEvent{itemID: itemID, message: message, phase: phase})
		},
		OnComplete: func(itemID string, asset network.Asset) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completes = append(r.completes, itemID)
		},
		OnError: func(itemID string, err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, err)
		},
		OnCancel: func(itemID string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.cancels = append(r.cancels, itemID)
		},
	}
}

func (r *eventRecorder) phases() []progress.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	var phases []progress.Phase
	for _, s := range r.statuses {
		phases = append(phases, s.phase)
	}
	return phases
}
