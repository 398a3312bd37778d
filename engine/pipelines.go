// ABOUTME: Pipeline registry: validated CRUD over immutable pipeline definitions.
// ABOUTME: Derived run aggregates are computed elsewhere so no duplicated state can drift.
package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// PipelineRegistry stores pipeline definitions keyed by ID.
type PipelineRegistry struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
}

// NewPipelineRegistry returns an empty registry.
func NewPipelineRegistry() *PipelineRegistry {
	return &PipelineRegistry{pipelines: make(map[string]*Pipeline)}
}

// validateConfig rejects definitions with no steps or steps missing a command
// before anything is stored.
func validateConfig(cfg PipelineConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if len(cfg.Steps) == 0 {
		return fmt.Errorf("%w: at least one step is required", ErrInvalidDefinition)
	}
	for i, step := range cfg.Steps {
		if strings.TrimSpace(step.Command) == "" {
			return fmt.Errorf("%w: step %d (%q) has no command", ErrInvalidDefinition, i, step.Name)
		}
	}
	return nil
}

// Create validates the submitted definition, assigns identity, and stores it.
func (r *PipelineRegistry) Create(cfg PipelineConfig) (Pipeline, error) {
	if err := validateConfig(cfg); err != nil {
		return Pipeline{}, err
	}

	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	p := Pipeline{
		ID:          NewPipelineID(),
		Name:        cfg.Name,
		Version:     version,
		Description: cfg.Description,
		Variables:   cfg.Variables,
		Steps:       cfg.Steps,
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.pipelines[p.ID] = &p
	r.mu.Unlock()

	return p, nil
}

// restore inserts a pipeline loaded from the store.
func (r *PipelineRegistry) restore(p Pipeline) {
	r.mu.Lock()
	r.pipelines[p.ID] = &p
	r.mu.Unlock()
}

// Get returns the pipeline definition, or ErrNotFound.
func (r *PipelineRegistry) Get(id string) (Pipeline, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pipelines[id]
	if !ok {
		return Pipeline{}, ErrNotFound
	}
	return *p, nil
}

// List returns all pipeline definitions, newest first.
func (r *PipelineRegistry) List() []Pipeline {
	r.mu.RLock()
	out := make([]Pipeline, 0, len(r.pipelines))
	for _, p := range r.pipelines {
		out = append(out, *p)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Delete removes a pipeline definition. The caller is responsible for the
// active-run check; this is plain map removal.
func (r *PipelineRegistry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.pipelines[id]; !ok {
		return ErrNotFound
	}
	delete(r.pipelines, id)
	return nil
}
