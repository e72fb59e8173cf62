package scoring

import (
	"fmt"
	"sync"
)

// Entry is one scoring system: its declarative config and the numeric
// tables for its number fields.
type Entry struct {
	Config *ScoreConfig
	Tables TableSet
}

// Registry is a read-only catalog of scoring systems. It is safe for
// concurrent use; returned configs must not be modified.
type Registry struct {
	configs []*ScoreConfig
	byID    map[string]*ScoreConfig
	byName  map[string]*ScoreConfig
	tables  map[string]TableSet
}

// NewRegistry validates the entries and builds an immutable registry.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		byID:   make(map[string]*ScoreConfig, len(entries)),
		byName: make(map[string]*ScoreConfig, len(entries)),
		tables: make(map[string]TableSet, len(entries)),
	}
	for _, e := range entries {
		cfg := e.Config
		if cfg == nil {
			return nil, fmt.Errorf("registry entry has no config")
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate score config id %q", cfg.ID)
		}
		if _, dup := r.byName[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate score config name %q", cfg.Name)
		}
		for fieldID := range e.Tables {
			f, ok := cfg.Field(fieldID)
			if !ok {
				return nil, fmt.Errorf("score config %q: scoring table for unknown field %q", cfg.ID, fieldID)
			}
			if f.Type != FieldNumber {
				return nil, fmt.Errorf("score config %q: scoring table on %s field %q", cfg.ID, f.Type, fieldID)
			}
		}
		r.configs = append(r.configs, cfg)
		r.byID[cfg.ID] = cfg
		r.byName[cfg.Name] = cfg
		tables := make(TableSet, len(e.Tables))
		for k, v := range e.Tables {
			tables[k] = v
		}
		r.tables[cfg.ID] = tables
	}
	return r, nil
}

// NewBuiltinRegistry builds a registry from the embedded catalog.
func NewBuiltinRegistry() (*Registry, error) {
	entries, err := BuiltinEntries()
	if err != nil {
		return nil, err
	}
	return NewRegistry(entries...)
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry built from the embedded catalog.
// It panics if the embedded catalog is invalid, which the package tests rule
// out.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewBuiltinRegistry()
		if err != nil {
			panic(fmt.Sprintf("scoring: invalid builtin catalog: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Get looks a config up by id, then by display name.
func (r *Registry) Get(idOrName string) (*ScoreConfig, bool) {
	if cfg, ok := r.byID[idOrName]; ok {
		return cfg, true
	}
	cfg, ok := r.byName[idOrName]
	return cfg, ok
}

// List returns every config in registration order.
func (r *Registry) List() []*ScoreConfig {
	out := make([]*ScoreConfig, len(r.configs))
	copy(out, r.configs)
	return out
}

// ScoreNumeric applies the table registered for (configID, fieldID). ok is
// false, and the score 0, when no table exists for the pair.
func (r *Registry) ScoreNumeric(configID, fieldID string, v float64) (score int, ok bool) {
	scorer, ok := r.scorer(configID, fieldID)
	if !ok {
		return 0, false
	}
	return scorer.Score(v), true
}

func (r *Registry) scorer(configID, fieldID string) (FieldScorer, bool) {
	tables, ok := r.tables[configID]
	if !ok {
		return nil, false
	}
	s, ok := tables[fieldID]
	return s, ok
}

// GetConfig resolves idOrName against the default registry.
func GetConfig(idOrName string) (*ScoreConfig, bool) {
	return Default().Get(idOrName)
}
