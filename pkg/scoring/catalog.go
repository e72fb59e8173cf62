package scoring

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// builtinTables pairs each embedded catalog config with its numeric tables.
// A new scoring system is a new catalog file plus one entry here.
var builtinTables = map[string]TableSet{
	ApacheIIID:  apacheIITables,
	ChildPughID: childPughTables,
}

// ParseConfig decodes a YAML score config and validates it. Unknown keys are
// rejected so a typo in the catalog fails at load time.
func ParseConfig(data []byte) (*ScoreConfig, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var cfg ScoreConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode score config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BuiltinEntries loads every embedded catalog config, in file name order.
func BuiltinEntries() ([]Entry, error) {
	files, err := catalogFS.ReadDir("catalog")
	if err != nil {
		return nil, fmt.Errorf("scoring.BuiltinEntries: %w", err)
	}
	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}
		data, err := catalogFS.ReadFile(path.Join("catalog", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("scoring.BuiltinEntries: read %q: %w", f.Name(), err)
		}
		cfg, err := ParseConfig(data)
		if err != nil {
			return nil, fmt.Errorf("scoring.BuiltinEntries: %s: %w", f.Name(), err)
		}
		entries = append(entries, Entry{Config: cfg, Tables: builtinTables[cfg.ID]})
	}
	return entries, nil
}
