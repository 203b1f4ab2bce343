// Package scenario loads initial world snapshots from scenario files.
package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gkosnia163/ollama-agent/domain/scenario"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// Prefix is the file name prefix of listable scenarios.
const Prefix = "scenario_"

var extensions = []string{".json", ".yaml", ".yml"}

// FileLoader implements scenario.Loader over a directory of JSON and YAML
// documents.
type FileLoader struct {
	dir  string
	seed uint64
}

// Option configures a FileLoader.
type Option func(*FileLoader)

// WithSeed sets the repair duration seed of loaded worlds.
func WithSeed(seed uint64) Option {
	return func(l *FileLoader) {
		l.seed = seed
	}
}

// NewFileLoader creates a loader rooted at dir.
func NewFileLoader(dir string, opts ...Option) *FileLoader {
	l := &FileLoader{dir: dir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the scenario directory.
func (l *FileLoader) Dir() string {
	return l.dir
}

// Load reads the named scenario and returns a fresh world.
//
// name may be a path to a file, a file name inside the directory, or a bare
// name such as "main" which resolves to scenario_main.{json,yaml,yml}.
func (l *FileLoader) Load(ctx context.Context, name string) (*world.World, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- scenario paths are operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}

	return Parse(data, filepath.Ext(path), l.seed)
}

// Resolve maps a scenario name to an existing file.
func (l *FileLoader) Resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", scenario.ErrNotFound)
	}

	var candidates []string
	if filepath.IsAbs(name) || strings.ContainsRune(name, filepath.Separator) {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, filepath.Join(l.dir, name))
	if filepath.Ext(name) == "" {
		base := name
		if !strings.HasPrefix(base, Prefix) {
			base = Prefix + base
		}
		for _, ext := range extensions {
			candidates = append(candidates, filepath.Join(l.dir, name+ext))
		}
		if base != name {
			for _, ext := range extensions {
				candidates = append(candidates, filepath.Join(l.dir, base+ext))
			}
		}
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", scenario.ErrNotFound, name)
}

// List returns the names of scenario_* files in the directory, sorted.
func (l *FileLoader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: directory %s", scenario.ErrNotFound, l.dir)
		}
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), Prefix) {
			continue
		}
		if supported(filepath.Ext(e.Name())) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Parse builds a world from a scenario document. ext selects the format.
// A seed in the document takes precedence over seed.
func Parse(data []byte, ext string, seed uint64) (*world.World, error) {
	var doc world.Document
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", scenario.ErrInvalidScenario, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", scenario.ErrInvalidScenario, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", scenario.ErrUnsupportedFormat, ext)
	}

	w, err := world.FromDocument(doc, seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scenario.ErrInvalidScenario, err)
	}
	return w, nil
}

func supported(ext string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

var _ scenario.Loader = (*FileLoader)(nil)
