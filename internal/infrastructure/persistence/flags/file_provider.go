package flags

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/flags"
	"github.com/pressroomhq/pressroom-go/internal/domain/repositories"
)

var _ repositories.FlagProvider = (*FileProvider)(nil)

// FileProvider serves feature flags from a static JSON file. It is the
// zero-infrastructure provider for local development and single-box
// deployments; the resolver treats it identically to the SQL provider.
//
// File shape: {"flags": [{"key": "...", "enabled": true, "metadata": {...}}]}
type FileProvider struct {
	path string

	mu      sync.RWMutex
	loaded  bool
	byKey   map[string]*flags.FeatureFlag
	ordered []*flags.FeatureFlag
}

type flagFile struct {
	Flags []*flags.FeatureFlag `json:"flags"`
}

// NewFileProvider creates a provider reading from path. The file is loaded
// lazily on first access and on every Reload.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Reload re-reads the file, replacing all flags.
func (p *FileProvider) Reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read flags file %s: %w", p.path, err)
	}

	var parsed flagFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse flags file %s: %w", p.path, err)
	}

	byKey := make(map[string]*flags.FeatureFlag, len(parsed.Flags))
	for _, flag := range parsed.Flags {
		byKey[flag.Key] = flag
	}

	p.mu.Lock()
	p.byKey = byKey
	p.ordered = parsed.Flags
	p.loaded = true
	p.mu.Unlock()
	return nil
}

func (p *FileProvider) ensureLoaded() error {
	p.mu.RLock()
	loaded := p.loaded
	p.mu.RUnlock()
	if loaded {
		return nil
	}
	return p.Reload()
}

// GetFlag returns the flag for key, or (nil, nil) when absent.
func (p *FileProvider) GetFlag(key string) (*flags.FeatureFlag, error) {
	if err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byKey[key], nil
}

// GetAllFlags returns every flag in file order.
func (p *FileProvider) GetAllFlags() ([]*flags.FeatureFlag, error) {
	if err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*flags.FeatureFlag(nil), p.ordered...), nil
}
