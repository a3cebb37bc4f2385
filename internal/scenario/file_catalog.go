package scenario

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrScenarioNotFound is returned by Catalog.Get for unknown names
var ErrScenarioNotFound = errors.New("scenario not found")

type catalogFile struct {
	Scenarios []Record `yaml:"scenarios"`
}

// FileCatalog keeps the catalog in a YAML file. A missing file is an
// empty catalog.
type FileCatalog struct {
	path string
	mu   sync.Mutex
}

// NewFileCatalog creates a catalog backed by path
func NewFileCatalog(path string) *FileCatalog {
	return &FileCatalog{path: path}
}

// Names implements Catalog
func (c *FileCatalog) Names(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.load()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(file.Scenarios))
	for _, r := range file.Scenarios {
		names = append(names, r.Name)
	}
	return names, nil
}

// Get implements Catalog
func (c *FileCatalog) Get(ctx context.Context, name string) (Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.load()
	if err != nil {
		return Record{}, err
	}

	for _, r := range file.Scenarios {
		if r.Name == name {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
}

// Save implements Catalog
func (c *FileCatalog) Save(ctx context.Context, record Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range file.Scenarios {
		if file.Scenarios[i].Name == record.Name {
			file.Scenarios[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		file.Scenarios = append(file.Scenarios, record)
	}

	return c.store(file)
}

// Delete implements Catalog
func (c *FileCatalog) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	file, err := c.load()
	if err != nil {
		return err
	}

	kept := file.Scenarios[:0]
	for _, r := range file.Scenarios {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	file.Scenarios = kept

	return c.store(file)
}

func (c *FileCatalog) load() (*catalogFile, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &catalogFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scenario catalog YAML: %w", err)
	}
	return &file, nil
}

// store writes through a temp file so readers never see a partial catalog
func (c *FileCatalog) store(file *catalogFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to encode scenario catalog: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".scenarios-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp catalog: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp catalog: %w", err)
	}

	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace scenario catalog: %w", err)
	}
	return nil
}
