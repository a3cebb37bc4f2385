package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saaga0h/jeeves-timeofday/pkg/redis"
)

// RedisCatalog keeps one hash per scene: scenario name -> JSON record
type RedisCatalog struct {
	client redis.Client
	key    string
}

// NewRedisCatalog creates a catalog for scene
func NewRedisCatalog(client redis.Client, scene string) *RedisCatalog {
	return &RedisCatalog{
		client: client,
		key:    redis.ScenarioCatalogKey(scene),
	}
}

// Names implements Catalog
func (c *RedisCatalog) Names(ctx context.Context) ([]string, error) {
	fields, err := c.client.HGetAll(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	return names, nil
}

// Get implements Catalog
func (c *RedisCatalog) Get(ctx context.Context, name string) (Record, error) {
	fields, err := c.client.HGetAll(ctx, c.key)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read scenarios: %w", err)
	}

	raw, ok := fields[name]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}

	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode scenario %s: %w", name, err)
	}
	return record, nil
}

// Save implements Catalog
func (c *RedisCatalog) Save(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode scenario %s: %w", record.Name, err)
	}

	if err := c.client.HSet(ctx, c.key, record.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store scenario %s: %w", record.Name, err)
	}
	return nil
}

// Delete implements Catalog
func (c *RedisCatalog) Delete(ctx context.Context, name string) error {
	if err := c.client.HDel(ctx, c.key, name); err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", name, err)
	}
	return nil
}
