package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saaga0h/jeeves-timeofday/pkg/postgres"
)

const lightingScenariosSchema = `
	CREATE TABLE IF NOT EXISTS lighting_scenarios (
		id               UUID PRIMARY KEY,
		run_id           UUID NOT NULL,
		scene            TEXT NOT NULL,
		name             TEXT NOT NULL,
		time_of_day      DOUBLE PRECISION NOT NULL,
		latitude         DOUBLE PRECISION NOT NULL,
		longitude        DOUBLE PRECISION NOT NULL,
		utc_offset       INTEGER NOT NULL,
		is_day           BOOLEAN NOT NULL,
		day_weight       DOUBLE PRECISION NOT NULL,
		sky              JSONB NOT NULL,
		baked_at         TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (scene, name)
	)
`

// skyColumns is the JSONB payload holding the evaluated sky
type skyColumns struct {
	Clock    json.RawMessage `json:"clock"`
	Sun      json.RawMessage `json:"sun"`
	Moon     json.RawMessage `json:"moon"`
	Lighting json.RawMessage `json:"lighting"`
}

// PostgresCatalog stores scenarios in the lighting_scenarios table
type PostgresCatalog struct {
	client postgres.Client
	scene  string
}

// NewPostgresCatalog creates a catalog for scene
func NewPostgresCatalog(client postgres.Client, scene string) *PostgresCatalog {
	return &PostgresCatalog{client: client, scene: scene}
}

// EnsureSchema creates the table when it does not exist yet
func (c *PostgresCatalog) EnsureSchema(ctx context.Context) error {
	if _, err := c.client.Exec(ctx, lightingScenariosSchema); err != nil {
		return fmt.Errorf("failed to create lighting_scenarios table: %w", err)
	}
	return nil
}

// Names implements Catalog
func (c *PostgresCatalog) Names(ctx context.Context) ([]string, error) {
	rows, err := c.client.Query(ctx,
		`SELECT name FROM lighting_scenarios WHERE scene = $1`, c.scene)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan scenario name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return names, nil
}

// Get implements Catalog
func (c *PostgresCatalog) Get(ctx context.Context, name string) (Record, error) {
	query := `
		SELECT id, run_id, name, time_of_day, latitude, longitude, utc_offset,
			is_day, day_weight, sky, baked_at
		FROM lighting_scenarios
		WHERE scene = $1 AND name = $2
	`

	record := Record{Scene: c.scene}
	var sky []byte
	err := c.client.QueryRow(ctx, query, c.scene, name).Scan(
		&record.ID,
		&record.RunID,
		&record.Name,
		&record.TimeOfDayHours,
		&record.Location.Latitude,
		&record.Location.Longitude,
		&record.Location.UTCOffsetHours,
		&record.IsDay,
		&record.DayWeight,
		&sky,
		&record.BakedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrScenarioNotFound, name)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read scenario %s: %w", name, err)
	}

	if err := decodeSky(sky, &record); err != nil {
		return Record{}, fmt.Errorf("failed to decode scenario %s: %w", name, err)
	}
	return record, nil
}

// Save implements Catalog
func (c *PostgresCatalog) Save(ctx context.Context, record Record) error {
	sky, err := encodeSky(record)
	if err != nil {
		return fmt.Errorf("failed to encode scenario %s: %w", record.Name, err)
	}

	query := `
		INSERT INTO lighting_scenarios (
			id, run_id, scene, name, time_of_day, latitude, longitude,
			utc_offset, is_day, day_weight, sky, baked_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (scene, name) DO UPDATE SET
			id = EXCLUDED.id,
			run_id = EXCLUDED.run_id,
			time_of_day = EXCLUDED.time_of_day,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			utc_offset = EXCLUDED.utc_offset,
			is_day = EXCLUDED.is_day,
			day_weight = EXCLUDED.day_weight,
			sky = EXCLUDED.sky,
			baked_at = EXCLUDED.baked_at,
			updated_at = NOW()
	`

	_, err = c.client.Exec(ctx, query,
		record.ID,
		record.RunID,
		c.scene,
		record.Name,
		record.TimeOfDayHours,
		record.Location.Latitude,
		record.Location.Longitude,
		record.Location.UTCOffsetHours,
		record.IsDay,
		record.DayWeight,
		sky,
		record.BakedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert/update scenario %s: %w", record.Name, err)
	}
	return nil
}

// Delete implements Catalog
func (c *PostgresCatalog) Delete(ctx context.Context, name string) error {
	_, err := c.client.Exec(ctx,
		`DELETE FROM lighting_scenarios WHERE scene = $1 AND name = $2`, c.scene, name)
	if err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", name, err)
	}
	return nil
}

func encodeSky(record Record) ([]byte, error) {
	var cols skyColumns
	var err error
	if cols.Clock, err = json.Marshal(record.Clock); err != nil {
		return nil, err
	}
	if cols.Sun, err = json.Marshal(record.Sun); err != nil {
		return nil, err
	}
	if cols.Moon, err = json.Marshal(record.Moon); err != nil {
		return nil, err
	}
	if cols.Lighting, err = json.Marshal(record.Lighting); err != nil {
		return nil, err
	}
	return json.Marshal(cols)
}

func decodeSky(data []byte, record *Record) error {
	var cols skyColumns
	if err := json.Unmarshal(data, &cols); err != nil {
		return err
	}
	if err := json.Unmarshal(cols.Clock, &record.Clock); err != nil {
		return err
	}
	if err := json.Unmarshal(cols.Sun, &record.Sun); err != nil {
		return err
	}
	if err := json.Unmarshal(cols.Moon, &record.Moon); err != nil {
		return err
	}
	return json.Unmarshal(cols.Lighting, &record.Lighting)
}
