package scenario

import (
	"context"
	"time"

	"github.com/saaga0h/jeeves-timeofday/internal/astro"
	"github.com/saaga0h/jeeves-timeofday/internal/lighting"
)

// Record is one baked scenario: the sky evaluated at the scenario's time
type Record struct {
	ID             string              `json:"id" yaml:"id"`
	RunID          string              `json:"run_id" yaml:"run_id"`
	Name           string              `json:"name" yaml:"name"`
	Scene          string              `json:"scene" yaml:"scene"`
	TimeOfDayHours float64             `json:"time_of_day_hours" yaml:"time_of_day_hours"`
	Clock          astro.SimClock      `json:"clock" yaml:"clock"`
	Location       astro.GeoLocation   `json:"location" yaml:"location"`
	Sun            astro.SunState      `json:"sun" yaml:"sun"`
	Moon           astro.MoonState     `json:"moon" yaml:"moon"`
	Lighting       lighting.Parameters `json:"lighting" yaml:"lighting"`
	IsDay          bool                `json:"is_day" yaml:"is_day"`
	DayWeight      float64             `json:"day_weight" yaml:"day_weight"`
	BakedAt        time.Time           `json:"baked_at" yaml:"baked_at"`
}

// Catalog stores baked scenarios. Implementations must be safe for
// concurrent use.
type Catalog interface {
	// Names lists every stored scenario name in no particular order
	Names(ctx context.Context) ([]string, error)

	// Get returns the record stored under name
	Get(ctx context.Context, name string) (Record, error)

	// Save inserts or replaces the record with the same name
	Save(ctx context.Context, record Record) error

	// Delete removes a scenario; deleting a missing name is not an error
	Delete(ctx context.Context, name string) error
}
