package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pulpitgraph/internal/graph"
	"github.com/starford/pulpitgraph/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Storage  StorageConfig     `yaml:"storage"`
	Index    IndexConfig       `yaml:"index"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Graph    GraphConfig       `yaml:"graph"`
	Events   EventsConfig      `yaml:"events"`
	Seed     SeedConfig        `yaml:"seed"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.App, &c.Storage, &c.Index, &c.Autosave, &c.Graph, &c.Events, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the persistence driver for notes, folders and
// diagrams. Watch enables reloading when the fs driver's files are edited
// by another process.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(storage.DriverFS, storage.DriverSQLite, storage.DriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != storage.DriverMemory, validation.Required)),
	)
}

// IndexConfig holds the search index database path.
type IndexConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AutosaveConfig holds the debounce delays of note content and diagrams.
type AutosaveConfig struct {
	ContentDelay time.Duration `yaml:"content_delay"`
	DiagramDelay time.Duration `yaml:"diagram_delay"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentDelay, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&c.DiagramDelay, validation.Required, validation.Min(10*time.Millisecond)),
	)
}

// GraphConfig holds the knowledge-graph layout parameters.
type GraphConfig struct {
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Iterations int     `yaml:"iterations"`
	Seed       uint64  `yaml:"seed"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Width, validation.Required, validation.Min(100.0)),
		validation.Field(&c.Height, validation.Required, validation.Min(100.0)),
		validation.Field(&c.Iterations, validation.Required, validation.Min(1), validation.Max(10000)),
	)
}

// LayoutOptions converts the section to graph layout options.
func (c *GraphConfig) LayoutOptions() graph.LayoutOptions {
	return graph.LayoutOptions{Width: c.Width, Height: c.Height, Iterations: c.Iterations, Seed: c.Seed}
}

// EventsConfig tunes the SSE broker.
type EventsConfig struct {
	GraphThrottle time.Duration `yaml:"graph_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GraphThrottle, validation.Min(time.Duration(0))),
	)
}

// SeedConfig points at an optional seed document applied to an empty store.
type SeedConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	layout := graph.DefaultLayoutOptions()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverFS,
			Path:   "./data",
			Watch:  true,
		},
		Index: IndexConfig{
			Path: "./pulpitgraph.db",
		},
		Autosave: AutosaveConfig{
			ContentDelay: 2 * time.Second,
			DiagramDelay: 2 * time.Second,
		},
		Graph: GraphConfig{
			Width:      layout.Width,
			Height:     layout.Height,
			Iterations: layout.Iterations,
			Seed:       layout.Seed,
		},
		Events: EventsConfig{
			GraphThrottle: 2 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
