package config

import "fmt"

// DefaultDelimiter is the token that separates sections in the simulator
// log when the configuration does not name one.
const DefaultDelimiter = "STOP"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetClassificationRules() ([]ClassificationRuleData, error)
	GetStorageConfig() (*StorageData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Input          InputData                `json:"input"`
	Filter         FilterData               `json:"filter,omitempty"`
	Plot           PlotData                 `json:"plot,omitempty"`
	Classification []ClassificationRuleData `json:"classification"`
	Storage        StorageData              `json:"storage,omitempty"`
	REST           *RESTServerData          `json:"rest,omitempty"`
}

// InputData holds configuration for the log file to be analyzed
type InputData struct {
	LogFile   string `json:"log_file"`
	Delimiter string `json:"delimiter,omitempty"`
}

// FilterData holds the optional velocity-floor filter applied to particle
// collections handed to downstream consumers
type FilterData struct {
	VelocityFloorEnabled bool    `json:"velocity_floor_enabled,omitempty"`
	VelocityFloor        float64 `json:"velocity_floor,omitempty"`
}

// PlotData holds presentation parameters consumed by downstream plotting
// collaborators.  The core pipeline only forwards these values.
type PlotData struct {
	ColorScaleMax float64         `json:"color_scale_max,omitempty"`
	PointRadius   float64         `json:"point_radius,omitempty"`
	AxisLimits    []AxisLimitData `json:"axis_limits,omitempty"`
}

// AxisLimitData holds the horizontal plot limits for one cross-section key
type AxisLimitData struct {
	XS    int     `json:"xs"`
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// ClassificationRuleData is one ordered threshold rule mapping a section
// ordinal range plus a mean-XS range to a cross-section key.  Ranges are
// inclusive on both ends; SectionMax 0 means no upper section bound.
type ClassificationRuleData struct {
	SectionMin int     `json:"section_min"`
	SectionMax int     `json:"section_max,omitempty"`
	XSMin      float64 `json:"xs_min"`
	XSMax      float64 `json:"xs_max"`
	Key        int     `json:"key"`
}

// StorageData holds the configuration for various result storage backends
type StorageData struct {
	CSV         *CSVData         `json:"csv,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty"`
}

// Storage backend configuration structs
type CSVData struct {
	Path string `json:"path"`
}

type SQLiteData struct {
	Path string `json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string"`
}

// RESTServerData holds the configuration for the results API server
type RESTServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Port       int    `json:"port"`
}

// Validate checks a loaded configuration for values the pipeline cannot
// work with.  A missing log file path is allowed here because the -logfile
// flag may supply it later.
func (c *ConfigData) Validate() error {
	if c.Input.Delimiter == "" {
		c.Input.Delimiter = DefaultDelimiter
	}

	for i, r := range c.Classification {
		if r.Key == 0 {
			return fmt.Errorf("classification rule %d: key must be a non-zero cross-section code", i)
		}
		if r.SectionMin < 0 || (r.SectionMax != 0 && r.SectionMax < r.SectionMin) {
			return fmt.Errorf("classification rule %d: invalid section range [%d, %d]", i, r.SectionMin, r.SectionMax)
		}
		if r.XSMax < r.XSMin {
			return fmt.Errorf("classification rule %d: invalid xs range [%g, %g]", i, r.XSMin, r.XSMax)
		}
	}

	if c.Filter.VelocityFloorEnabled && c.Filter.VelocityFloor < 0 {
		return fmt.Errorf("velocity floor must be non-negative, got %g", c.Filter.VelocityFloor)
	}

	if c.REST != nil && (c.REST.Port < 1 || c.REST.Port > 65535) {
		return fmt.Errorf("invalid REST server port: %d", c.REST.Port)
	}

	return nil
}

// AxisLimitsByKey returns the configured plot limits indexed by
// cross-section key code.
func (c *ConfigData) AxisLimitsByKey() map[int]AxisLimitData {
	limits := make(map[int]AxisLimitData, len(c.Plot.AxisLimits))
	for _, l := range c.Plot.AxisLimits {
		limits[l.XS] = l
	}
	return limits
}
