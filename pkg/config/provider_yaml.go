package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// YAML-tagged mirror structs used only for unmarshaling
type yamlConfig struct {
	Input          inputYAML        `yaml:"input"`
	Filter         filterYAML       `yaml:"filter,omitempty"`
	Plot           plotYAML         `yaml:"plot,omitempty"`
	Classification []ruleYAML       `yaml:"classification"`
	Storage        storageYAML      `yaml:"storage,omitempty"`
	REST           *restServerYAML  `yaml:"rest,omitempty"`
}

type inputYAML struct {
	LogFile   string `yaml:"log_file"`
	Delimiter string `yaml:"delimiter,omitempty"`
}

type filterYAML struct {
	VelocityFloorEnabled bool    `yaml:"velocity_floor_enabled,omitempty"`
	VelocityFloor        float64 `yaml:"velocity_floor,omitempty"`
}

type plotYAML struct {
	ColorScaleMax float64         `yaml:"color_scale_max,omitempty"`
	PointRadius   float64         `yaml:"point_radius,omitempty"`
	AxisLimits    []axisLimitYAML `yaml:"axis_limits,omitempty"`
}

type axisLimitYAML struct {
	XS    int     `yaml:"xs"`
	Left  float64 `yaml:"left"`
	Right float64 `yaml:"right"`
}

type ruleYAML struct {
	SectionMin int     `yaml:"section_min"`
	SectionMax int     `yaml:"section_max,omitempty"`
	XSMin      float64 `yaml:"xs_min"`
	XSMax      float64 `yaml:"xs_max"`
	Key        int     `yaml:"key"`
}

type storageYAML struct {
	CSV         *csvYAML         `yaml:"csv,omitempty"`
	SQLite      *sqliteYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *timescaleDBYAML `yaml:"timescaledb,omitempty"`
}

type csvYAML struct {
	Path string `yaml:"path"`
}

type sqliteYAML struct {
	Path string `yaml:"path"`
}

type timescaleDBYAML struct {
	ConnectionString string `yaml:"connection_string"`
}

type restServerYAML struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
	Port       int    `yaml:"port"`
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var raw yamlConfig
	err = yaml.Unmarshal(cfgFile, &raw)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Input: InputData{
			LogFile:   raw.Input.LogFile,
			Delimiter: raw.Input.Delimiter,
		},
		Filter: FilterData{
			VelocityFloorEnabled: raw.Filter.VelocityFloorEnabled,
			VelocityFloor:        raw.Filter.VelocityFloor,
		},
		Plot: PlotData{
			ColorScaleMax: raw.Plot.ColorScaleMax,
			PointRadius:   raw.Plot.PointRadius,
			AxisLimits:    make([]AxisLimitData, len(raw.Plot.AxisLimits)),
		},
		Classification: make([]ClassificationRuleData, len(raw.Classification)),
	}

	for i, l := range raw.Plot.AxisLimits {
		config.Plot.AxisLimits[i] = AxisLimitData{
			XS:    l.XS,
			Left:  l.Left,
			Right: l.Right,
		}
	}

	// Rule order in the file is the evaluation order
	for i, r := range raw.Classification {
		config.Classification[i] = ClassificationRuleData{
			SectionMin: r.SectionMin,
			SectionMax: r.SectionMax,
			XSMin:      r.XSMin,
			XSMax:      r.XSMax,
			Key:        r.Key,
		}
	}

	// Convert storage
	config.Storage = StorageData{}
	if raw.Storage.CSV != nil {
		config.Storage.CSV = &CSVData{
			Path: raw.Storage.CSV.Path,
		}
	}
	if raw.Storage.SQLite != nil {
		config.Storage.SQLite = &SQLiteData{
			Path: raw.Storage.SQLite.Path,
		}
	}
	if raw.Storage.TimescaleDB != nil {
		config.Storage.TimescaleDB = &TimescaleDBData{
			ConnectionString: raw.Storage.TimescaleDB.ConnectionString,
		}
	}

	if raw.REST != nil {
		config.REST = &RESTServerData{
			ListenAddr: raw.REST.ListenAddr,
			Port:       raw.REST.Port,
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	y.config = config
	return config, nil
}

// GetClassificationRules returns the ordered classification rule table
func (y *YAMLProvider) GetClassificationRules() ([]ClassificationRuleData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return y.config.Classification, nil
}

// GetStorageConfig returns the storage backend configuration
func (y *YAMLProvider) GetStorageConfig() (*StorageData, error) {
	if y.config == nil {
		if _, err := y.LoadConfig(); err != nil {
			return nil, err
		}
	}
	return &y.config.Storage, nil
}

// IsReadOnly returns true since YAML files are read-only in this implementation
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}
