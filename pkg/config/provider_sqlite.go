package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	query := `
		SELECT log_file, delimiter, velocity_floor_enabled, velocity_floor,
		       color_scale_max, point_radius
		FROM pipeline
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var floorEnabled int
	err := s.db.QueryRow(query).Scan(
		&config.Input.LogFile,
		&config.Input.Delimiter,
		&floorEnabled,
		&config.Filter.VelocityFloor,
		&config.Plot.ColorScaleMax,
		&config.Plot.PointRadius,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	config.Filter.VelocityFloorEnabled = floorEnabled != 0

	limits, err := s.getAxisLimits()
	if err != nil {
		return nil, fmt.Errorf("failed to load axis limits: %w", err)
	}
	config.Plot.AxisLimits = limits

	rules, err := s.GetClassificationRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load classification rules: %w", err)
	}
	config.Classification = rules

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	rest, err := s.getRESTServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load REST server config: %w", err)
	}
	config.REST = rest

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetClassificationRules returns the ordered rule table from the database.
// Evaluation order is the stored position, not insertion order.
func (s *SQLiteProvider) GetClassificationRules() ([]ClassificationRuleData, error) {
	query := `
		SELECT section_min, section_max, xs_min, xs_max, key
		FROM classification_rules
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY position
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification rules: %w", err)
	}
	defer rows.Close()

	var rules []ClassificationRuleData
	for rows.Next() {
		var r ClassificationRuleData
		err := rows.Scan(&r.SectionMin, &r.SectionMax, &r.XSMin, &r.XSMax, &r.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classification rule: %w", err)
		}
		rules = append(rules, r)
	}

	return rules, rows.Err()
}

// GetStorageConfig returns the storage backend configuration from the database
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	query := `
		SELECT csv_path, sqlite_path, timescaledb_connection
		FROM storage
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	storage := &StorageData{}
	var csvPath, sqlitePath, timescaleConn sql.NullString

	err := s.db.QueryRow(query).Scan(&csvPath, &sqlitePath, &timescaleConn)
	if err == sql.ErrNoRows {
		return storage, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query storage config: %w", err)
	}

	if csvPath.Valid && csvPath.String != "" {
		storage.CSV = &CSVData{Path: csvPath.String}
	}
	if sqlitePath.Valid && sqlitePath.String != "" {
		storage.SQLite = &SQLiteData{Path: sqlitePath.String}
	}
	if timescaleConn.Valid && timescaleConn.String != "" {
		storage.TimescaleDB = &TimescaleDBData{ConnectionString: timescaleConn.String}
	}

	return storage, nil
}

func (s *SQLiteProvider) getAxisLimits() ([]AxisLimitData, error) {
	query := `
		SELECT xs, left_limit, right_limit
		FROM axis_limits
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
		ORDER BY xs
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query axis limits: %w", err)
	}
	defer rows.Close()

	var limits []AxisLimitData
	for rows.Next() {
		var l AxisLimitData
		if err := rows.Scan(&l.XS, &l.Left, &l.Right); err != nil {
			return nil, fmt.Errorf("failed to scan axis limit: %w", err)
		}
		limits = append(limits, l)
	}

	return limits, rows.Err()
}

func (s *SQLiteProvider) getRESTServer() (*RESTServerData, error) {
	query := `
		SELECT listen_addr, port
		FROM rest_server
		WHERE config_id = (SELECT id FROM configs WHERE name = 'default')
	`

	var rest RESTServerData
	var listenAddr sql.NullString

	err := s.db.QueryRow(query).Scan(&listenAddr, &rest.Port)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query REST server config: %w", err)
	}
	rest.ListenAddr = listenAddr.String

	return &rest, nil
}

// IsReadOnly returns false since SQLite configurations can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateSchema creates the configuration tables if they do not exist.
// Used by the config-convert tool when writing a fresh database.
func (s *SQLiteProvider) CreateSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS pipeline (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			log_file TEXT NOT NULL DEFAULT '',
			delimiter TEXT NOT NULL DEFAULT 'STOP',
			velocity_floor_enabled INTEGER NOT NULL DEFAULT 0,
			velocity_floor REAL NOT NULL DEFAULT 0,
			color_scale_max REAL NOT NULL DEFAULT 0,
			point_radius REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS axis_limits (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			xs INTEGER NOT NULL,
			left_limit REAL NOT NULL,
			right_limit REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS classification_rules (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			position INTEGER NOT NULL,
			section_min INTEGER NOT NULL,
			section_max INTEGER NOT NULL DEFAULT 0,
			xs_min REAL NOT NULL,
			xs_max REAL NOT NULL,
			key INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS storage (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			csv_path TEXT,
			sqlite_path TEXT,
			timescaledb_connection TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS rest_server (
			config_id INTEGER NOT NULL REFERENCES configs(id),
			listen_addr TEXT,
			port INTEGER NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// SaveConfig writes a complete configuration into the database under the
// 'default' config name, replacing whatever was there before.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO configs (name) VALUES ('default')`); err != nil {
		return fmt.Errorf("failed to insert config row: %w", err)
	}

	var configID int64
	if err := tx.QueryRow(`SELECT id FROM configs WHERE name = 'default'`).Scan(&configID); err != nil {
		return fmt.Errorf("failed to look up config id: %w", err)
	}

	for _, table := range []string{"pipeline", "axis_limits", "classification_rules", "storage", "rest_server"} {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE config_id = ?`, table), configID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	floorEnabled := 0
	if config.Filter.VelocityFloorEnabled {
		floorEnabled = 1
	}
	_, err = tx.Exec(`
		INSERT INTO pipeline (config_id, log_file, delimiter, velocity_floor_enabled,
		                      velocity_floor, color_scale_max, point_radius)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		configID, config.Input.LogFile, config.Input.Delimiter, floorEnabled,
		config.Filter.VelocityFloor, config.Plot.ColorScaleMax, config.Plot.PointRadius)
	if err != nil {
		return fmt.Errorf("failed to insert pipeline config: %w", err)
	}

	for _, l := range config.Plot.AxisLimits {
		_, err = tx.Exec(`
			INSERT INTO axis_limits (config_id, xs, left_limit, right_limit)
			VALUES (?, ?, ?, ?)`,
			configID, l.XS, l.Left, l.Right)
		if err != nil {
			return fmt.Errorf("failed to insert axis limit: %w", err)
		}
	}

	for i, r := range config.Classification {
		_, err = tx.Exec(`
			INSERT INTO classification_rules (config_id, position, section_min,
			                                  section_max, xs_min, xs_max, key)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			configID, i, r.SectionMin, r.SectionMax, r.XSMin, r.XSMax, r.Key)
		if err != nil {
			return fmt.Errorf("failed to insert classification rule: %w", err)
		}
	}

	var csvPath, sqlitePath, timescaleConn string
	if config.Storage.CSV != nil {
		csvPath = config.Storage.CSV.Path
	}
	if config.Storage.SQLite != nil {
		sqlitePath = config.Storage.SQLite.Path
	}
	if config.Storage.TimescaleDB != nil {
		timescaleConn = config.Storage.TimescaleDB.ConnectionString
	}
	_, err = tx.Exec(`
		INSERT INTO storage (config_id, csv_path, sqlite_path, timescaledb_connection)
		VALUES (?, ?, ?, ?)`,
		configID, csvPath, sqlitePath, timescaleConn)
	if err != nil {
		return fmt.Errorf("failed to insert storage config: %w", err)
	}

	if config.REST != nil {
		_, err = tx.Exec(`
			INSERT INTO rest_server (config_id, listen_addr, port)
			VALUES (?, ?, ?)`,
			configID, config.REST.ListenAddr, config.REST.Port)
		if err != nil {
			return fmt.Errorf("failed to insert REST server config: %w", err)
		}
	}

	return tx.Commit()
}
