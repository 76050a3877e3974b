// Command config-convert converts a YAML configuration file into the
// SQLite configuration schema used by the -config-backend=sqlite mode.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hydrolab/fishpass/pkg/config"
)

func main() {
	yamlFile := flag.String("yaml", "config.yaml", "Path to source YAML configuration")
	sqliteFile := flag.String("sqlite", "config.db", "Path to destination SQLite configuration database")
	flag.Parse()

	yamlPath, _ := filepath.Abs(*yamlFile)
	sqlitePath, _ := filepath.Abs(*sqliteFile)

	yamlProvider := config.NewYAMLProvider(yamlPath)
	cfg, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	sqliteProvider, err := config.NewSQLiteProvider(sqlitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.CreateSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating configuration schema: %v\n", err)
		os.Exit(1)
	}

	if err := sqliteProvider.SaveConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("converted %s -> %s (%d classification rules, %d axis limits)\n",
		yamlPath, sqlitePath, len(cfg.Classification), len(cfg.Plot.AxisLimits))
}
