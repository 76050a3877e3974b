package config

import (
	"path/filepath"
	"testing"
)

func TestSQLiteProviderRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")

	provider, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("could not create provider: %v", err)
	}
	defer provider.Close()

	if err := provider.CreateSchema(); err != nil {
		t.Fatalf("could not create schema: %v", err)
	}

	original := &ConfigData{
		Input: InputData{
			LogFile:   "/data/fishpass.log",
			Delimiter: "STOP",
		},
		Filter: FilterData{
			VelocityFloorEnabled: true,
			VelocityFloor:        0.03,
		},
		Plot: PlotData{
			ColorScaleMax: 1.6,
			PointRadius:   10,
			AxisLimits: []AxisLimitData{
				{XS: 11, Left: -1.1, Right: 1.3},
			},
		},
		Classification: []ClassificationRuleData{
			{SectionMin: 1, SectionMax: 19, XSMin: 1, XSMax: 1.999, Key: 11},
			{SectionMin: 20, SectionMax: 0, XSMin: 1, XSMax: 1.999, Key: 12},
		},
		Storage: StorageData{
			CSV: &CSVData{Path: "Values.csv"},
		},
		REST: &RESTServerData{ListenAddr: "127.0.0.1", Port: 8080},
	}

	if err := provider.SaveConfig(original); err != nil {
		t.Fatalf("could not save config: %v", err)
	}

	loaded, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("could not load config: %v", err)
	}

	if loaded.Input.LogFile != original.Input.LogFile {
		t.Errorf("log file: expected %q, got %q", original.Input.LogFile, loaded.Input.LogFile)
	}
	if loaded.Input.Delimiter != "STOP" {
		t.Errorf("delimiter: expected STOP, got %q", loaded.Input.Delimiter)
	}
	if !loaded.Filter.VelocityFloorEnabled || loaded.Filter.VelocityFloor != 0.03 {
		t.Errorf("unexpected filter: %+v", loaded.Filter)
	}
	if loaded.Plot.ColorScaleMax != 1.6 || loaded.Plot.PointRadius != 10 {
		t.Errorf("unexpected plot config: %+v", loaded.Plot)
	}

	if len(loaded.Plot.AxisLimits) != 1 {
		t.Fatalf("expected 1 axis limit, got %d", len(loaded.Plot.AxisLimits))
	}
	if l := loaded.Plot.AxisLimits[0]; l.XS != 11 || l.Left != -1.1 || l.Right != 1.3 {
		t.Errorf("unexpected axis limit: %+v", l)
	}

	if len(loaded.Classification) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(loaded.Classification))
	}
	// Rule order must survive the round trip: it is the evaluation order
	if loaded.Classification[0].Key != 11 || loaded.Classification[1].Key != 12 {
		t.Errorf("rule order not preserved: %+v", loaded.Classification)
	}

	if loaded.Storage.CSV == nil || loaded.Storage.CSV.Path != "Values.csv" {
		t.Errorf("unexpected CSV storage: %+v", loaded.Storage.CSV)
	}
	if loaded.Storage.TimescaleDB != nil {
		t.Error("TimescaleDB storage should be absent")
	}

	if loaded.REST == nil || loaded.REST.Port != 8080 || loaded.REST.ListenAddr != "127.0.0.1" {
		t.Errorf("unexpected REST config: %+v", loaded.REST)
	}
}

func TestSQLiteProviderSaveTwice(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")

	provider, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("could not create provider: %v", err)
	}
	defer provider.Close()

	if err := provider.CreateSchema(); err != nil {
		t.Fatalf("could not create schema: %v", err)
	}

	cfg := &ConfigData{
		Input: InputData{LogFile: "first.log", Delimiter: "STOP"},
		Classification: []ClassificationRuleData{
			{SectionMin: 1, XSMin: 0, XSMax: 10, Key: 11},
		},
	}
	if err := provider.SaveConfig(cfg); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	cfg.Input.LogFile = "second.log"
	if err := provider.SaveConfig(cfg); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("could not load config: %v", err)
	}
	if loaded.Input.LogFile != "second.log" {
		t.Errorf("expected second.log, got %q", loaded.Input.LogFile)
	}
	// SaveConfig replaces, never appends
	if len(loaded.Classification) != 1 {
		t.Errorf("expected 1 rule after re-save, got %d", len(loaded.Classification))
	}
}
