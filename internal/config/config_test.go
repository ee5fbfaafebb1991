package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(c, Defaults()) {
		t.Fatalf("defaults mismatch:\n got %+v\nwant %+v", c, Defaults())
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Mode = "test"
	c.ImbalanceThreshold = 0.25
	c.ScanExtensions = []string{".json", ".yaml"}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Mode != "test" || got.ImbalanceThreshold != 0.25 || len(got.ScanExtensions) != 2 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SKELAUDIT_DATA_DIR", "/srv/out")
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "/srv/out" {
		t.Fatalf("env override ignored: %q", c.DataDir)
	}
}

func TestLoadRejectsBadFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("report_format: xml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsFixedKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("sentinel: 0.3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "sentinel") {
		t.Fatalf("expected sentinel rejection, got %v", err)
	}

	t.Setenv("SKELAUDIT_PROGRESS_EVERY", "50")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "progress_every") {
		t.Fatalf("expected progress_every rejection, got %v", err)
	}
}
