package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joshuapare/memkit/mem"
	"github.com/joshuapare/memkit/mem/rewind"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// hermeticEnv points the global config lookup at an empty (or prepared)
// temp dir so the host environment never leaks into a test.
func hermeticEnv(xdgDir string) []string {
	return []string{"XDG_CONFIG_HOME=" + xdgDir}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	cfg, sources, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ScratchBytes != mem.DefaultScratchBytes {
		t.Errorf("ScratchBytes = %d, want %d", cfg.ScratchBytes, int64(mem.DefaultScratchBytes))
	}

	if cfg.ChunkBytes != rewind.DefaultChunkSize {
		t.Errorf("ChunkBytes = %d, want %d", cfg.ChunkBytes, int64(rewind.DefaultChunkSize))
	}

	if sources.Global != "" || sources.Project != "" {
		t.Errorf("no config files exist, but sources = %+v", sources)
	}
}

func TestLoadConfigProjectFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"scratch_bytes": 1048576}`)

	cfg, sources, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ScratchBytes != 1048576 {
		t.Errorf("ScratchBytes = %d, want 1048576", cfg.ScratchBytes)
	}

	// Fields the file omits keep their defaults.
	if cfg.ChunkBytes != rewind.DefaultChunkSize {
		t.Errorf("ChunkBytes = %d, want default", cfg.ChunkBytes)
	}

	if sources.Project != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Project source = %q", sources.Project)
	}
}

func TestLoadConfigJSONCComments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{
		// Budget for the bump region.
		"scratch_bytes": 2097152,
		"report_dir": "out", // trailing comma below is fine too
	}`)

	cfg, _, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ScratchBytes != 2097152 {
		t.Errorf("ScratchBytes = %d, want 2097152", cfg.ScratchBytes)
	}

	if cfg.ReportDir != "out" {
		t.Errorf("ReportDir = %q, want %q", cfg.ReportDir, "out")
	}
}

func TestLoadConfigGlobalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(xdg, "memctl", "config.json"), `{"chunk_bytes": 65536}`)

	cfg, sources, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ChunkBytes != 65536 {
		t.Errorf("ChunkBytes = %d, want 65536", cfg.ChunkBytes)
	}

	if sources.Global != filepath.Join(xdg, "memctl", "config.json") {
		t.Errorf("Global source = %q", sources.Global)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	// Global sets everything; project overrides one field; CLI a second.
	writeFile(t, filepath.Join(xdg, "memctl", "config.json"),
		`{"scratch_bytes": 100, "chunk_bytes": 200, "report_dir": "global"}`)
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"chunk_bytes": 300}`)

	cfg, _, err := LoadConfig(dir, "", Config{ReportDir: "cli"}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ScratchBytes != 100 {
		t.Errorf("ScratchBytes = %d, want 100 (global)", cfg.ScratchBytes)
	}

	if cfg.ChunkBytes != 300 {
		t.Errorf("ChunkBytes = %d, want 300 (project over global)", cfg.ChunkBytes)
	}

	if cfg.ReportDir != "cli" {
		t.Errorf("ReportDir = %q, want %q (CLI over files)", cfg.ReportDir, "cli")
	}
}

func TestLoadConfigExplicitFileWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"scratch_bytes": 111}`)
	writeFile(t, filepath.Join(dir, "custom.json"), `{"scratch_bytes": 222}`)

	cfg, sources, err := LoadConfig(dir, "custom.json", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.ScratchBytes != 222 {
		t.Errorf("ScratchBytes = %d, want 222 (explicit file)", cfg.ScratchBytes)
	}

	if sources.Project != filepath.Join(dir, "custom.json") {
		t.Errorf("Project source = %q", sources.Project)
	}
}

func TestLoadConfigExplicitFileMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	_, _, err := LoadConfig(dir, "nope.json", Config{}, hermeticEnv(xdg))
	if !errors.Is(err, errConfigFileNotFound) {
		t.Errorf("err = %v, want errConfigFileNotFound", err)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{not json at all`)

	_, _, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if !errors.Is(err, errConfigInvalid) {
		t.Errorf("err = %v, want errConfigInvalid", err)
	}
}

func TestLoadConfigNegativeBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"scratch_bytes": -1}`)

	_, _, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if !errors.Is(err, errBytesNegative) {
		t.Errorf("err = %v, want errBytesNegative", err)
	}
}

func TestLoadConfigMissingProjectFileIsFine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	xdg := t.TempDir()

	_, sources, err := LoadConfig(dir, "", Config{}, hermeticEnv(xdg))
	if err != nil {
		t.Fatalf("missing optional files should not error: %v", err)
	}

	if sources.Project != "" {
		t.Errorf("Project source = %q, want empty", sources.Project)
	}
}

func TestFormatConfig(t *testing.T) {
	t.Parallel()

	out, err := FormatConfig(Config{ScratchBytes: 42, ReportDir: "r"})
	if err != nil {
		t.Fatalf("FormatConfig: %v", err)
	}

	if !strings.Contains(out, `"scratch_bytes": 42`) {
		t.Errorf("formatted config missing scratch_bytes: %s", out)
	}
}
