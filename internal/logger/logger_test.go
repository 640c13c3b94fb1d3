package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("log line is not json: %q: %v", scanner.Text(), err)
		}
		lines = append(lines, entry)
	}
	return lines
}

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "landon.log")

	// 1MB is the smallest size lumberjack allows.
	cfg := FileConfig{
		Path:       logFile,
		MaxSizeMB:  1,
		MaxBackups: 2,
		MaxAgeDays: 1,
		Compress:   false,
	}
	if err := InitWithFileConfig("debug", cfg, false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Nop()

	longName := strings.Repeat("m", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infow("processed mesh", "mesh", longName, "index", i)
	}
	Sync()

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}

	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "landon.log" || !strings.HasPrefix(name, "landon") {
			continue
		}
		rotated++
		// Rotated files are named landon-YYYY-MM-DDTHH-MM-SS.SSS.log
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()
	defer Nop()

	tests := []struct {
		level string
		want  []string
	}{
		{"error", []string{"ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"bogus", []string{"INFO", "WARN", "ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")
			if err := InitWithFileConfig(tt.level, DefaultFileConfig(logFile), false); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			lines := readLines(t, logFile)
			if len(lines) != len(tt.want) {
				t.Fatalf("got %d lines, want %d", len(lines), len(tt.want))
			}
			for i, want := range tt.want {
				if lines[i]["level"] != want {
					t.Errorf("line %d level = %v, want %s", i, lines[i]["level"], want)
				}
			}
		})
	}
}

func TestStructuredFields(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "fields.log")
	if err := InitWithFileConfig("info", DefaultFileConfig(logFile), false); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Nop()

	Info("combined indices", zap.String("mesh", "Cube"), zap.Int("vertices", 24))
	Mesh("Suzanne").Warn("no normals")
	Sync()

	lines := readLines(t, logFile)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["mesh"] != "Cube" || lines[0]["vertices"] != float64(24) {
		t.Errorf("unexpected fields %v", lines[0])
	}
	if lines[1]["mesh"] != "Suzanne" || lines[1]["level"] != "WARN" {
		t.Errorf("Mesh logger fields %v", lines[1])
	}
}

func TestNop(t *testing.T) {
	Nop()
	// Must not panic or write anywhere.
	Info("discarded")
	Sugar.Debugf("discarded %d", 1)
	Sync()
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/landon.log")

	if cfg.Path != "/tmp/landon.log" {
		t.Errorf("expected path /tmp/landon.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("expected MaxSizeMB 20, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if cfg.MaxAgeDays != 14 {
		t.Errorf("expected MaxAgeDays 14, got %d", cfg.MaxAgeDays)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
