package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeSpecFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec file: %v", err)
	}
	return path
}

func TestLoadSpecFileJSON(t *testing.T) {
	content := `{"base_url":"https://example.com","steps":[{"name":"fetch","strategy":"http"}]}`

	raw, err := LoadSpecFile(writeSpecFile(t, "spec.json", content))
	if err != nil {
		t.Fatalf("LoadSpecFile: %v", err)
	}

	// JSON отправляется как есть
	if string(raw) != content {
		t.Errorf("raw = %s, want passthrough", raw)
	}
}

func TestLoadSpecFileYAML(t *testing.T) {
	content := `base_url: https://example.com
steps:
  - name: fetch
    strategy: http
    config:
      timeout_sec: 30
`

	raw, err := LoadSpecFile(writeSpecFile(t, "spec.yaml", content))
	if err != nil {
		t.Fatalf("LoadSpecFile: %v", err)
	}

	var spec map[string]any
	if err := json.Unmarshal(raw, &spec); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}

	if spec["base_url"] != "https://example.com" {
		t.Errorf("base_url = %v", spec["base_url"])
	}

	steps, ok := spec["steps"].([]any)
	if !ok || len(steps) != 1 {
		t.Fatalf("steps = %v", spec["steps"])
	}
	step := steps[0].(map[string]any)
	if step["name"] != "fetch" || step["strategy"] != "http" {
		t.Errorf("step = %v", step)
	}

	cfg := step["config"].(map[string]any)
	if cfg["timeout_sec"] != float64(30) {
		t.Errorf("timeout_sec = %v (%T)", cfg["timeout_sec"], cfg["timeout_sec"])
	}
}

func TestLoadSpecFileGarbage(t *testing.T) {
	if _, err := LoadSpecFile(writeSpecFile(t, "spec.yaml", "{ unclosed")); err == nil {
		t.Error("expected error for file that is neither JSON nor YAML")
	}
}

func TestLoadSpecFileMissing(t *testing.T) {
	if _, err := LoadSpecFile("/nonexistent/spec.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
