package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "disabled")

	var out bytes.Buffer
	cmd := newRootCommand("test", "none", "today")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const projectYAML = `name: app
requirements:
  - flask
requirements_locked:
  - name: flask
    version: 3.0.0
    index: https://pypi.org/simple
runtime_environment:
  operating_system:
    name: rhel
    version: "9.2"
  python_version: "3.11"
`

const seedYAML = `indexes:
  - url: https://pypi.org/simple
    enabled: true
solver_results:
  - package:
      name: flask
      version: 3.0.0
      index: https://pypi.org/simple
    environment:
      os_name: rhel
      os_version: "9.2"
      python_version: "3.11"
    solved: true
`

func TestUnitsCommand(t *testing.T) {
	out, err := execute(t, "units", "-o", "json")
	if err != nil {
		t.Fatalf("units error = %v", err)
	}

	var listed []map[string]any
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(listed) == 0 {
		t.Fatal("no units listed")
	}
}

func TestBuildCommand_PrintsPipeline(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeFile(t, dir, "project.yaml", projectYAML)

	out, err := execute(t, "build", "--project", projectPath, "-o", "json")
	if err != nil {
		t.Fatalf("build error = %v", err)
	}

	var doc map[string][]map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(doc["boots"]) == 0 || len(doc["strides"]) == 0 {
		t.Errorf("pipeline document = %v, want boots and strides", doc)
	}
}

func TestBuildCommand_UnknownMode(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeFile(t, dir, "project.yaml", projectYAML)

	if _, err := execute(t, "build", "--project", projectPath, "--mode", "resolver"); err == nil {
		t.Fatal("expected unknown mode error")
	}
}

func TestGraphImportAndEvaluate(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeFile(t, dir, "project.yaml", projectYAML)
	seedPath := writeFile(t, dir, "seed.yaml", seedYAML)
	dbPath := filepath.Join(dir, "kg.db")

	out, err := execute(t, "graph", "import", "--graph", dbPath, seedPath)
	if err != nil {
		t.Fatalf("graph import error = %v", err)
	}
	if !strings.Contains(out, "1 indexes, 1 solver results, 0 observations") {
		t.Errorf("import output = %q", out)
	}

	out, err = execute(t, "build", "--project", projectPath, "--graph", dbPath, "--evaluate", "-o", "json")
	if err != nil {
		t.Fatalf("build --evaluate error = %v", err)
	}

	var r struct {
		Products []struct {
			Packages []struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"packages"`
		} `json:"products"`
	}
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(r.Products) != 1 || len(r.Products[0].Packages) != 1 || r.Products[0].Packages[0].Name != "flask" {
		t.Errorf("report = %+v, want one product with flask", r)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "sieves:\n  - name: CutPrereleasesSieve\n")
	bad := writeFile(t, dir, "bad.yaml", "sieves:\n  - name: NoSuchSieve\n")

	out, err := execute(t, "validate", good)
	if err != nil {
		t.Fatalf("validate error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok (1 units)") {
		t.Errorf("validate output = %q", out)
	}

	if _, err := execute(t, "validate", good, bad); err == nil {
		t.Fatal("expected validation failure for unknown unit")
	}
}
