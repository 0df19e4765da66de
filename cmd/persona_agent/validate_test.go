package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommand_Success(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "personas.json")
	personasJSON := `[
  {
    "id": "persona-001-01",
    "name": "Maya Chen",
    "attributes": {"occupation": "nurse"},
    "evaluation": {"overall_score": 0.82, "criteria": {}}
  }
]`
	_ = os.WriteFile(jsonPath, []byte(personasJSON), 0644)

	cmd := exec.Command(binaryPath, "validate", "--in", jsonPath)
	output, err := cmd.CombinedOutput()

	assert.NoError(t, err, "command should succeed")
	assert.Contains(t, string(output), "Validation passed", "output should indicate success")
}

func TestValidateCommand_InvalidPersonas(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "personas.json")
	// Missing required "name" field
	_ = os.WriteFile(jsonPath, []byte(`[{"id": "persona-001-01"}]`), 0644)

	cmd := exec.Command(binaryPath, "validate", "--in", jsonPath)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "problem(s)")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "validate", "--in", "does-not-exist.json")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "not found")
}
