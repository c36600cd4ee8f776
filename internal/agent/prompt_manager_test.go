package agent

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptManager_GetPlannerPrompt(t *testing.T) {
	tempDir := t.TempDir()

	files := map[string]string{
		"identity.md":     "Identity Content",
		"capabilities.md": "Capabilities Content",
		"safety.md":       "Safety Content",
		"planner.md":      "Planner Content",
		"extra.md":        "Extra Content",
	}

	for name, content := range files {
		err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}

	pm := NewPromptManager(tempDir)
	prompt, err := pm.GetPlannerPrompt()
	if err != nil {
		t.Fatal(err)
	}

	expectedParts := []string{
		"Identity Content",
		"Capabilities Content",
		"Safety Content",
		"Planner Content",
		"Extra Content",
	}

	for _, part := range expectedParts {
		if !strings.Contains(prompt, part) {
			t.Errorf("Prompt missing expected part: %s", part)
		}
	}

	// Verify order
	if strings.Index(prompt, "Identity Content") >= strings.Index(prompt, "Capabilities Content") {
		t.Error("Identity should be before Capabilities")
	}
	if strings.Index(prompt, "Capabilities Content") >= strings.Index(prompt, "Safety Content") {
		t.Error("Capabilities should be before Safety")
	}
	if strings.Index(prompt, "Safety Content") >= strings.Index(prompt, "Planner Content") {
		t.Error("Safety should be before Planner")
	}
}

func TestPromptManager_EmptyDirectory(t *testing.T) {
	pm := NewPromptManager(t.TempDir())
	if _, err := pm.GetPlannerPrompt(); err == nil {
		t.Error("expected an error for a directory with no prompt files")
	}
}
