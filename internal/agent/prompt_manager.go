package agent

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

// GetPlannerPrompt composes the planner's system prompt from the markdown
// files in the prompt directory, known files first in a fixed order.
func (pm *PromptManager) GetPlannerPrompt() (string, error) {
	files, err := os.ReadDir(pm.Directory)
	if err != nil {
		return "", fmt.Errorf("failed to read prompts directory: %v", err)
	}

	// Sort files to ensure deterministic prompt order
	order := map[string]int{
		"identity.md":     1,
		"capabilities.md": 2,
		"safety.md":       3,
		"planner.md":      4,
	}

	sorted := make([]os.DirEntry, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		oi, okI := order[sorted[i].Name()]
		oj, okJ := order[sorted[j].Name()]
		if okI && okJ {
			return oi < oj
		}
		if okI {
			return true
		}
		if okJ {
			return false
		}
		return sorted[i].Name() < sorted[j].Name()
	})

	var contents []string
	for _, f := range sorted {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(pm.Directory, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Warning: Failed to read prompt file %s: %v", path, err)
			continue
		}
		contents = append(contents, string(data))
	}

	if len(contents) == 0 {
		return "", fmt.Errorf("no prompt files found in %s", pm.Directory)
	}

	return strings.Join(contents, "\n\n---\n\n"), nil
}
