package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fsCall(t *testing.T, tool *FilesystemTool, args map[string]any) (string, error) {
	t.Helper()
	input, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	return tool.Execute(context.Background(), string(input))
}

func TestFilesystemTool_WriteReadEdit(t *testing.T) {
	dir := t.TempDir()
	tool := NewFilesystemTool(dir)

	if _, err := fsCall(t, tool, map[string]any{
		"command": "write", "filename": "notes.txt",
		"content": "alpha\nbeta\ngamma\n",
	}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out, err := fsCall(t, tool, map[string]any{"command": "read", "filename": "notes.txt"})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out != "alpha\nbeta\ngamma\n" {
		t.Errorf("unexpected content: %q", out)
	}

	if _, err := fsCall(t, tool, map[string]any{
		"command": "edit", "filename": "notes.txt",
		"old_str": "beta\n", "new_str": "delta\n",
	}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "notes.txt"))
	if string(data) != "alpha\ndelta\ngamma\n" {
		t.Errorf("edit result wrong: %q", data)
	}
}

func TestFilesystemTool_EditRequiresUniqueMatch(t *testing.T) {
	dir := t.TempDir()
	tool := NewFilesystemTool(dir)

	if _, err := fsCall(t, tool, map[string]any{
		"command": "write", "filename": "dup.txt", "content": "x\nx\n",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := fsCall(t, tool, map[string]any{
		"command": "edit", "filename": "dup.txt", "old_str": "x\n", "new_str": "y\n",
	}); err == nil {
		t.Error("ambiguous old_str should fail")
	}

	if _, err := fsCall(t, tool, map[string]any{
		"command": "edit", "filename": "dup.txt", "old_str": "absent", "new_str": "y",
	}); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("missing old_str should fail, got %v", err)
	}
}

func TestFilesystemTool_RejectsEscapingPaths(t *testing.T) {
	tool := NewFilesystemTool(t.TempDir())
	if _, err := fsCall(t, tool, map[string]any{
		"command": "read", "filename": "../../etc/passwd",
	}); err == nil {
		t.Error("path escaping the workspace root must be rejected")
	}
}
