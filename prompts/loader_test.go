package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetPromptDefault(t *testing.T) {
	got, err := GetPrompt(KeyExtractTasks, "")
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if got != ExtractTasksSystemPrompt {
		t.Error("empty templates dir should return the built-in prompt")
	}
}

func TestGetPromptOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "You are a very particular analyst."
	if err := os.WriteFile(filepath.Join(dir, "check_completion_prompt.txt"), []byte(custom), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	got, err := GetPrompt(KeyCheckCompletion, dir)
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if got != custom {
		t.Errorf("got %q, want the override content", got)
	}

	// Missing override file falls back to the default.
	got, err = GetPrompt(KeyExtractTasks, dir)
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	if got != ExtractTasksSystemPrompt {
		t.Error("missing override should fall back to the default")
	}
}

func TestGetPromptUnknownKey(t *testing.T) {
	if _, err := GetPrompt(PromptKey("Nope"), ""); err == nil {
		t.Error("unknown key should fail")
	}
}
