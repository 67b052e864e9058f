package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PromptKey is a type for identifying specific prompts.
type PromptKey string

const (
	// KeyExtractTasks is the key for the task extraction prompt.
	KeyExtractTasks PromptKey = "ExtractTasks"
	// KeyCheckCompletion is the key for the completion verdict prompt.
	KeyCheckCompletion PromptKey = "CheckCompletion"
)

// promptConfig defines the default content and override filename for a prompt.
type promptConfig struct {
	defaultContent string
	filename       string
}

var promptRegistry = map[PromptKey]promptConfig{
	KeyExtractTasks: {
		defaultContent: ExtractTasksSystemPrompt,
		filename:       "extract_tasks_prompt.txt",
	},
	KeyCheckCompletion: {
		defaultContent: CheckCompletionSystemPrompt,
		filename:       "check_completion_prompt.txt",
	},
}

// GetPrompt looks for a user-provided prompt file in templatesDir and
// returns its content when present. Otherwise it returns the built-in
// default for the key.
func GetPrompt(key PromptKey, templatesDir string) (string, error) {
	config, ok := promptRegistry[key]
	if !ok {
		return "", fmt.Errorf("unrecognized prompt key: %s", key)
	}

	if strings.TrimSpace(templatesDir) == "" {
		return config.defaultContent, nil
	}

	customPath := filepath.Join(templatesDir, config.filename)
	content, err := os.ReadFile(customPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config.defaultContent, nil
		}
		return "", fmt.Errorf("failed to read custom prompt %s: %w", customPath, err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return config.defaultContent, nil
	}
	return string(content), nil
}
