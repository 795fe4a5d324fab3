package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a rule file. The file may define either list or both; a
// missing list is returned nil so callers can overlay the file onto the
// built-in defaults. Patterns are compiled here so a broken file is rejected
// before it reaches any scanner.
func LoadFile(path string) (RuleSetUpdate, error) {
	var update RuleSetUpdate

	data, err := os.ReadFile(path)
	if err != nil {
		return update, fmt.Errorf("read rule file: %w", err)
	}
	if err := yaml.Unmarshal(data, &update); err != nil {
		return update, fmt.Errorf("parse rule file %s: %w", path, err)
	}
	if update.SensitiveDataPatterns == nil && update.SpamLanguagePatterns == nil {
		return update, fmt.Errorf("rule file %s defines no pattern lists", path)
	}
	if update.SensitiveDataPatterns != nil {
		if _, err := compileRules(update.SensitiveDataPatterns); err != nil {
			return update, fmt.Errorf("rule file %s: sensitive_data_patterns: %w", path, err)
		}
	}
	if update.SpamLanguagePatterns != nil {
		if _, err := compileRules(update.SpamLanguagePatterns); err != nil {
			return update, fmt.Errorf("rule file %s: spam_language_patterns: %w", path, err)
		}
	}
	return update, nil
}

// SaveFile writes a rule set as YAML, the format LoadFile reads.
func SaveFile(path string, set RuleSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal rule set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write rule file: %w", err)
	}
	return nil
}
