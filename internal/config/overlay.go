// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type aliasesFile struct {
	SkillAliases map[string][]string `yaml:"skill_aliases"`
}

// OverlayAliases merges an optional skill-alias file on top of the config.
// Entries in the file win over entries in config.yml for the same canonical
// skill name.
func OverlayAliases(cfg *Config, aliasesPath string) error {
	b, err := os.ReadFile(aliasesPath)
	if err != nil {
		// Missing aliases file should not kill startup
		return nil
	}

	var af aliasesFile
	if err := yaml.Unmarshal(b, &af); err != nil {
		return err
	}

	if len(af.SkillAliases) == 0 {
		return nil
	}
	if cfg.Scoring.SkillAliases == nil {
		cfg.Scoring.SkillAliases = make(map[string][]string, len(af.SkillAliases))
	}
	for canon, aliases := range af.SkillAliases {
		cfg.Scoring.SkillAliases[canon] = aliases
	}
	return nil
}
