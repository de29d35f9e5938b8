// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	LLM struct {
		BaseURL           string  `yaml:"base_url" json:"base_url"`
		Model             string  `yaml:"model" json:"model"`
		MaxTokens         int     `yaml:"max_tokens" json:"max_tokens"`
		Temperature       float64 `yaml:"temperature" json:"temperature"`
		TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
		MaxRetries        int     `yaml:"max_retries" json:"max_retries"`
		RequestsPerMinute float64 `yaml:"requests_per_minute" json:"requests_per_minute"`
		DailyTokenBudget  int64   `yaml:"daily_token_budget" json:"daily_token_budget"`
	} `yaml:"llm" json:"llm"`

	Parsing struct {
		MaxResumeChars int `yaml:"max_resume_chars" json:"max_resume_chars"`
		WorkerSeconds  int `yaml:"worker_seconds" json:"worker_seconds"`
		Concurrency    int `yaml:"concurrency" json:"concurrency"`
	} `yaml:"parsing" json:"parsing"`

	Scoring struct {
		MandatoryWeight     int `yaml:"mandatory_weight" json:"mandatory_weight"`
		NiceToHaveWeight    int `yaml:"nice_to_have_weight" json:"nice_to_have_weight"`
		ExperienceWeight    int `yaml:"experience_weight" json:"experience_weight"`
		TitleWeight         int `yaml:"title_weight" json:"title_weight"`
		MissingMandatoryCap int `yaml:"missing_mandatory_cap" json:"missing_mandatory_cap"`

		// SkillAliases maps canonical skill names to spellings that count as
		// evidence ("kubernetes" -> ["k8s"]). Loaded from config plus an
		// optional aliases overlay file.
		SkillAliases map[string][]string `yaml:"skill_aliases" json:"skill_aliases"`
	} `yaml:"scoring" json:"scoring"`

	Ingest struct {
		MaxPageBytes   int      `yaml:"max_page_bytes" json:"max_page_bytes"`
		RequestsPerSec float64  `yaml:"requests_per_sec" json:"requests_per_sec"`
		Burst          int      `yaml:"burst" json:"burst"`
		AllowedSchemes []string `yaml:"allowed_schemes" json:"allowed_schemes"`
	} `yaml:"ingest" json:"ingest"`

	Intake struct {
		Enabled          bool     `yaml:"enabled" json:"enabled"`
		IMAPHost         string   `yaml:"imap_host" json:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" json:"imap_port"`
		Username         string   `yaml:"username" json:"username"`
		Mailbox          string   `yaml:"mailbox" json:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any" json:"search_subject_any"`
		MaxMessages      int      `yaml:"max_messages" json:"max_messages"`
	} `yaml:"intake" json:"intake"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
