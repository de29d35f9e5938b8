package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	var c Config
	c.App.Port = 38471
	c.LLM.BaseURL = "https://api.openai.com/v1"
	c.LLM.Model = "gpt-4o-mini"
	c.LLM.MaxTokens = 1024
	c.LLM.Temperature = 0.1
	c.LLM.TimeoutSeconds = 60
	c.LLM.MaxRetries = 3
	c.LLM.RequestsPerMinute = 20
	c.LLM.DailyTokenBudget = 500_000
	c.Parsing.MaxResumeChars = 24000
	c.Parsing.WorkerSeconds = 30
	c.Parsing.Concurrency = 2
	c.Scoring.MandatoryWeight = 50
	c.Scoring.NiceToHaveWeight = 20
	c.Scoring.ExperienceWeight = 20
	c.Scoring.TitleWeight = 10
	c.Scoring.MissingMandatoryCap = 40
	c.Ingest.MaxPageBytes = 1 << 20
	c.Ingest.RequestsPerSec = 1
	c.Ingest.Burst = 2
	return c
}

func TestNormalizeAndValidateOK(t *testing.T) {
	_, vr := NormalizeAndValidate(validConfig())
	if !vr.OK() {
		t.Fatalf("valid config rejected: %v", vr.Errors)
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	mutations := map[string]func(*Config){
		"port":        func(c *Config) { c.App.Port = 0 },
		"base_url":    func(c *Config) { c.LLM.BaseURL = " " },
		"model":       func(c *Config) { c.LLM.Model = "" },
		"temperature": func(c *Config) { c.LLM.Temperature = 3 },
		"budget":      func(c *Config) { c.LLM.DailyTokenBudget = 0 },
		"concurrency": func(c *Config) { c.Parsing.Concurrency = 0 },
		"weights":     func(c *Config) { c.Scoring.MandatoryWeight = 0; c.Scoring.NiceToHaveWeight = 0; c.Scoring.ExperienceWeight = 0; c.Scoring.TitleWeight = 0 },
		"cap":         func(c *Config) { c.Scoring.MissingMandatoryCap = 101 },
		"burst":       func(c *Config) { c.Ingest.Burst = 0 },
		"scheme":      func(c *Config) { c.Ingest.AllowedSchemes = []string{"ftp"} },
	}
	for name, mutate := range mutations {
		c := validConfig()
		mutate(&c)
		if _, vr := NormalizeAndValidate(c); vr.OK() {
			t.Errorf("%s: bad value accepted", name)
		}
	}
}

func TestValidateIntakeRequiredWhenEnabled(t *testing.T) {
	c := validConfig()
	c.Intake.Enabled = true

	_, vr := NormalizeAndValidate(c)
	if vr.OK() {
		t.Fatal("enabled intake without host/user accepted")
	}

	c.Intake.IMAPHost = "imap.example.com"
	c.Intake.IMAPPort = 993
	c.Intake.Username = "jobs@example.com"
	c.Intake.Mailbox = "INBOX"
	if _, vr := NormalizeAndValidate(c); !vr.OK() {
		t.Fatalf("complete intake config rejected: %v", vr.Errors)
	}
}

func TestNormalizeDedupesLists(t *testing.T) {
	c := validConfig()
	c.Intake.SearchSubjectAny = []string{" resume ", "Resume", "", "cv"}
	c.Scoring.SkillAliases = map[string][]string{"kubernetes": {"k8s", " K8S ", ""}}

	out, vr := NormalizeAndValidate(c)
	if !vr.OK() {
		t.Fatalf("rejected: %v", vr.Errors)
	}
	if len(out.Intake.SearchSubjectAny) != 2 {
		t.Fatalf("subjects = %v", out.Intake.SearchSubjectAny)
	}
	if len(out.Scoring.SkillAliases["kubernetes"]) != 1 {
		t.Fatalf("aliases = %v", out.Scoring.SkillAliases["kubernetes"])
	}
}

func TestNormalizeDefaultsIngestSchemes(t *testing.T) {
	c := validConfig()
	c.Ingest.AllowedSchemes = nil

	out, vr := NormalizeAndValidate(c)
	if !vr.OK() {
		t.Fatalf("rejected: %v", vr.Errors)
	}
	if len(out.Ingest.AllowedSchemes) != 2 || out.Ingest.AllowedSchemes[0] != "http" || out.Ingest.AllowedSchemes[1] != "https" {
		t.Fatalf("schemes = %v", out.Ingest.AllowedSchemes)
	}

	c.Ingest.AllowedSchemes = []string{" HTTPS "}
	out, vr = NormalizeAndValidate(c)
	if !vr.OK() || len(out.Ingest.AllowedSchemes) != 1 || out.Ingest.AllowedSchemes[0] != "https" {
		t.Fatalf("schemes = %v errors = %v", out.Ingest.AllowedSchemes, vr.Errors)
	}
}

func TestSaveAtomicRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	c := validConfig()
	if err := SaveAtomic(path, c); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.App.Port != c.App.Port || loaded.LLM.Model != c.LLM.Model {
		t.Fatalf("round trip lost values: %+v", loaded)
	}

	// Second save keeps a .bak of the previous file.
	c.App.Port = 40000
	if err := SaveAtomic(path, c); err != nil {
		t.Fatalf("save again: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("no backup written: %v", err)
	}
}

func TestSaveAtomicRejectsInvalid(t *testing.T) {
	c := validConfig()
	c.App.Port = -1
	if err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), c); err == nil {
		t.Fatal("invalid config saved")
	}
}

func TestEnsureUserConfigCopiesDefault(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	if err := os.WriteFile(defaultPath, []byte("app:\n  port: 38471\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	b, err := os.ReadFile(userPath)
	if err != nil {
		t.Fatalf("read user config: %v", err)
	}
	if !strings.Contains(string(b), "38471") {
		t.Fatalf("copy content = %q", b)
	}

	// Existing user config must not be overwritten.
	if err := os.WriteFile(userPath, []byte("app:\n  port: 1234\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureUserConfig(dataDir, defaultPath); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	b, _ = os.ReadFile(userPath)
	if !strings.Contains(string(b), "1234") {
		t.Fatal("user config was overwritten")
	}
}

func TestOverlayAliases(t *testing.T) {
	c := validConfig()
	c.Scoring.SkillAliases = map[string][]string{"golang": {"go"}}

	path := filepath.Join(t.TempDir(), "aliases.yml")
	if err := os.WriteFile(path, []byte("skill_aliases:\n  kubernetes: [k8s]\n  golang: [go, go-lang]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := OverlayAliases(&c, path); err != nil {
		t.Fatalf("overlay: %v", err)
	}
	if len(c.Scoring.SkillAliases["kubernetes"]) != 1 {
		t.Fatalf("kubernetes aliases = %v", c.Scoring.SkillAliases["kubernetes"])
	}
	// Overlay wins for keys present in both.
	if len(c.Scoring.SkillAliases["golang"]) != 2 {
		t.Fatalf("golang aliases = %v", c.Scoring.SkillAliases["golang"])
	}
}

func TestOverlayAliasesMissingFileIsNoop(t *testing.T) {
	c := validConfig()
	if err := OverlayAliases(&c, filepath.Join(t.TempDir(), "nope.yml")); err != nil {
		t.Fatalf("missing overlay file: %v", err)
	}
}
