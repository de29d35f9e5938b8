package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus validation results.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Intake.SearchSubjectAny = trimList(out.Intake.SearchSubjectAny)
	for canon, aliases := range out.Scoring.SkillAliases {
		out.Scoring.SkillAliases[canon] = trimList(aliases)
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// llm sanity
	if strings.TrimSpace(out.LLM.BaseURL) == "" {
		res.addErr("llm.base_url is required")
	}
	if strings.TrimSpace(out.LLM.Model) == "" {
		res.addErr("llm.model is required")
	}
	if out.LLM.MaxTokens <= 0 {
		res.addErr("llm.max_tokens must be > 0")
	}
	if out.LLM.Temperature < 0 || out.LLM.Temperature > 2 {
		res.addErr("llm.temperature must be 0..2")
	}
	if out.LLM.TimeoutSeconds <= 0 {
		res.addErr("llm.timeout_seconds must be > 0")
	}
	if out.LLM.MaxRetries < 0 {
		res.addErr("llm.max_retries must be >= 0")
	}
	if out.LLM.RequestsPerMinute <= 0 {
		res.addErr("llm.requests_per_minute must be > 0")
	}
	if out.LLM.DailyTokenBudget <= 0 {
		res.addErr("llm.daily_token_budget must be > 0")
	} else if out.LLM.DailyTokenBudget < 10_000 {
		res.addWarn("llm.daily_token_budget is very low (%d); a single resume can use several thousand tokens.", out.LLM.DailyTokenBudget)
	}

	// parsing sanity
	if out.Parsing.MaxResumeChars <= 0 {
		res.addErr("parsing.max_resume_chars must be > 0")
	}
	if out.Parsing.WorkerSeconds <= 0 {
		res.addErr("parsing.worker_seconds must be > 0")
	} else if out.Parsing.WorkerSeconds < 5 {
		res.addWarn("parsing.worker_seconds is very low (%d) and may hammer the LLM API.", out.Parsing.WorkerSeconds)
	}
	if out.Parsing.Concurrency <= 0 {
		res.addErr("parsing.concurrency must be > 0")
	} else if out.Parsing.Concurrency > 8 {
		res.addWarn("parsing.concurrency is high (%d); most LLM APIs rate-limit well below that.", out.Parsing.Concurrency)
	}

	// scoring weights: every dimension weight must be >= 0 and at least one > 0
	sw := out.Scoring
	for _, w := range []struct {
		name string
		val  int
	}{
		{"scoring.mandatory_weight", sw.MandatoryWeight},
		{"scoring.nice_to_have_weight", sw.NiceToHaveWeight},
		{"scoring.experience_weight", sw.ExperienceWeight},
		{"scoring.title_weight", sw.TitleWeight},
	} {
		if w.val < 0 {
			res.addErr("%s must be >= 0", w.name)
		}
	}
	if sw.MandatoryWeight+sw.NiceToHaveWeight+sw.ExperienceWeight+sw.TitleWeight <= 0 {
		res.addErr("scoring weights must not all be zero")
	}
	if sw.MissingMandatoryCap < 0 || sw.MissingMandatoryCap > 100 {
		res.addErr("scoring.missing_mandatory_cap must be 0..100")
	}

	// ingest sanity
	if out.Ingest.MaxPageBytes <= 0 {
		res.addErr("ingest.max_page_bytes must be > 0")
	}
	if out.Ingest.RequestsPerSec <= 0 {
		res.addErr("ingest.requests_per_sec must be > 0")
	}
	if out.Ingest.Burst <= 0 {
		res.addErr("ingest.burst must be > 0")
	}
	if len(out.Ingest.AllowedSchemes) == 0 {
		out.Ingest.AllowedSchemes = []string{"http", "https"}
	}
	for i, s := range out.Ingest.AllowedSchemes {
		s = strings.ToLower(strings.TrimSpace(s))
		out.Ingest.AllowedSchemes[i] = s
		if s != "http" && s != "https" {
			res.addErr("ingest.allowed_schemes: %q is not a fetchable scheme", s)
		}
	}

	// intake required fields if enabled (password lives in the keychain)
	if out.Intake.Enabled {
		if strings.TrimSpace(out.Intake.IMAPHost) == "" {
			res.addErr("intake.imap_host is required when intake.enabled=true")
		}
		if out.Intake.IMAPPort == 0 {
			res.addErr("intake.imap_port is required when intake.enabled=true")
		}
		if strings.TrimSpace(out.Intake.Username) == "" {
			res.addErr("intake.username is required when intake.enabled=true")
		}
		if strings.TrimSpace(out.Intake.Mailbox) == "" {
			res.addErr("intake.mailbox is required when intake.enabled=true")
		}
		if len(out.Intake.SearchSubjectAny) == 0 {
			res.addWarn("intake.search_subject_any is empty; every unseen message will be treated as a resume.")
		}
	}

	return out, res
}
