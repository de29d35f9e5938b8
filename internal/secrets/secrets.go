package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"hirepath-engine/internal/config"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "hirepath"

	llmAccount = "hirepath:llm:api_key"
)

func GetLLMAPIKey() (string, error) {
	key, err := keyring.Get(KeyringService, llmAccount)
	if err == nil && strings.TrimSpace(key) != "" {
		return key, nil
	}
	return "", errors.New("LLM API key not found (set it via the secrets endpoint)")
}

func SetLLMAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, llmAccount, key)
}

func DeleteLLMAPIKey() error {
	return keyring.Delete(KeyringService, llmAccount)
}

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	return "", errors.New("IMAP password not found (set it via the secrets endpoint)")
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"hirepath:imap:%s@%s",
		cfg.Intake.Username,
		cfg.Intake.IMAPHost,
	)
}
