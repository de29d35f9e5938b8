package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setSecretReq struct {
	Value string `json:"value"`
}

func (h SecretsHandler) SetLLMAPIKey(w http.ResponseWriter, r *http.Request) {
	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", "invalid json")
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		if err := secrets.DeleteLLMAPIKey(); err != nil {
			WriteError(w, r, 400, "keyring_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := secrets.SetLLMAPIKey(req.Value); err != nil {
		WriteError(w, r, 400, "keyring_error", "failed to store key: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, 400, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	account := secrets.IMAPKeyringAccount(cfg)
	if strings.TrimSpace(req.Value) == "" {
		if err := secrets.DeleteIMAPPassword(account); err != nil {
			WriteError(w, r, 400, "keyring_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := secrets.SetIMAPPassword(account, req.Value); err != nil {
		WriteError(w, r, 400, "keyring_error", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
