package events

import (
	"encoding/json"
	"time"
)

// Event types published on the SSE stream.
const (
	TypeJobCreated         = "job_created"
	TypeJobDeleted         = "job_deleted"
	TypeResumeCreated      = "resume_created"
	TypeResumeParsed       = "resume_parsed"
	TypeResumeFailed       = "resume_failed"
	TypeApplicationCreated = "application_created"
	TypeApplicationScored  = "application_scored"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
