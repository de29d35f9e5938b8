package intake

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"hirepath-engine/internal/config"
	"hirepath-engine/internal/domain"
	"hirepath-engine/internal/store"
)

// RunOnce polls the configured mailbox, creates pending resume rows for
// messages that carry a resume, and marks processed messages seen. Returns
// the number of resumes created.
func RunOnce(ctx context.Context, db *sql.DB, cfg config.Config, password string, onNewResume func(id int64)) (added int, err error) {
	if !cfg.Intake.Enabled {
		return 0, nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Intake.IMAPHost, cfg.Intake.IMAPPort)
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: cfg.Intake.IMAPHost,
	}

	c, err := DialAndLogin(ctx, addr, cfg.Intake.Username, password, tlsCfg)
	if err != nil {
		return 0, err
	}
	defer LogoutAndClose(c)

	if err := SelectMailbox(c, cfg.Intake.Mailbox); err != nil {
		return 0, err
	}

	msgs, err := FetchUnseen(ctx, c, cfg.Intake.MaxMessages)
	if err != nil {
		return 0, err
	}

	var processed []imap.UID
	for _, m := range msgs {
		if !subjectMatches(m.Subject, cfg.Intake.SearchSubjectAny) {
			continue
		}

		payload, ok := ExtractResume(m.RawMessage)
		if !ok {
			log.Printf("[intake] uid=%d subject=%q: no resume content, skipping", m.UID, m.Subject)
			processed = append(processed, m.UID)
			continue
		}
		if len(payload.Bytes) > store.MaxFileBytes {
			log.Printf("[intake] uid=%d: resume too large (%d bytes), skipping", m.UID, len(payload.Bytes))
			processed = append(processed, m.UID)
			continue
		}

		key, err := store.SaveFile(ctx, db, payload.Bytes, payload.ContentType)
		if err != nil {
			log.Printf("[intake] uid=%d: save file: %v", m.UID, err)
			continue
		}

		name, email := senderIdentity(m.From)
		id, err := store.InsertResume(ctx, db, domain.Resume{
			CandidateName:  name,
			CandidateEmail: email,
			FileKey:        key,
			Source:         "email",
		})
		if err != nil {
			log.Printf("[intake] uid=%d: insert resume: %v", m.UID, err)
			continue
		}

		added++
		processed = append(processed, m.UID)
		if onNewResume != nil {
			onNewResume(id)
		}
		log.Printf("[intake] uid=%d resume_id=%d from=%q file=%q", m.UID, id, m.From, payload.Filename)

		// Stay inside the fetch window even if the mailbox is busy.
		if d, ok := ctx.Deadline(); ok && time.Until(d) < 5*time.Second {
			break
		}
	}

	if err := MarkSeen(c, processed); err != nil {
		return added, err
	}
	return added, nil
}

func subjectMatches(subject string, anyOf []string) bool {
	if len(anyOf) == 0 {
		return true
	}
	s := strings.ToLower(subject)
	for _, needle := range anyOf {
		if strings.Contains(s, strings.ToLower(needle)) {
			return true
		}
	}
	return false
}

// senderIdentity splits "Jane Doe <jane@example.com>" into name and address.
func senderIdentity(from string) (name, email string) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", strings.TrimSpace(from)
	}
	return strings.TrimSpace(addr.Name), strings.TrimSpace(addr.Address)
}
