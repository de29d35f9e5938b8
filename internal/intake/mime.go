package intake

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// ResumePayload is what intake hands to the resume pipeline: either a text
// attachment (preferred) or the plain-text body of the message.
type ResumePayload struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// ExtractResume walks the MIME tree of a raw RFC822 message and returns the
// best resume candidate: the first text attachment, falling back to the
// largest text/plain body part.
func ExtractResume(raw []byte) (ResumePayload, bool) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		// Unparseable message: treat the whole thing as plain text.
		body := bytes.TrimSpace(raw)
		if len(body) == 0 {
			return ResumePayload{}, false
		}
		return ResumePayload{ContentType: "text/plain", Bytes: body}, true
	}

	body, _ := io.ReadAll(io.LimitReader(msg.Body, 20<<20))

	att, plain := walkParts(mail.Header(msg.Header), body)
	if att != nil {
		return *att, true
	}
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return ResumePayload{}, false
	}
	return ResumePayload{ContentType: "text/plain", Bytes: []byte(plain)}, true
}

func walkParts(h mail.Header, body []byte) (attachment *ResumePayload, bestPlain string) {
	ct := h.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, string(decodeTransferEncoding(body, cte))
	}
	mediaType = strings.ToLower(mediaType)

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, string(decodeTransferEncoding(body, cte))
		}
		mr := multipart.NewReader(bytes.NewReader(body), boundary)

		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			partCTE := strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding")))
			partCT := p.Header.Get("Content-Type")
			pMedia, _, _ := mime.ParseMediaType(partCT)
			pMedia = strings.ToLower(pMedia)

			b, _ := io.ReadAll(io.LimitReader(p, 20<<20))
			b = decodeTransferEncoding(b, partCTE)

			if strings.HasPrefix(pMedia, "multipart/") {
				att, pl := walkParts(mail.Header(p.Header), b)
				if attachment == nil && att != nil {
					attachment = att
				}
				if len(pl) > len(bestPlain) {
					bestPlain = pl
				}
				continue
			}

			filename := p.FileName()
			if filename != "" && isTextResume(pMedia, filename) {
				if attachment == nil {
					attachment = &ResumePayload{
						Filename:    filename,
						ContentType: pMedia,
						Bytes:       b,
					}
				}
				continue
			}

			if strings.HasPrefix(pMedia, "text/plain") && filename == "" {
				if len(b) > len(bestPlain) {
					bestPlain = string(b)
				}
			}
		}
		return attachment, bestPlain
	}

	s := decodeTransferEncoding(body, cte)
	if strings.HasPrefix(mediaType, "text/html") {
		return nil, ""
	}
	return nil, string(s)
}

// isTextResume accepts attachments the parser can read as text. Binary
// formats (pdf, docx) need an extraction step the engine does not carry.
func isTextResume(mediaType, filename string) bool {
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".txt") || strings.HasSuffix(lower, ".md")
}

func decodeTransferEncoding(b []byte, cte string) []byte {
	switch cte {
	case "base64":
		dec := base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	case "quoted-printable":
		dec := quotedprintable.NewReader(bytes.NewReader(b))
		out, _ := io.ReadAll(io.LimitReader(dec, 6<<20))
		return out
	default:
		return b
	}
}
