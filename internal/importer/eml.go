// Package importer parses .eml files into mailbox records.
package importer

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// Parsed holds the fields extracted from an .eml file.
type Parsed struct {
	From    string
	To      string
	Subject string
	Body    string
	Date    time.Time
}

// Parse reads a MIME message and extracts the fields the mailbox stores.
// Multipart messages keep only the text body; HTML-only messages fall back
// to the HTML part as-is.
func Parse(r io.Reader) (*Parsed, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	body := env.Text
	if body == "" {
		body = env.HTML
	}

	p := &Parsed{
		From:    firstAddress(env, "From"),
		To:      firstAddress(env, "To"),
		Subject: env.GetHeader("Subject"),
		Body:    body,
	}
	if dateStr := env.GetHeader("Date"); dateStr != "" {
		if t, err := mail.ParseDate(dateStr); err == nil {
			p.Date = t
		}
	}
	if p.From == "" {
		return nil, fmt.Errorf("message has no From address")
	}
	return p, nil
}

// ParseFile parses a single .eml file from disk.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// firstAddress returns the first address in a header, lowercased, or "".
func firstAddress(env *enmime.Envelope, header string) string {
	list, err := env.AddressList(header)
	if err != nil || len(list) == 0 {
		return ""
	}
	return strings.ToLower(list[0].Address)
}
