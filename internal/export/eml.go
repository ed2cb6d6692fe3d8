// Package export writes mailbox records as standard .eml (RFC 5322) files,
// compatible with most email clients.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/emersion/go-message/mail"
	"github.com/spailhq/spail/internal/mailbox"
)

// WriteEML writes a single email as a MIME message with one inline
// text/plain part.
func WriteEML(w io.Writer, e mailbox.Email, domain string) error {
	var h mail.Header
	h.SetDate(e.Time())
	h.SetAddressList("From", []*mail.Address{{Address: e.From}})
	h.SetAddressList("To", []*mail.Address{{Address: e.To}})
	h.SetSubject(e.Subject)
	h.SetMessageID(fmt.Sprintf("%d@%s", e.ID, domain))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	mw, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(mw, e.Body); err != nil {
		mw.Close()
		return fmt.Errorf("write body: %w", err)
	}
	return mw.Close()
}

// ExportEmails writes each email to dir as <id>.eml. The directory is
// created if needed. Returns how many files were written.
func ExportEmails(dir string, emails []mailbox.Email, domain string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create export directory: %w", err)
	}

	written := 0
	for _, e := range emails {
		path := filepath.Join(dir, fmt.Sprintf("%d.eml", e.ID))
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteEML(f, e, domain); err != nil {
			f.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
