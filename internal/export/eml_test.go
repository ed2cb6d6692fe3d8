package export_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spailhq/spail/internal/export"
	"github.com/spailhq/spail/internal/importer"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/testutil"
)

func sampleEmail() mailbox.Email {
	return mailbox.Email{
		ID:      1717236000000,
		From:    "alice@spail.os",
		To:      "bob@spail.os",
		Subject: "Round trip",
		Body:    "Line one.\nLine two.\n",
		Date:    "2024-06-01T10:00:00Z",
		Folder:  mailbox.FolderSent,
	}
}

func TestWriteEMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	testutil.MustNoErr(t, export.WriteEML(&buf, sampleEmail(), testutil.TestDomain), "write eml")

	p, err := importer.Parse(&buf)
	testutil.MustNoErr(t, err, "parse eml")

	if p.From != "alice@spail.os" {
		t.Errorf("From = %q", p.From)
	}
	if p.To != "bob@spail.os" {
		t.Errorf("To = %q", p.To)
	}
	if p.Subject != "Round trip" {
		t.Errorf("Subject = %q", p.Subject)
	}
	if !strings.Contains(p.Body, "Line one.") || !strings.Contains(p.Body, "Line two.") {
		t.Errorf("Body = %q", p.Body)
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", p.Date, want)
	}
}

func TestWriteEMLHeaders(t *testing.T) {
	var buf bytes.Buffer
	testutil.MustNoErr(t, export.WriteEML(&buf, sampleEmail(), testutil.TestDomain), "write eml")
	raw := buf.String()

	if !strings.Contains(raw, "Message-Id: <1717236000000@"+testutil.TestDomain+">") &&
		!strings.Contains(raw, "Message-ID: <1717236000000@"+testutil.TestDomain+">") {
		t.Errorf("message id header missing:\n%s", raw)
	}
	if !strings.Contains(raw, "Subject: Round trip") {
		t.Errorf("subject header missing:\n%s", raw)
	}
}

func TestExportEmails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	emails := []mailbox.Email{sampleEmail(), {
		ID: 2, From: "carol@spail.os", To: "alice@spail.os",
		Subject: "second", Body: "b", Date: "2024-06-02T10:00:00Z", Folder: mailbox.FolderInbox,
	}}

	n, err := export.ExportEmails(dir, emails, testutil.TestDomain)
	testutil.MustNoErr(t, err, "export")
	if n != 2 {
		t.Fatalf("exported %d, want 2", n)
	}

	for _, name := range []string{"1717236000000.eml", "2.eml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing export file %s: %v", name, err)
			continue
		}
		p, err := importer.ParseFile(path)
		testutil.MustNoErr(t, err, "reparse "+name)
		if p.From == "" {
			t.Errorf("%s parsed with empty From", name)
		}
	}
}

func TestImporterRejectsMissingFrom(t *testing.T) {
	msg := "To: bob@spail.os\r\nSubject: no sender\r\n\r\nbody\r\n"
	if _, err := importer.Parse(strings.NewReader(msg)); err == nil {
		t.Error("message without From accepted")
	}
}
