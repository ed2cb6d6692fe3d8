package importer

import (
	"strings"
	"testing"
	"time"
)

func TestParsePlainMessage(t *testing.T) {
	msg := strings.Join([]string{
		"From: Alice Example <Alice@Example.COM>",
		"To: bob@spail.os",
		"Subject: Hello",
		"Date: Sat, 01 Jun 2024 10:00:00 +0000",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain body",
		"",
	}, "\r\n")

	p, err := Parse(strings.NewReader(msg))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Addresses come back lowercased.
	if p.From != "alice@example.com" {
		t.Errorf("From = %q", p.From)
	}
	if p.To != "bob@spail.os" {
		t.Errorf("To = %q", p.To)
	}
	if p.Subject != "Hello" {
		t.Errorf("Subject = %q", p.Subject)
	}
	if !strings.Contains(p.Body, "plain body") {
		t.Errorf("Body = %q", p.Body)
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !p.Date.Equal(want) {
		t.Errorf("Date = %v", p.Date)
	}
}

func TestParseHTMLOnlyFallsBack(t *testing.T) {
	msg := strings.Join([]string{
		"From: alice@spail.os",
		"To: bob@spail.os",
		"Subject: html only",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>rich body</p>",
		"",
	}, "\r\n")

	p, err := Parse(strings.NewReader(msg))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(p.Body, "rich body") {
		t.Errorf("Body = %q", p.Body)
	}
}

func TestParseMissingDateIsZero(t *testing.T) {
	msg := "From: a@b.c\r\nTo: d@e.f\r\nSubject: s\r\n\r\nbody\r\n"
	p, err := Parse(strings.NewReader(msg))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.Date.IsZero() {
		t.Errorf("Date = %v, want zero", p.Date)
	}
}
