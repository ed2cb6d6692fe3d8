// Package testutil provides shared helpers for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/store"
)

// TestDomain is the mail domain used by test fixtures.
const TestDomain = "spail.os"

// MustNoErr fails the test immediately if err is non-nil.
func MustNoErr(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", context, err)
	}
}

// NewTestStore opens a fresh SQLite store in a temp directory, with the
// schema initialized and close registered on cleanup.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})

	if err := st.Init(); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return st
}

// NewTestService builds a mailbox service over a fresh store.
func NewTestService(t *testing.T) (*mailbox.Service, *store.Store) {
	t.Helper()
	st := NewTestStore(t)
	docs := store.NewDocumentStore(st, TestDomain, nil)
	return mailbox.NewService(docs, TestDomain), st
}
