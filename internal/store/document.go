package store

import (
	"encoding/json"
	"log/slog"

	"github.com/spailhq/spail/internal/mailbox"
)

// DocumentStore adapts the key/value store to the mailbox document contract:
// Load reads the whole document, Save rewrites it whole. A missing or
// malformed persisted document is silently replaced with the built-in seed —
// a repair, not an error, matching the original behavior.
type DocumentStore struct {
	store  *Store
	domain string
	logger *slog.Logger
}

// NewDocumentStore creates a DocumentStore. domain qualifies the seed
// document's addresses.
func NewDocumentStore(s *Store, domain string, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{store: s, domain: domain, logger: logger}
}

// Load returns the current mailbox document, reseeding if the persisted
// value is absent or does not parse.
func (d *DocumentStore) Load() (*mailbox.Document, error) {
	raw, ok, err := d.store.Get(MailboxKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return d.reseed("missing")
	}

	var doc mailbox.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return d.reseed("malformed")
	}
	return &doc, nil
}

// Save serializes the whole document and replaces the persisted value.
func (d *DocumentStore) Save(doc *mailbox.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return d.store.Put(MailboxKey, string(raw))
}

func (d *DocumentStore) reseed(reason string) (*mailbox.Document, error) {
	d.logger.Warn("mailbox document reset to seed", "reason", reason)
	doc := SeedDocument(d.domain)
	if err := d.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
