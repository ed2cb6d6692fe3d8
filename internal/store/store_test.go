package store_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/store"
	"github.com/spailhq/spail/internal/testutil"
)

func TestKVRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	testutil.MustNoErr(t, s.Put("k", "v1"), "put")
	v, ok, err := s.Get("k")
	testutil.MustNoErr(t, err, "get")
	if !ok || v != "v1" {
		t.Fatalf("get = %q ok=%v", v, ok)
	}

	// Put replaces.
	testutil.MustNoErr(t, s.Put("k", "v2"), "replace")
	v, _, _ = s.Get("k")
	if v != "v2" {
		t.Errorf("after replace = %q", v)
	}

	testutil.MustNoErr(t, s.Delete("k"), "delete")
	if _, ok, _ := s.Get("k"); ok {
		t.Error("key survived delete")
	}

	// Deleting a missing key is not an error.
	testutil.MustNoErr(t, s.Delete("k"), "delete missing")
}

func TestDocumentSeedsOnMissing(t *testing.T) {
	s := testutil.NewTestStore(t)
	docs := store.NewDocumentStore(s, testutil.TestDomain, nil)

	doc, err := docs.Load()
	testutil.MustNoErr(t, err, "first load")

	want := store.SeedDocument(testutil.TestDomain)
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("seed document mismatch (-want +got):\n%s", diff)
	}

	// The seed is persisted, not just returned.
	if _, ok, _ := s.Get(store.MailboxKey); !ok {
		t.Error("seed was not written to the store")
	}
}

func TestDocumentSeedsOnMalformed(t *testing.T) {
	s := testutil.NewTestStore(t)
	docs := store.NewDocumentStore(s, testutil.TestDomain, nil)

	testutil.MustNoErr(t, s.Put(store.MailboxKey, "{not json"), "write garbage")

	doc, err := docs.Load()
	testutil.MustNoErr(t, err, "load over garbage")
	if len(doc.Users) != 1 {
		t.Errorf("malformed document was not reseeded: %+v", doc)
	}
}

func TestDocumentSaveLoadIdentity(t *testing.T) {
	s := testutil.NewTestStore(t)
	docs := store.NewDocumentStore(s, testutil.TestDomain, nil)

	doc := &mailbox.Document{
		Users: []mailbox.User{
			{Username: "alice", Password: "pw", Name: "Alice", Bio: "hi"},
		},
		Emails: []mailbox.Email{
			{ID: 42, From: "alice@spail.os", To: "bob@spail.os", Subject: "s", Body: "b",
				Date: "2024-06-01T10:00:00Z", Read: true, Starred: true, Folder: mailbox.FolderSent},
		},
	}

	testutil.MustNoErr(t, docs.Save(doc), "save")
	got, err := docs.Load()
	testutil.MustNoErr(t, err, "load")
	if diff := cmp.Diff(doc, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionKeyIsBareString(t *testing.T) {
	// The session value is stored as the bare username so every surface
	// can read it without a codec.
	s := testutil.NewTestStore(t)
	testutil.MustNoErr(t, s.Put(store.SessionKey, "alice"), "put session")
	v, ok, err := s.Get(store.SessionKey)
	testutil.MustNoErr(t, err, "get session")
	if !ok || v != "alice" {
		t.Errorf("session value = %q ok=%v", v, ok)
	}
}
