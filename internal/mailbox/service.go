package mailbox

import (
	"fmt"
	"strings"
	"time"
)

// DocumentStore persists the mailbox document. Save always replaces the
// whole document; there is no partial-update path.
type DocumentStore interface {
	Load() (*Document, error)
	Save(*Document) error
}

// Service owns every mutation of the mailbox document. Each operation loads
// the current document, computes a new one, and saves it whole, so a reload
// mid-operation can never observe a partial write.
//
// Service is not safe for concurrent writers; the desktop simulation has a
// single event loop and the HTTP surface serializes through it. Multi-writer
// (multi-tab) consistency is an explicit non-goal: last writer wins.
type Service struct {
	store  DocumentStore
	domain string

	// Now is the clock used for ids and timestamps; tests override it.
	Now func() time.Time
}

// NewService creates a Service over the given store. domain qualifies bare
// usernames into addresses (username@domain).
func NewService(store DocumentStore, domain string) *Service {
	return &Service{
		store:  store,
		domain: domain,
		Now:    time.Now,
	}
}

// Domain returns the mail domain.
func (s *Service) Domain() string { return s.domain }

// Address qualifies a username into a full address. Already-qualified
// addresses pass through unchanged.
func (s *Service) Address(username string) string {
	if strings.Contains(username, "@") {
		return username
	}
	return username + "@" + s.domain
}

// Register creates a new user. The username must be unique (case-sensitive
// exact match). The password is stored verbatim.
func (s *Service) Register(username, password, name string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, fmt.Errorf("register: empty username")
	}

	doc, err := s.store.Load()
	if err != nil {
		return User{}, err
	}
	if doc.UserByUsername(username) != nil {
		return User{}, ErrDuplicateUsername
	}

	u := User{Username: username, Password: password, Name: name}
	doc.Users = append(doc.Users, u)
	if err := s.store.Save(doc); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login checks credentials with a case-sensitive plaintext compare,
// preserving the original demo behavior exactly.
func (s *Service) Login(username, password string) (User, error) {
	doc, err := s.store.Load()
	if err != nil {
		return User{}, err
	}
	u := doc.UserByUsername(username)
	if u == nil || u.Password != password {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// User returns the user record for a username.
func (s *Service) User(username string) (User, error) {
	doc, err := s.store.Load()
	if err != nil {
		return User{}, err
	}
	u := doc.UserByUsername(username)
	if u == nil {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// Users returns every registered user.
func (s *Service) Users() ([]User, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

// UpdateProfile mutates a user's display name, bio and avatar in place.
func (s *Service) UpdateProfile(username, name, bio, avatar string) (User, error) {
	doc, err := s.store.Load()
	if err != nil {
		return User{}, err
	}
	u := doc.UserByUsername(username)
	if u == nil {
		return User{}, ErrNotFound
	}
	u.Name = name
	u.Bio = bio
	u.Avatar = avatar
	if err := s.store.Save(doc); err != nil {
		return User{}, err
	}
	return *u, nil
}

// DeleteUser removes a user and cascades to every email that references the
// user as sender or recipient. The user record and its mail are removed in
// one document save.
func (s *Service) DeleteUser(username string) error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	if doc.UserByUsername(username) == nil {
		return ErrNotFound
	}
	addr := s.Address(username)

	users := doc.Users[:0]
	for _, u := range doc.Users {
		if u.Username != username {
			users = append(users, u)
		}
	}
	doc.Users = users

	emails := doc.Emails[:0]
	for _, e := range doc.Emails {
		if e.From != addr && e.To != addr {
			emails = append(emails, e)
		}
	}
	doc.Emails = emails

	return s.store.Save(doc)
}

// Send creates one sent record. There is no per-recipient copy: the same
// record is visible to the sender through the sent view and to the recipient
// through the inbox address match, so recipient-side mutations (mark read,
// trash) act on the shared record.
func (s *Service) Send(fromUsername, to, subject, body string) (Email, error) {
	doc, err := s.store.Load()
	if err != nil {
		return Email{}, err
	}
	e := s.newEmail(doc, fromUsername, to, subject, body, FolderSent)
	doc.Emails = append(doc.Emails, e)
	if err := s.store.Save(doc); err != nil {
		return Email{}, err
	}
	return e, nil
}

// Deliver inserts a message straight into the recipient's inbox, bypassing
// the send path. Used by the .eml importer, where the sender is external and
// the original date should be preserved. A zero date falls back to now.
func (s *Service) Deliver(fromAddr, toAddr, subject, body string, date time.Time) (Email, error) {
	doc, err := s.store.Load()
	if err != nil {
		return Email{}, err
	}
	e := s.newEmail(doc, fromAddr, toAddr, subject, body, FolderInbox)
	if !date.IsZero() {
		e.Date = date.UTC().Format(time.RFC3339)
	}
	doc.Emails = append(doc.Emails, e)
	if err := s.store.Save(doc); err != nil {
		return Email{}, err
	}
	return e, nil
}

// Submit promotes a compose buffer to a sent record. When the buffer was
// loaded from a draft, the draft is removed in the same document save, so no
// reader can observe both the draft and the sent copy. A carried id that
// names anything other than the submitter's own draft is ignored; only
// drafts are removed on the way out of the compose view.
func (s *Service) Submit(fromUsername string, c Compose) (Email, error) {
	doc, err := s.store.Load()
	if err != nil {
		return Email{}, err
	}
	e := s.newEmail(doc, fromUsername, c.To, c.Subject, c.Body, FolderSent)
	doc.Emails = append(doc.Emails, e)
	if c.DraftID != 0 {
		if d := doc.EmailByID(c.DraftID); d != nil && d.Folder == FolderDrafts && d.From == e.From {
			doc.removeEmail(c.DraftID)
		}
	}
	if err := s.store.Save(doc); err != nil {
		return Email{}, err
	}
	return e, nil
}

// Cancel handles leaving the compose view without sending. An empty buffer
// is discarded; a buffer identical to the draft it was loaded from is left
// untouched (no new record, no timestamp bump); anything else is persisted
// as a draft, in place when the buffer carries a draft id.
// Returns true when a write happened.
func (s *Service) Cancel(fromUsername string, c Compose) (bool, error) {
	if c.Empty() || c.Unchanged() {
		return false, nil
	}

	doc, err := s.store.Load()
	if err != nil {
		return false, err
	}

	if c.DraftID != 0 {
		if d := doc.EmailByID(c.DraftID); d != nil {
			d.To = c.To
			d.Subject = c.Subject
			d.Body = c.Body
			d.Date = s.Now().UTC().Format(time.RFC3339)
			return true, s.store.Save(doc)
		}
		// Draft vanished underneath us; fall through and recreate it.
	}

	e := s.newEmail(doc, fromUsername, c.To, c.Subject, c.Body, FolderDrafts)
	doc.Emails = append(doc.Emails, e)
	return true, s.store.Save(doc)
}

// DeleteDraft removes a draft record outright.
func (s *Service) DeleteDraft(id int64) error {
	return s.updateEmail(id, func(doc *Document, e *Email) error {
		if e.Folder != FolderDrafts {
			return fmt.Errorf("email %d is not a draft", id)
		}
		doc.removeEmail(id)
		return nil
	})
}

// MarkRead sets the read flag. Opening a message from the list view calls
// this as a coupled side effect of navigation.
func (s *Service) MarkRead(id int64) error {
	return s.updateEmail(id, func(_ *Document, e *Email) error {
		e.Read = true
		return nil
	})
}

// ToggleStar flips the starred flag and returns the new value.
func (s *Service) ToggleStar(id int64) (bool, error) {
	var starred bool
	err := s.updateEmail(id, func(_ *Document, e *Email) error {
		e.Starred = !e.Starred
		starred = e.Starred
		return nil
	})
	return starred, err
}

// MoveToTrash moves a record into the trash folder.
func (s *Service) MoveToTrash(id int64) error {
	return s.updateEmail(id, func(_ *Document, e *Email) error {
		e.Folder = FolderTrash
		return nil
	})
}

// Restore moves a trashed record back out: to sent when the caller authored
// it, otherwise to inbox. The pre-trash folder is not recorded, so this is
// the best reconstruction available.
func (s *Service) Restore(id int64, myAddr string) error {
	return s.updateEmail(id, func(_ *Document, e *Email) error {
		if e.Folder != FolderTrash {
			return ErrNotInTrash
		}
		if e.From == myAddr {
			e.Folder = FolderSent
		} else {
			e.Folder = FolderInbox
		}
		return nil
	})
}

// Purge permanently deletes a record. Only records already in trash can be
// purged.
func (s *Service) Purge(id int64) error {
	return s.updateEmail(id, func(doc *Document, e *Email) error {
		if e.Folder != FolderTrash {
			return ErrNotInTrash
		}
		doc.removeEmail(id)
		return nil
	})
}

// PurgeTrashOlderThan permanently deletes trashed records older than the
// cutoff. Used by the retention sweeper. Returns how many were removed.
func (s *Service) PurgeTrashOlderThan(age time.Duration) (int, error) {
	doc, err := s.store.Load()
	if err != nil {
		return 0, err
	}
	cutoff := s.Now().Add(-age)

	kept := doc.Emails[:0]
	purged := 0
	for _, e := range doc.Emails {
		if e.Folder == FolderTrash && e.Time().Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	if purged == 0 {
		return 0, nil
	}
	doc.Emails = kept
	return purged, s.store.Save(doc)
}

// Email returns a single record by id.
func (s *Service) Email(id int64) (Email, error) {
	doc, err := s.store.Load()
	if err != nil {
		return Email{}, err
	}
	e := doc.EmailByID(id)
	if e == nil {
		return Email{}, ErrNotFound
	}
	return *e, nil
}

// Emails returns the visible, ordered subset for a user's view.
func (s *Service) Emails(username string, v View, query string) ([]Email, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return Visible(doc.Emails, v, s.Address(username), query), nil
}

// Unread returns the unread inbox count for a user.
func (s *Service) Unread(username string) (int, error) {
	doc, err := s.store.Load()
	if err != nil {
		return 0, err
	}
	return UnreadCount(doc.Emails, s.Address(username)), nil
}

// Stats summarizes the mailbox document.
type Stats struct {
	Users     int
	Emails    int
	PerFolder map[Folder]int
}

// GetStats returns document-wide counts.
func (s *Service) GetStats() (*Stats, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	st := &Stats{
		Users:     len(doc.Users),
		Emails:    len(doc.Emails),
		PerFolder: make(map[Folder]int, len(Folders)),
	}
	for _, e := range doc.Emails {
		st.PerFolder[e.Folder]++
	}
	return st, nil
}

// updateEmail loads the document, applies fn to the record with the given
// id, and saves the whole document.
func (s *Service) updateEmail(id int64, fn func(*Document, *Email) error) error {
	doc, err := s.store.Load()
	if err != nil {
		return err
	}
	e := doc.EmailByID(id)
	if e == nil {
		return ErrNotFound
	}
	if err := fn(doc, e); err != nil {
		return err
	}
	return s.store.Save(doc)
}

// newEmail builds a record with a fresh id and timestamp. Ids derive from
// the creation time in milliseconds and are bumped past the current maximum
// on collision, so they stay unique and monotonic within a document.
func (s *Service) newEmail(doc *Document, fromUsername, to, subject, body string, folder Folder) Email {
	now := s.Now().UTC()
	id := now.UnixMilli()
	for _, e := range doc.Emails {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	return Email{
		ID:      id,
		From:    s.Address(fromUsername),
		To:      s.Address(to),
		Subject: subject,
		Body:    body,
		Date:    now.Format(time.RFC3339),
		Folder:  folder,
	}
}
