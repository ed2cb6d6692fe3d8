// Package mailbox implements the Spail mail data model: the persisted
// user/email document, authentication, folder views, and the compose/draft
// lifecycle. All mutation goes through Service, which rewrites the whole
// document on every change.
package mailbox

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Folder classifies an email record. Every email is in exactly one folder;
// moving between folders is a full-record update.
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderSent   Folder = "sent"
	FolderDrafts Folder = "drafts"
	FolderTrash  Folder = "trash"
	FolderSpam   Folder = "spam"
)

// Folders lists every valid folder value.
var Folders = []Folder{FolderInbox, FolderSent, FolderDrafts, FolderTrash, FolderSpam}

// Valid reports whether f is one of the enumerated folder values.
func (f Folder) Valid() bool {
	switch f {
	case FolderInbox, FolderSent, FolderDrafts, FolderTrash, FolderSpam:
		return true
	}
	return false
}

// ParseFolder converts a string to a Folder.
func ParseFolder(s string) (Folder, error) {
	f := Folder(strings.ToLower(s))
	if !f.Valid() {
		return "", fmt.Errorf("unknown folder %q", s)
	}
	return f, nil
}

// User is a registered account. Passwords are stored and compared verbatim —
// a deliberate parity choice with the original demo; see README before
// deploying this anywhere that matters.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	// Avatar holds embedded image data (a data: URL); empty means no avatar.
	Avatar string `json:"avatar,omitempty"`
}

// Email is a single message record. From and To are qualified addresses
// (username@domain). Date is RFC 3339 in UTC.
type Email struct {
	ID      int64  `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Date    string `json:"date"`
	Read    bool   `json:"read"`
	Starred bool   `json:"starred"`
	Folder  Folder `json:"folder"`
}

// Time parses the email's date. A malformed date sorts as the zero time.
func (e Email) Time() time.Time {
	t, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Document is the aggregate root: every user and email record, serialized as
// one JSON blob and always replaced whole.
type Document struct {
	Users  []User  `json:"users"`
	Emails []Email `json:"emails"`
}

// UserByUsername returns the user with the given username, or nil.
// Lookup is case-sensitive.
func (d *Document) UserByUsername(username string) *User {
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i]
		}
	}
	return nil
}

// EmailByID returns the email with the given id, or nil.
func (d *Document) EmailByID(id int64) *Email {
	for i := range d.Emails {
		if d.Emails[i].ID == id {
			return &d.Emails[i]
		}
	}
	return nil
}

// removeEmail deletes the email with the given id, preserving order.
// Returns false if no such record exists.
func (d *Document) removeEmail(id int64) bool {
	for i := range d.Emails {
		if d.Emails[i].ID == id {
			d.Emails = append(d.Emails[:i], d.Emails[i+1:]...)
			return true
		}
	}
	return false
}

// Errors returned by Service operations.
var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrNotInTrash         = errors.New("message is not in trash")
)
