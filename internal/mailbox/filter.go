package mailbox

import (
	"sort"
	"strings"
)

// View selects which subset of the mailbox to show. The five folders are
// views, plus "starred" which is an overlay across folders rather than a
// folder of its own.
type View string

const (
	ViewInbox   View = View(FolderInbox)
	ViewSent    View = View(FolderSent)
	ViewDrafts  View = View(FolderDrafts)
	ViewTrash   View = View(FolderTrash)
	ViewSpam    View = View(FolderSpam)
	ViewStarred View = "starred"
)

// Views lists the selectable views in sidebar order.
var Views = []View{ViewInbox, ViewStarred, ViewSent, ViewDrafts, ViewSpam, ViewTrash}

// Title returns the display name for a view.
func (v View) Title() string {
	if v == "" {
		return ""
	}
	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

// matches reports whether e belongs to view v for the mailbox owner myAddr.
//
// Delivery uses a shared-record model: a send produces one record in the
// sent folder, and the recipient's inbox matches it by address. A record the
// owner authored never shows in their own inbox, which keeps inbox, sent and
// drafts a strict partition even for self-addressed mail.
func matches(e Email, v View, myAddr string) bool {
	switch v {
	case ViewInbox:
		return e.To == myAddr && e.From != myAddr &&
			(e.Folder == FolderInbox || e.Folder == FolderSent)
	case ViewSent:
		return e.From == myAddr && e.Folder == FolderSent
	case ViewDrafts:
		return e.From == myAddr && e.Folder == FolderDrafts
	case ViewTrash:
		return e.Folder == FolderTrash && (e.From == myAddr || e.To == myAddr)
	case ViewSpam:
		return e.To == myAddr && e.Folder == FolderSpam
	case ViewStarred:
		// Trashed mail leaves the starred overlay until restored.
		return e.Starred && e.Folder != FolderTrash &&
			(e.From == myAddr || e.To == myAddr)
	}
	return false
}

// Visible returns the emails shown for a view, newest first. A non-empty
// query further narrows the set with a case-insensitive substring match over
// subject, sender and body. The sort is stable so records with equal
// timestamps keep their insertion order.
func Visible(emails []Email, v View, myAddr, query string) []Email {
	q := strings.ToLower(strings.TrimSpace(query))

	var out []Email
	for _, e := range emails {
		if !matches(e, v, myAddr) {
			continue
		}
		if q != "" && !matchesQuery(e, q) {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time().After(out[j].Time())
	})
	return out
}

func matchesQuery(e Email, q string) bool {
	return strings.Contains(strings.ToLower(e.Subject), q) ||
		strings.Contains(strings.ToLower(e.From), q) ||
		strings.Contains(strings.ToLower(e.Body), q)
}

// UnreadCount returns how many inbox messages are unread for myAddr.
func UnreadCount(emails []Email, myAddr string) int {
	n := 0
	for _, e := range emails {
		if matches(e, ViewInbox, myAddr) && !e.Read {
			n++
		}
	}
	return n
}
