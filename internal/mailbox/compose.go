package mailbox

import "strings"

// replyExcerptLen is how many characters of the original body are quoted
// into a reply.
const replyExcerptLen = 120

// Compose is the transient edit buffer for a message being written. It is
// promoted to a sent record by Service.Submit or to a draft by
// Service.Cancel, depending on how the user leaves the compose view.
type Compose struct {
	// DraftID is non-zero when editing an existing draft; Submit and Cancel
	// carry it forward so the draft is replaced, not duplicated.
	DraftID int64

	To      string
	Subject string
	Body    string

	// Snapshot of the loaded draft, used to detect a no-op cancel.
	loadedTo      string
	loadedSubject string
	loadedBody    string
	hasLoaded     bool
}

// NewCompose returns an empty compose buffer.
func NewCompose() Compose {
	return Compose{}
}

// NewReply seeds a compose buffer from a source email: recipient, a
// Re:-prefixed subject, and a quoted excerpt of the original body.
func NewReply(source Email) Compose {
	subject := source.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	excerpt := source.Body
	// Truncate on a rune boundary so a multi-byte character is never split.
	if r := []rune(excerpt); len(r) > replyExcerptLen {
		excerpt = string(r[:replyExcerptLen]) + "..."
	}
	body := ""
	if excerpt != "" {
		body = "\n\n> " + strings.ReplaceAll(excerpt, "\n", "\n> ")
	}

	return Compose{
		To:      source.From,
		Subject: subject,
		Body:    body,
	}
}

// EditDraft seeds a compose buffer from an existing draft record,
// carrying its id so later writes update it in place.
func EditDraft(d Email) Compose {
	return Compose{
		DraftID:       d.ID,
		To:            d.To,
		Subject:       d.Subject,
		Body:          d.Body,
		loadedTo:      d.To,
		loadedSubject: d.Subject,
		loadedBody:    d.Body,
		hasLoaded:     true,
	}
}

// Empty reports whether every field of the buffer is blank.
func (c Compose) Empty() bool {
	return strings.TrimSpace(c.To) == "" &&
		strings.TrimSpace(c.Subject) == "" &&
		strings.TrimSpace(c.Body) == ""
}

// Unchanged reports whether the buffer still matches the draft it was loaded
// from. A buffer that was not loaded from a draft is never "unchanged".
func (c Compose) Unchanged() bool {
	return c.hasLoaded &&
		c.To == c.loadedTo &&
		c.Subject == c.loadedSubject &&
		c.Body == c.loadedBody
}
