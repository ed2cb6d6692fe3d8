package store

import "github.com/spailhq/spail/internal/mailbox"

// Seed constants. The welcome message predates any user-created mail, so its
// id never collides with creation-time-derived ids.
const (
	seedAdminUsername = "soumo"
	seedAdminPassword = "admin"
	seedWelcomeDate   = "2024-01-01T00:00:00Z"
)

// SeedDocument builds the built-in starting document: one administrator
// user and one welcome message in their inbox.
func SeedDocument(domain string) *mailbox.Document {
	return &mailbox.Document{
		Users: []mailbox.User{
			{
				Username: seedAdminUsername,
				Password: seedAdminPassword,
				Name:     "Soumo",
				Bio:      "System administrator",
			},
		},
		Emails: []mailbox.Email{
			{
				ID:      1,
				From:    "system@" + domain,
				To:      seedAdminUsername + "@" + domain,
				Subject: "Welcome to Soumo OS",
				Body:    "Your system has been successfully initialized. Spail is ready to use.",
				Date:    seedWelcomeDate,
				Folder:  mailbox.FolderInbox,
			},
		},
	}
}

// AdminUsername is the seed administrator account; surfaces that gate
// administrative actions check the session against it.
const AdminUsername = seedAdminUsername
