package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spailhq/spail/internal/mailbox"
)

// handleKeys dispatches key input to the active view.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.level {
	case viewLogin:
		return m.handleLoginKeys(msg)
	case viewList:
		return m.handleListKeys(msg)
	case viewRead:
		return m.handleReadKeys(msg)
	case viewCompose:
		return m.handleComposeKeys(msg)
	case viewProfile:
		return m.handleProfileKeys(msg)
	}
	return m, nil
}

// loginFieldCount is 2 for login, 3 when registering (adds display name).
func (m Model) loginFieldCount() int {
	if m.registerMode {
		return 3
	}
	return 2
}

func (m Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.loginFocus = (m.loginFocus + 1) % m.loginFieldCount()
		return m.focusLoginField()
	case "shift+tab", "up":
		m.loginFocus = (m.loginFocus - 1 + m.loginFieldCount()) % m.loginFieldCount()
		return m.focusLoginField()
	case "ctrl+r":
		m.registerMode = !m.registerMode
		m.loginErr = ""
		if m.loginFocus >= m.loginFieldCount() {
			m.loginFocus = 0
		}
		return m.focusLoginField()
	case "enter":
		username := m.userInput.Value()
		password := m.passInput.Value()
		if username == "" || password == "" {
			m.loginErr = "username and password are required"
			return m, nil
		}
		m.loginErr = ""
		if m.registerMode {
			return m, m.doRegister(username, password, m.nameInput.Value())
		}
		return m, m.doLogin(username, password)
	}

	var cmd tea.Cmd
	switch m.loginFocus {
	case 0:
		m.userInput, cmd = m.userInput.Update(msg)
	case 1:
		m.passInput, cmd = m.passInput.Update(msg)
	case 2:
		m.nameInput, cmd = m.nameInput.Update(msg)
	}
	return m, cmd
}

func (m Model) focusLoginField() (tea.Model, tea.Cmd) {
	m.userInput.Blur()
	m.passInput.Blur()
	m.nameInput.Blur()
	switch m.loginFocus {
	case 0:
		return m, m.userInput.Focus()
	case 1:
		return m, m.passInput.Focus()
	default:
		return m, m.nameInput.Focus()
	}
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Search entry has its own mode: keys feed the input until enter/esc.
	if m.searchActive {
		switch msg.String() {
		case "enter":
			m.searchActive = false
			m.searchInput.Blur()
			m.searchQuery = m.searchInput.Value()
			m.cursor = 0
			m.scrollOffset = 0
			m.loadRequestID++
			return m, m.loadEmails()
		case "esc":
			m.searchActive = false
			m.searchInput.Blur()
			m.searchInput.SetValue("")
			if m.searchQuery != "" {
				m.searchQuery = ""
				m.loadRequestID++
				return m, m.loadEmails()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.ensureCursorVisible()
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.emails)-1 {
			m.cursor++
			m.ensureCursorVisible()
		}
		return m, nil
	case "g", "home":
		m.cursor = 0
		m.ensureCursorVisible()
		return m, nil
	case "G", "end":
		m.cursor = max(0, len(m.emails)-1)
		m.ensureCursorVisible()
		return m, nil
	case "pgup":
		m.cursor = max(0, m.cursor-m.pageSize)
		m.ensureCursorVisible()
		return m, nil
	case "pgdown":
		m.cursor = min(max(0, len(m.emails)-1), m.cursor+m.pageSize)
		m.ensureCursorVisible()
		return m, nil

	case "tab", "right", "l":
		return m.switchView((m.viewIdx + 1) % len(mailbox.Views))
	case "shift+tab", "left", "h":
		return m.switchView((m.viewIdx - 1 + len(mailbox.Views)) % len(mailbox.Views))
	case "1", "2", "3", "4", "5", "6":
		idx := int(msg.String()[0] - '1')
		if idx < len(mailbox.Views) {
			return m.switchView(idx)
		}
		return m, nil

	case "enter":
		e, ok := m.selectedEmail()
		if !ok {
			return m, nil
		}
		// Drafts open back into the compose buffer instead of the reader.
		if e.Folder == mailbox.FolderDrafts && m.activeView() == mailbox.ViewDrafts {
			return m.enterCompose(mailbox.EditDraft(e))
		}
		return m, m.openEmail(e.ID)

	case "c":
		return m.enterCompose(mailbox.NewCompose())

	case "s":
		if e, ok := m.selectedEmail(); ok {
			return m, m.doToggleStar(e.ID)
		}
		return m, nil
	case "d":
		e, ok := m.selectedEmail()
		if !ok {
			return m, nil
		}
		if e.Folder == mailbox.FolderDrafts {
			return m, m.doDeleteDraft(e.ID)
		}
		if e.Folder == mailbox.FolderTrash {
			return m, m.doPurge(e.ID)
		}
		return m, m.doTrash(e.ID)
	case "u":
		if e, ok := m.selectedEmail(); ok && e.Folder == mailbox.FolderTrash {
			return m, m.doRestore(e.ID)
		}
		return m, nil

	case "/":
		m.searchActive = true
		m.searchInput.SetValue(m.searchQuery)
		return m, m.searchInput.Focus()

	case "R":
		m.loadRequestID++
		m.loading = true
		return m, m.loadEmails()

	case "P":
		return m.enterProfile()

	case "L":
		return m, m.doLogout()
	}
	return m, nil
}

// switchView changes the active mailbox view and reloads.
func (m Model) switchView(idx int) (tea.Model, tea.Cmd) {
	if idx == m.viewIdx {
		return m, nil
	}
	m.viewIdx = idx
	m.cursor = 0
	m.scrollOffset = 0
	m.loading = true
	m.loadRequestID++
	return m, m.loadEmails()
}

func (m Model) selectedEmail() (mailbox.Email, bool) {
	if m.cursor < 0 || m.cursor >= len(m.emails) {
		return mailbox.Email{}, false
	}
	return m.emails[m.cursor], true
}

func (m Model) handleReadKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.selected = nil
		m.level = viewList
		m.loadRequestID++
		return m, m.loadEmails()
	case "up", "k":
		if m.readScroll > 0 {
			m.readScroll--
		}
		return m, nil
	case "down", "j":
		m.readScroll++
		return m, nil
	case "r":
		if m.selected != nil {
			return m.enterCompose(mailbox.NewReply(*m.selected))
		}
		return m, nil
	case "s":
		if m.selected != nil {
			id := m.selected.ID
			m.selected.Starred = !m.selected.Starred
			return m, m.doToggleStar(id)
		}
		return m, nil
	case "d":
		if m.selected != nil {
			id := m.selected.ID
			m.selected = nil
			m.level = viewList
			return m, m.doTrash(id)
		}
		return m, nil
	}
	return m, nil
}

// enterCompose opens the compose view with a prepared buffer.
func (m Model) enterCompose(c mailbox.Compose) (tea.Model, tea.Cmd) {
	m.compose = c
	m.level = viewCompose
	m.composeFocus = 0
	m.toInput.SetValue(c.To)
	m.subjectInput.SetValue(c.Subject)
	m.bodyInput.SetValue(c.Body)
	m.subjectInput.Blur()
	m.bodyInput.Blur()
	return m, m.toInput.Focus()
}

// syncCompose copies the input widgets back into the compose buffer.
func (m *Model) syncCompose() {
	m.compose.To = m.toInput.Value()
	m.compose.Subject = m.subjectInput.Value()
	m.compose.Body = m.bodyInput.Value()
}

func (m Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.syncCompose()
		c := m.compose
		m.level = viewList
		return m, m.doCancelCompose(c)
	case "ctrl+s":
		m.syncCompose()
		if m.compose.To == "" {
			return m.showFlash("Recipient is required")
		}
		c := m.compose
		m.level = viewList
		return m, m.doSend(c)
	case "tab":
		m.syncCompose()
		m.composeFocus = (m.composeFocus + 1) % 3
		return m.focusComposeField()
	case "shift+tab":
		m.syncCompose()
		m.composeFocus = (m.composeFocus + 2) % 3
		return m.focusComposeField()
	}

	var cmd tea.Cmd
	switch m.composeFocus {
	case 0:
		m.toInput, cmd = m.toInput.Update(msg)
	case 1:
		m.subjectInput, cmd = m.subjectInput.Update(msg)
	case 2:
		m.bodyInput, cmd = m.bodyInput.Update(msg)
	}
	return m, cmd
}

func (m Model) focusComposeField() (tea.Model, tea.Cmd) {
	m.toInput.Blur()
	m.subjectInput.Blur()
	m.bodyInput.Blur()
	switch m.composeFocus {
	case 0:
		return m, m.toInput.Focus()
	case 1:
		return m, m.subjectInput.Focus()
	default:
		return m, m.bodyInput.Focus()
	}
}

// enterProfile opens the profile editor seeded from the current user.
func (m Model) enterProfile() (tea.Model, tea.Cmd) {
	m.level = viewProfile
	m.profileFoc = 0
	m.profileName.SetValue(m.me.Name)
	m.profileBio.SetValue(m.me.Bio)
	m.profileBio.Blur()
	return m, m.profileName.Focus()
}

func (m Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.level = viewList
		return m, nil
	case "enter":
		name := m.profileName.Value()
		bio := m.profileBio.Value()
		m.me.Name = name
		m.me.Bio = bio
		m.level = viewList
		return m, m.doSaveProfile(name, bio)
	case "tab", "down":
		m.profileFoc = (m.profileFoc + 1) % 2
		return m.focusProfileField()
	case "shift+tab", "up":
		m.profileFoc = (m.profileFoc + 1) % 2
		return m.focusProfileField()
	}

	var cmd tea.Cmd
	switch m.profileFoc {
	case 0:
		m.profileName, cmd = m.profileName.Update(msg)
	case 1:
		m.profileBio, cmd = m.profileBio.Update(msg)
	}
	return m, cmd
}

func (m Model) focusProfileField() (tea.Model, tea.Cmd) {
	m.profileName.Blur()
	m.profileBio.Blur()
	if m.profileFoc == 0 {
		return m, m.profileName.Focus()
	}
	return m, m.profileBio.Focus()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
