// Package tui provides the terminal interface for Spail: login, mailbox
// list, read, compose and profile views over the shared mailbox document.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/session"
)

// viewLevel is the current screen. Transitions follow the original app:
// list -> read marks the message read, read -> delete returns to list, and
// there is a single level of "back" from read/compose/profile to list.
type viewLevel int

const (
	viewLogin viewLevel = iota
	viewList
	viewRead
	viewCompose
	viewProfile
)

// Options configures the TUI.
type Options struct {
	Version string
}

// Model is the main TUI model following the Elm architecture.
type Model struct {
	svc      *mailbox.Service
	sessions *session.Provider
	version  string

	level viewLevel

	// Identity
	me       mailbox.User
	loggedIn bool

	// Login view
	registerMode bool
	userInput    textinput.Model
	passInput    textinput.Model
	nameInput    textinput.Model
	loginFocus   int
	loginErr     string

	// List view
	viewIdx      int // Index into mailbox.Views
	emails       []mailbox.Email
	cursor       int
	scrollOffset int
	unread       int
	searchInput  textinput.Model
	searchActive bool
	searchQuery  string

	// Read view
	selected   *mailbox.Email
	readScroll int

	// Compose view
	compose      mailbox.Compose
	toInput      textinput.Model
	subjectInput textinput.Model
	bodyInput    textarea.Model
	composeFocus int

	// Profile view
	profileName textinput.Model
	profileBio  textinput.Model
	profileFoc  int

	// Terminal dimensions
	width  int
	height int

	pageSize int

	// Flash message (temporary notification)
	flashMessage   string
	flashExpiresAt time.Time

	// Request tracking to ignore stale async results
	loadRequestID uint64

	loading  bool
	err      error
	quitting bool
}

// New creates the TUI model.
func New(svc *mailbox.Service, sessions *session.Provider, opts Options) Model {
	user := textinput.New()
	user.Placeholder = "username"
	user.CharLimit = 64
	user.Focus()

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.EchoMode = textinput.EchoPassword
	pass.CharLimit = 64

	name := textinput.New()
	name.Placeholder = "display name"
	name.CharLimit = 64

	search := textinput.New()
	search.Placeholder = "search mail"
	search.CharLimit = 200
	search.Width = 40

	to := textinput.New()
	to.Placeholder = "to (username or address)"
	to.CharLimit = 200

	subject := textinput.New()
	subject.Placeholder = "subject"
	subject.CharLimit = 200

	body := textarea.New()
	body.Placeholder = "write your message"
	body.CharLimit = 0

	pname := textinput.New()
	pname.Placeholder = "display name"
	pname.CharLimit = 64

	pbio := textinput.New()
	pbio.Placeholder = "bio"
	pbio.CharLimit = 200

	return Model{
		svc:          svc,
		sessions:     sessions,
		version:      opts.Version,
		level:        viewLogin,
		userInput:    user,
		passInput:    pass,
		nameInput:    name,
		searchInput:  search,
		toInput:      to,
		subjectInput: subject,
		bodyInput:    body,
		profileName:  pname,
		profileBio:   pbio,
		pageSize:     20,
	}
}

// Init implements tea.Model. An existing session skips the login view.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.resumeSession(), sessionTick())
}

// flashDuration is how long flash messages are displayed. Tests shorten it.
var flashDuration = 3 * time.Second

// --- messages ---

// emailsLoadedMsg is sent when the visible email list is loaded.
type emailsLoadedMsg struct {
	emails    []mailbox.Email
	unread    int
	err       error
	requestID uint64 // To detect stale responses
}

// authResultMsg is sent when a login or register attempt completes.
type authResultMsg struct {
	user mailbox.User
	err  error
}

// resumeMsg is sent at startup with any pre-existing session identity.
type resumeMsg struct {
	user mailbox.User
	ok   bool
}

// opDoneMsg is sent when a mailbox mutation completes. reload triggers a
// list refresh; flash is shown to the user when non-empty.
type opDoneMsg struct {
	err    error
	flash  string
	reload bool
}

// emailOpenedMsg is sent when a message has been fetched and marked read.
type emailOpenedMsg struct {
	email mailbox.Email
	err   error
}

// sessionPollMsg carries the current shared session value. The key is
// shared with other surfaces, so the TUI polls it and follows along.
type sessionPollMsg struct{}

// sessionStateMsg reports the polled session value.
type sessionStateMsg struct {
	username string
	ok       bool
}

// flashClearMsg clears the flash message after a timeout.
type flashClearMsg struct{}

// --- commands ---

// sessionTick schedules the next shared-session poll.
func sessionTick() tea.Cmd {
	return tea.Tick(session.PollInterval, func(time.Time) tea.Msg {
		return sessionPollMsg{}
	})
}

func (m Model) pollSession() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		username, ok, err := sessions.Current()
		if err != nil {
			return sessionStateMsg{}
		}
		return sessionStateMsg{username: username, ok: ok}
	}
}

func (m Model) resumeSession() tea.Cmd {
	svc, sessions := m.svc, m.sessions
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = resumeMsg{}
			}
		}()
		username, ok, err := sessions.Current()
		if err != nil || !ok {
			return resumeMsg{}
		}
		// A session naming a vanished user counts as logged out.
		u, err := svc.User(username)
		if err != nil {
			return resumeMsg{}
		}
		return resumeMsg{user: u, ok: true}
	}
}

// loadEmails fetches the visible subset for the active view and query.
func (m Model) loadEmails() tea.Cmd {
	svc := m.svc
	username := m.me.Username
	view := m.activeView()
	query := m.searchQuery
	requestID := m.loadRequestID
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = emailsLoadedMsg{err: fmt.Errorf("load panic: %v", r), requestID: requestID}
			}
		}()
		emails, err := svc.Emails(username, view, query)
		if err != nil {
			return emailsLoadedMsg{err: err, requestID: requestID}
		}
		unread, _ := svc.Unread(username)
		return emailsLoadedMsg{emails: emails, unread: unread, requestID: requestID}
	}
}

func (m Model) doLogin(username, password string) tea.Cmd {
	svc, sessions := m.svc, m.sessions
	return func() tea.Msg {
		u, err := svc.Login(username, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		if err := sessions.Set(u.Username); err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{user: u}
	}
}

func (m Model) doRegister(username, password, name string) tea.Cmd {
	svc, sessions := m.svc, m.sessions
	return func() tea.Msg {
		u, err := svc.Register(username, password, name)
		if err != nil {
			return authResultMsg{err: err}
		}
		if err := sessions.Set(u.Username); err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{user: u}
	}
}

// openEmail marks the message read and fetches it; opening and the read
// mutation are deliberately coupled, as in the original.
func (m Model) openEmail(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.MarkRead(id); err != nil {
			return emailOpenedMsg{err: err}
		}
		e, err := svc.Email(id)
		if err != nil {
			return emailOpenedMsg{err: err}
		}
		return emailOpenedMsg{email: e}
	}
}

func (m Model) doSend(c mailbox.Compose) tea.Cmd {
	svc := m.svc
	username := m.me.Username
	return func() tea.Msg {
		if _, err := svc.Submit(username, c); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Message sent", reload: true}
	}
}

// doCancelCompose applies the draft-on-cancel rules: discard when empty,
// no-op when an edited draft is unchanged, save a draft otherwise.
func (m Model) doCancelCompose(c mailbox.Compose) tea.Cmd {
	svc := m.svc
	username := m.me.Username
	return func() tea.Msg {
		saved, err := svc.Cancel(username, c)
		if err != nil {
			return opDoneMsg{err: err}
		}
		if saved {
			return opDoneMsg{flash: "Draft saved", reload: true}
		}
		return opDoneMsg{reload: true}
	}
}

func (m Model) doToggleStar(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		starred, err := svc.ToggleStar(id)
		if err != nil {
			return opDoneMsg{err: err}
		}
		if starred {
			return opDoneMsg{flash: "Starred", reload: true}
		}
		return opDoneMsg{flash: "Unstarred", reload: true}
	}
}

func (m Model) doTrash(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.MoveToTrash(id); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Moved to trash", reload: true}
	}
}

func (m Model) doRestore(id int64) tea.Cmd {
	svc := m.svc
	addr := m.svc.Address(m.me.Username)
	return func() tea.Msg {
		if err := svc.Restore(id, addr); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Restored", reload: true}
	}
}

func (m Model) doPurge(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.Purge(id); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Deleted permanently", reload: true}
	}
}

func (m Model) doDeleteDraft(id int64) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		if err := svc.DeleteDraft(id); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Draft deleted", reload: true}
	}
}

func (m Model) doSaveProfile(name, bio string) tea.Cmd {
	svc := m.svc
	username := m.me.Username
	avatar := m.me.Avatar
	return func() tea.Msg {
		if _, err := svc.UpdateProfile(username, name, bio, avatar); err != nil {
			return opDoneMsg{err: err}
		}
		return opDoneMsg{flash: "Profile saved"}
	}
}

func (m Model) doLogout() tea.Cmd {
	sessions := m.sessions
	return func() tea.Msg {
		_ = sessions.Clear()
		return sessionStateMsg{}
	}
}

// --- update ---

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = max(5, msg.Height-7)
		m.bodyInput.SetWidth(max(20, msg.Width-8))
		m.bodyInput.SetHeight(max(4, msg.Height-14))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case resumeMsg:
		if msg.ok {
			return m.enterList(msg.user)
		}
		return m, nil

	case authResultMsg:
		if msg.err != nil {
			m.loginErr = msg.err.Error()
			return m, nil
		}
		m.loginErr = ""
		return m.enterList(msg.user)

	case emailsLoadedMsg:
		if msg.requestID != m.loadRequestID {
			return m, nil // Stale response from an earlier view
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.emails = msg.emails
		m.unread = msg.unread
		if m.cursor >= len(m.emails) {
			m.cursor = max(0, len(m.emails)-1)
		}
		m.ensureCursorVisible()
		return m, nil

	case emailOpenedMsg:
		if msg.err != nil {
			return m.showFlash("Could not open message")
		}
		e := msg.email
		m.selected = &e
		m.readScroll = 0
		m.level = viewRead
		return m, nil

	case opDoneMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			m2, cmd := m.showFlash("Error: " + msg.err.Error())
			m = m2.(Model)
			cmds = append(cmds, cmd)
		} else if msg.flash != "" {
			m2, cmd := m.showFlash(msg.flash)
			m = m2.(Model)
			cmds = append(cmds, cmd)
		}
		if msg.reload {
			m.loadRequestID++
			cmds = append(cmds, m.loadEmails())
		}
		return m, tea.Batch(cmds...)

	case sessionPollMsg:
		return m, tea.Batch(m.pollSession(), sessionTick())

	case sessionStateMsg:
		return m.applySessionState(msg)

	case flashClearMsg:
		if time.Now().After(m.flashExpiresAt) {
			m.flashMessage = ""
		}
		return m, nil
	}

	return m, nil
}

// applySessionState reconciles the polled shared session with the local
// view: logout elsewhere drops to the login screen, login elsewhere (or a
// user switch) adopts the new identity.
func (m Model) applySessionState(msg sessionStateMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		if m.loggedIn {
			return m.enterLogin()
		}
		return m, nil
	}
	if m.loggedIn && msg.username == m.me.Username {
		return m, nil
	}
	u, err := m.svc.User(msg.username)
	if err != nil {
		// Session names a user that no longer exists: treat as logged out.
		if m.loggedIn {
			return m.enterLogin()
		}
		return m, nil
	}
	return m.enterList(u)
}

// enterList switches to the mailbox list for a user and loads it.
func (m Model) enterList(u mailbox.User) (tea.Model, tea.Cmd) {
	m.me = u
	m.loggedIn = true
	m.level = viewList
	m.viewIdx = 0
	m.cursor = 0
	m.scrollOffset = 0
	m.searchActive = false
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.loading = true
	m.loadRequestID++
	return m, m.loadEmails()
}

// enterLogin drops back to the login view and clears identity state.
func (m Model) enterLogin() (tea.Model, tea.Cmd) {
	m.me = mailbox.User{}
	m.loggedIn = false
	m.level = viewLogin
	m.registerMode = false
	m.loginFocus = 0
	m.loginErr = ""
	m.userInput.SetValue("")
	m.passInput.SetValue("")
	m.nameInput.SetValue("")
	m.userInput.Focus()
	m.passInput.Blur()
	m.nameInput.Blur()
	m.emails = nil
	m.selected = nil
	return m, nil
}

// activeView returns the currently selected mailbox view.
func (m Model) activeView() mailbox.View {
	return mailbox.Views[m.viewIdx]
}

func (m Model) showFlash(text string) (tea.Model, tea.Cmd) {
	m.flashMessage = text
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return m, tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// ensureCursorVisible adjusts the scroll offset to keep the cursor on
// screen.
func (m *Model) ensureCursorVisible() {
	if m.cursor < m.scrollOffset {
		m.scrollOffset = m.cursor
	}
	if m.cursor >= m.scrollOffset+m.pageSize {
		m.scrollOffset = m.cursor - m.pageSize + 1
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
