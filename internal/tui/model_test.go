package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spailhq/spail/internal/mailbox"
	"github.com/spailhq/spail/internal/session"
	"github.com/spailhq/spail/internal/testutil"
)

// newTestModel builds a model over a fresh store with alice and bob
// registered, sized like a normal terminal.
func newTestModel(t *testing.T) (Model, *mailbox.Service) {
	t.Helper()
	svc, st := testutil.NewTestService(t)
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	for _, name := range []string{"alice", "bob"} {
		if _, err := svc.Register(name, "pw", name); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}

	flashDuration = time.Millisecond

	m := New(svc, session.NewProvider(st), Options{Version: "test"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), svc
}

// loginAs drives the model into the list view for a user and loads mail.
func loginAs(t *testing.T, m Model, svc *mailbox.Service, username string) Model {
	t.Helper()
	u, err := svc.User(username)
	if err != nil {
		t.Fatalf("user %s: %v", username, err)
	}
	updated, cmd := m.enterList(u)
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("enterList should schedule a load")
	}
	return drain(t, m, cmd)
}

// drain runs a command tree to completion, feeding every produced message
// back into Update. Tick commands are not followed.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch batch := msg.(type) {
	case tea.BatchMsg:
		for _, c := range batch {
			m = drain(t, m, c)
		}
		return m
	default:
		if msg == nil {
			return m
		}
		if _, ok := msg.(sessionPollMsg); ok {
			return m
		}
		updated, next := m.Update(msg)
		return drain(t, updated.(Model), next)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(t *testing.T, m Model, s string) Model {
	t.Helper()
	updated, cmd := m.Update(key(s))
	return drain(t, updated.(Model), cmd)
}

func TestLoginFailureShowsError(t *testing.T) {
	m, _ := newTestModel(t)

	m.userInput.SetValue("alice")
	m.passInput.SetValue("wrong")
	m = press(t, m, "enter")

	if m.level != viewLogin {
		t.Fatalf("level = %v, want login", m.level)
	}
	if m.loginErr == "" {
		t.Error("no error shown for bad credentials")
	}
}

func TestLoginSuccessEntersList(t *testing.T) {
	m, _ := newTestModel(t)

	m.userInput.SetValue("alice")
	m.passInput.SetValue("pw")
	m = press(t, m, "enter")

	if m.level != viewList {
		t.Fatalf("level = %v, want list", m.level)
	}
	if m.me.Username != "alice" {
		t.Errorf("me = %q", m.me.Username)
	}
	if !m.loggedIn {
		t.Error("not marked logged in")
	}
}

func TestStaleLoadIsIgnored(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	stale := emailsLoadedMsg{
		emails:    []mailbox.Email{{ID: 999, Subject: "stale"}},
		requestID: m.loadRequestID - 1,
	}
	updated, _ := m.Update(stale)
	m = updated.(Model)

	for _, e := range m.emails {
		if e.ID == 999 {
			t.Fatal("stale load result applied")
		}
	}
}

func TestListNavigationBounds(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Send("bob", "alice", "one", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send("bob", "alice", "two", "x"); err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")

	if len(m.emails) != 2 {
		t.Fatalf("loaded %d emails, want 2", len(m.emails))
	}

	// Down twice stops at the last row, up past the top stays at zero.
	m = press(t, m, "j")
	m = press(t, m, "j")
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
	m = press(t, m, "k")
	m = press(t, m, "k")
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
}

func TestSwitchViewReloads(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	before := m.loadRequestID
	m = press(t, m, "tab")
	if m.viewIdx != 1 {
		t.Errorf("viewIdx = %d, want 1", m.viewIdx)
	}
	if m.loadRequestID == before {
		t.Error("switching views did not issue a fresh load")
	}
	if m.activeView() != mailbox.ViewStarred {
		t.Errorf("active view = %v", m.activeView())
	}
}

func TestOpenMessageMarksRead(t *testing.T) {
	m, svc := newTestModel(t)
	sent, err := svc.Send("bob", "alice", "hello", "body text")
	if err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")

	m = press(t, m, "enter")
	if m.level != viewRead {
		t.Fatalf("level = %v, want read", m.level)
	}
	if m.selected == nil || m.selected.ID != sent.ID {
		t.Fatal("wrong message opened")
	}

	e, err := svc.Email(sent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !e.Read {
		t.Error("opening did not mark the message read")
	}

	// Esc returns to the list.
	m = press(t, m, "esc")
	if m.level != viewList {
		t.Errorf("level after esc = %v", m.level)
	}
}

func TestDraftOpensInComposer(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Cancel("alice", mailbox.Compose{To: "bob", Subject: "wip", Body: "half"}); err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")

	// Move to the drafts view (index 3) and open.
	for m.activeView() != mailbox.ViewDrafts {
		m = press(t, m, "tab")
	}
	if len(m.emails) != 1 {
		t.Fatalf("drafts view has %d entries", len(m.emails))
	}
	m = press(t, m, "enter")

	if m.level != viewCompose {
		t.Fatalf("level = %v, want compose", m.level)
	}
	if m.compose.DraftID == 0 {
		t.Error("composer did not carry the draft id")
	}
	if m.toInput.Value() != "bob@"+testutil.TestDomain {
		t.Errorf("to field = %q", m.toInput.Value())
	}
}

func TestComposeSend(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	m = press(t, m, "c")
	if m.level != viewCompose {
		t.Fatalf("level = %v, want compose", m.level)
	}

	m.toInput.SetValue("bob")
	m.subjectInput.SetValue("hi")
	m.bodyInput.SetValue("message body")
	m = press(t, m, "ctrl+s")

	if m.level != viewList {
		t.Fatalf("level after send = %v", m.level)
	}
	sent, err := svc.Emails("alice", mailbox.ViewSent, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0].Subject != "hi" {
		t.Errorf("sent = %+v", sent)
	}
	if m.flashMessage == "" {
		t.Error("no confirmation flash after send")
	}
}

func TestComposeSendRequiresRecipient(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")
	m = press(t, m, "c")

	m.bodyInput.SetValue("no recipient")
	m = press(t, m, "ctrl+s")
	if m.level != viewCompose {
		t.Error("send without recipient left the composer")
	}
}

func TestComposeCancelSavesDraft(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")
	m = press(t, m, "c")

	m.toInput.SetValue("bob")
	m.bodyInput.SetValue("unfinished")
	m = press(t, m, "esc")

	if m.level != viewList {
		t.Fatalf("level after cancel = %v", m.level)
	}
	drafts, err := svc.Emails("alice", mailbox.ViewDrafts, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
}

func TestComposeCancelEmptyDiscards(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")
	m = press(t, m, "c")
	m = press(t, m, "esc")

	drafts, err := svc.Emails("alice", mailbox.ViewDrafts, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 0 {
		t.Errorf("empty cancel created a draft: %+v", drafts)
	}
}

func TestReplyFromReader(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Send("bob", "alice", "question", "what's up"); err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")
	m = press(t, m, "enter")
	m = press(t, m, "r")

	if m.level != viewCompose {
		t.Fatalf("level = %v, want compose", m.level)
	}
	if m.toInput.Value() != "bob@"+testutil.TestDomain {
		t.Errorf("reply to = %q", m.toInput.Value())
	}
	if !strings.HasPrefix(m.subjectInput.Value(), "Re: ") {
		t.Errorf("reply subject = %q", m.subjectInput.Value())
	}
}

func TestSessionLogoutElsewhereDropsToLogin(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	updated, _ := m.Update(sessionStateMsg{})
	m = updated.(Model)
	if m.level != viewLogin {
		t.Fatalf("level = %v, want login", m.level)
	}
	if m.loggedIn {
		t.Error("still marked logged in")
	}
}

func TestSessionSwitchElsewhereAdoptsUser(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	updated, cmd := m.Update(sessionStateMsg{username: "bob", ok: true})
	m = drain(t, updated.(Model), cmd)
	if m.me.Username != "bob" {
		t.Errorf("me = %q, want bob", m.me.Username)
	}
	if m.level != viewList {
		t.Errorf("level = %v", m.level)
	}
}

func TestSessionVanishedUserDropsToLogin(t *testing.T) {
	m, svc := newTestModel(t)
	m = loginAs(t, m, svc, "alice")

	updated, _ := m.Update(sessionStateMsg{username: "ghost", ok: true})
	m = updated.(Model)
	if m.level != viewLogin {
		t.Errorf("level = %v, want login", m.level)
	}
}

func TestSearchFilter(t *testing.T) {
	m, svc := newTestModel(t)
	if _, err := svc.Send("bob", "alice", "project plan", "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send("bob", "alice", "lunch", "x"); err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")

	m = press(t, m, "/")
	if !m.searchActive {
		t.Fatal("search mode not active")
	}
	m.searchInput.SetValue("project")
	m = press(t, m, "enter")

	if m.searchActive {
		t.Error("search mode should end on enter")
	}
	if len(m.emails) != 1 || m.emails[0].Subject != "project plan" {
		t.Errorf("filtered list = %+v", m.emails)
	}

	// Esc clears the filter and reloads.
	m = press(t, m, "/")
	m = press(t, m, "esc")
	if len(m.emails) != 2 {
		t.Errorf("cleared list = %d entries, want 2", len(m.emails))
	}
}

func TestTrashFromList(t *testing.T) {
	m, svc := newTestModel(t)
	sent, err := svc.Send("bob", "alice", "doomed", "x")
	if err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")

	m = press(t, m, "d")
	if len(m.emails) != 0 {
		t.Errorf("inbox after trash = %+v", m.emails)
	}
	e, err := svc.Email(sent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if e.Folder != mailbox.FolderTrash {
		t.Errorf("folder = %s, want trash", e.Folder)
	}
}

func TestViewRenders(t *testing.T) {
	m, svc := newTestModel(t)

	// Login view renders the sign-in prompt.
	if out := m.View(); !strings.Contains(out, "Sign in") {
		t.Errorf("login view missing prompt:\n%s", out)
	}

	if _, err := svc.Send("bob", "alice", "render me", "x"); err != nil {
		t.Fatal(err)
	}
	m = loginAs(t, m, svc, "alice")
	out := m.View()
	if !strings.Contains(out, "render me") {
		t.Errorf("list view missing subject:\n%s", out)
	}
	if !strings.Contains(out, "alice@"+testutil.TestDomain) {
		t.Errorf("title bar missing identity:\n%s", out)
	}

	m = press(t, m, "enter")
	if out := m.View(); !strings.Contains(out, "render me") {
		t.Errorf("read view missing subject:\n%s", out)
	}
}
