package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spailhq/spail/internal/mailbox"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase).
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Background(bgBase)

	separatorStyle = lipgloss.NewStyle().
			Faint(true).
			Background(bgBase)

	// Cursor row: subtle lighter background
	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	// Unread rows: bold
	unreadRowStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	normalRowStyle = lipgloss.NewStyle().
			Background(bgBase)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Background(bgBase)

	loadingStyle = lipgloss.NewStyle().
			Italic(true).
			Background(bgBase)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}). // Amber for visibility
			Background(bgBase)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading..."
	}

	switch m.level {
	case viewLogin:
		return m.renderLogin()
	case viewList:
		return m.renderList()
	case viewRead:
		return m.renderRead()
	case viewCompose:
		return m.renderCompose()
	case viewProfile:
		return m.renderProfile()
	}
	return ""
}

// buildTitleBar renders the top line: app name, version, identity.
func (m Model) buildTitleBar() string {
	titleText := "spail"
	if m.version != "" && m.version != "dev" && m.version != "unknown" {
		titleText = fmt.Sprintf("spail [%s]", m.version)
	}
	if m.loggedIn {
		titleText += " - " + m.svc.Address(m.me.Username)
		if m.unread > 0 {
			titleText += fmt.Sprintf("  (%d unread)", m.unread)
		}
	}
	return titleBarStyle.Render(padRight(titleText, m.width-2))
}

// buildTabs renders the view selector line for the list screen.
func (m Model) buildTabs() string {
	var b strings.Builder
	for i, v := range mailbox.Views {
		label := fmt.Sprintf("%d %s", i+1, v.Title())
		if i == m.viewIdx {
			b.WriteString(activeTabStyle.Render(label))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	return padRight(b.String(), m.width)
}

func (m Model) footer(text string) string {
	if m.flashMessage != "" {
		return flashStyle.Render(padRight(" "+m.flashMessage, m.width-1))
	}
	return footerStyle.Render(padRight(text, m.width-2))
}

func (m Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar())
	b.WriteString("\n\n")

	if m.registerMode {
		b.WriteString(labelStyle.Render("  Create account"))
	} else {
		b.WriteString(labelStyle.Render("  Sign in"))
	}
	b.WriteString("\n\n")
	b.WriteString("  " + m.userInput.View() + "\n")
	b.WriteString("  " + m.passInput.View() + "\n")
	if m.registerMode {
		b.WriteString("  " + m.nameInput.View() + "\n")
	}
	if m.loginErr != "" {
		b.WriteString("\n  " + errorStyle.Render(m.loginErr) + "\n")
	}
	b.WriteString("\n")

	hint := "enter: sign in • ctrl+r: create account • ctrl+c: quit"
	if m.registerMode {
		hint = "enter: register • ctrl+r: back to sign in • ctrl+c: quit"
	}
	b.WriteString(m.footer(hint))
	return b.String()
}

func (m Model) renderList() string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar())
	b.WriteString("\n")
	b.WriteString(m.buildTabs())
	b.WriteString("\n")

	if m.searchActive {
		b.WriteString(" /" + m.searchInput.View() + "\n")
	} else if m.searchQuery != "" {
		b.WriteString(separatorStyle.Render(padRight(fmt.Sprintf(" filter: %q", m.searchQuery), m.width)))
		b.WriteString("\n")
	}

	dateW := 10
	fromW := min(24, m.width/4)
	subjW := m.width - dateW - fromW - 8

	header := fmt.Sprintf("   %-*s  %-*s  %s",
		fromW, m.correspondentHeader(), subjW, "Subject", "Date")
	b.WriteString(tableHeaderStyle.Render(padRight(header, m.width)))
	b.WriteString("\n")
	b.WriteString(separatorStyle.Render(padRight(strings.Repeat("-", m.width), m.width)))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(loadingStyle.Render("  loading..."))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("  error: " + m.err.Error()))
		b.WriteString("\n")
	case len(m.emails) == 0:
		b.WriteString(separatorStyle.Render("  no messages"))
		b.WriteString("\n")
	default:
		end := min(len(m.emails), m.scrollOffset+m.pageSize)
		for i := m.scrollOffset; i < end; i++ {
			b.WriteString(m.renderRow(m.emails[i], i == m.cursor, fromW, subjW))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.footer("enter: open • c: compose • s: star • d: delete • u: restore • /: search • P: profile • L: logout • q: quit"))
	return b.String()
}

// correspondentHeader names the first column: who the message is from, or
// who it is to in views of the user's own mail.
func (m Model) correspondentHeader() string {
	switch m.activeView() {
	case mailbox.ViewSent, mailbox.ViewDrafts:
		return "To"
	default:
		return "From"
	}
}

// renderRow renders one list entry. Unread messages are bold, the cursor
// row gets a background, stars and folder markers prefix the row.
func (m Model) renderRow(e mailbox.Email, isCursor bool, fromW, subjW int) string {
	marker := " "
	if e.Starred {
		marker = "*"
	}

	who := e.From
	if m.correspondentHeader() == "To" {
		who = e.To
	}

	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	row := fmt.Sprintf(" %s %-*s  %-*s  %s",
		marker,
		fromW, truncateRunes(who, fromW),
		subjW, truncateRunes(subject, subjW),
		formatDate(e.Time(), m.svc.Now()))
	row = padRight(row, m.width)

	switch {
	case isCursor:
		return cursorRowStyle.Render(row)
	case !e.Read:
		return unreadRowStyle.Render(row)
	default:
		return normalRowStyle.Render(row)
	}
}

func (m Model) renderRead() string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar())
	b.WriteString("\n\n")

	if m.selected == nil {
		b.WriteString(separatorStyle.Render("  no message selected"))
		b.WriteString("\n")
		b.WriteString(m.footer("esc: back"))
		return b.String()
	}
	e := *m.selected

	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	star := ""
	if e.Starred {
		star = " *"
	}
	b.WriteString(" " + labelStyle.Render(subject) + star + "\n")
	b.WriteString(separatorStyle.Render(fmt.Sprintf(" From: %s", e.From)) + "\n")
	b.WriteString(separatorStyle.Render(fmt.Sprintf(" To:   %s", e.To)) + "\n")
	b.WriteString(separatorStyle.Render(fmt.Sprintf(" Date: %s", e.Time().Local().Format("2006-01-02 15:04"))) + "\n")
	b.WriteString(separatorStyle.Render(padRight(strings.Repeat("-", m.width), m.width)))
	b.WriteString("\n")

	bodyLines := wrapText(e.Body, max(20, m.width-2))
	visible := max(3, m.height-10)
	start := min(m.readScroll, max(0, len(bodyLines)-1))
	end := min(len(bodyLines), start+visible)
	for _, line := range bodyLines[start:end] {
		b.WriteString(" " + line + "\n")
	}

	b.WriteString(m.footer("r: reply • s: star • d: delete • esc: back"))
	return b.String()
}

func (m Model) renderCompose() string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar())
	b.WriteString("\n\n")

	title := "New message"
	if m.compose.DraftID != 0 {
		title = "Edit draft"
	}
	b.WriteString("  " + labelStyle.Render(title) + "\n\n")
	b.WriteString("  To:      " + m.toInput.View() + "\n")
	b.WriteString("  Subject: " + m.subjectInput.View() + "\n\n")
	b.WriteString(m.bodyInput.View())
	b.WriteString("\n\n")
	b.WriteString(m.footer("ctrl+s: send • tab: next field • esc: save draft and close"))
	return b.String()
}

func (m Model) renderProfile() string {
	var b strings.Builder
	b.WriteString(m.buildTitleBar())
	b.WriteString("\n\n")
	b.WriteString("  " + labelStyle.Render("Profile") + "\n\n")
	b.WriteString("  Username: " + m.me.Username + "\n")
	b.WriteString("  Address:  " + m.svc.Address(m.me.Username) + "\n\n")
	b.WriteString("  Name: " + m.profileName.View() + "\n")
	b.WriteString("  Bio:  " + m.profileBio.View() + "\n\n")
	b.WriteString(m.footer("enter: save • tab: next field • esc: back"))
	return b.String()
}
