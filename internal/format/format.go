// Package format renders store records as Telegram HTML messages.
// All user-supplied text is escaped.
package format

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/edgard/termbot/internal/database"
	"github.com/edgard/termbot/internal/encyclopedia"
)

// MaxMessageLen is Telegram's limit for a message text.
const MaxMessageLen = 4096

const notSet = "<i>not set</i>"

func Bold(s string) string { return "<b>" + html.EscapeString(s) + "</b>" }
func Code(s string) string { return "<code>" + html.EscapeString(s) + "</code>" }

// Link renders an anchor; the URL is attribute-escaped.
func Link(text, url string) string {
	return `<a href="` + html.EscapeString(url) + `">` + html.EscapeString(text) + "</a>"
}

// Escape escapes s for HTML parse mode.
func Escape(s string) string { return html.EscapeString(s) }

func nullable(v string, valid bool) string {
	if !valid || v == "" {
		return notSet
	}
	return html.EscapeString(v)
}

// Profile renders a user's profile card.
func Profile(u *database.User) string {
	var b strings.Builder
	b.WriteString(Bold("👤 Your profile") + "\n\n")
	fmt.Fprintf(&b, "<b>First name:</b> %s\n", nullable(u.FirstName.String, u.FirstName.Valid))
	fmt.Fprintf(&b, "<b>Last name:</b> %s\n", nullable(u.LastName.String, u.LastName.Valid))
	if u.Username.Valid && u.Username.String != "" {
		fmt.Fprintf(&b, "<b>Username:</b> @%s\n", html.EscapeString(u.Username.String))
	}
	fmt.Fprintf(&b, "<b>Email:</b> %s\n", nullable(u.Email.String, u.Email.Valid))
	age := notSet
	if u.Age.Valid {
		age = strconv.FormatInt(u.Age.Int64, 10)
	}
	fmt.Fprintf(&b, "<b>Age:</b> %s\n\n", age)

	b.WriteString(Bold("📊 Activity") + "\n")
	fmt.Fprintf(&b, "• Searches: %d\n", u.SearchCount)
	fmt.Fprintf(&b, "• Registered: %s\n", html.EscapeString(u.RegistrationDate.Format(database.DateLayout)))
	fmt.Fprintf(&b, "• Last activity: %s\n\n", html.EscapeString(u.LastActivity.Format(database.DateTimeLayout)))
	fmt.Fprintf(&b, "<b>ID:</b> %s", Code(strconv.FormatInt(u.ExternalID, 10)))
	return b.String()
}

// HistoryItem renders one search history entry.
func HistoryItem(e database.SearchHistoryEntry) string {
	lines := []string{
		"📅 " + html.EscapeString(e.Timestamp.Format(database.DateTimeLayout)),
		"🔍 <b>Query:</b> " + Code(e.SearchTerm),
	}
	if e.Success && e.ResultTitle.Valid {
		lines = append(lines, "📚 <b>Result:</b> "+html.EscapeString(e.ResultTitle.String))
		if e.ResultURL.Valid && e.ResultURL.String != "" {
			lines = append(lines, "🔗 "+Link("Open article", e.ResultURL.String))
		}
	} else {
		lines = append(lines, "❌ No result")
	}
	return strings.Join(lines, "\n")
}

// History renders a list of entries under a header.
func History(entries []database.SearchHistoryEntry) string {
	parts := make([]string, 0, len(entries)+1)
	parts = append(parts, Bold("📜 Your search history"))
	for i, e := range entries {
		parts = append(parts, fmt.Sprintf("<b>%d.</b>\n%s", i+1, HistoryItem(e)))
	}
	return strings.Join(parts, "\n\n")
}

func successRate(total, ok int) float64 {
	if total == 0 {
		return 0
	}
	return float64(ok) / float64(total) * 100
}

func termList(b *strings.Builder, title string, terms []database.TermCount) {
	if len(terms) == 0 {
		return
	}
	b.WriteString("\n" + Bold(title) + "\n")
	for i, tc := range terms {
		fmt.Fprintf(b, "%d. %s - %d\n", i+1, Code(tc.Term), tc.Count)
	}
}

// BotStats renders global usage figures for admins.
func BotStats(s *database.BotStats) string {
	var b strings.Builder
	b.WriteString(Bold("📊 Bot statistics") + "\n\n")
	b.WriteString(Bold("👥 Users") + "\n")
	fmt.Fprintf(&b, "• Total: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "• Active (30 days): %d\n\n", s.ActiveUsers)
	b.WriteString(Bold("🔍 Searches") + "\n")
	fmt.Fprintf(&b, "• Total: %d\n", s.TotalSearches)
	fmt.Fprintf(&b, "• Successful: %d\n", s.SuccessfulSearches)
	fmt.Fprintf(&b, "• Success rate: %.1f%%\n", successRate(s.TotalSearches, s.SuccessfulSearches))
	termList(&b, "🏆 Popular terms", s.PopularTerms)
	return strings.TrimRight(b.String(), "\n")
}

// UserStats renders one user's statistics.
func UserStats(s *database.UserStats) string {
	var b strings.Builder
	b.WriteString(Bold("📊 Your statistics") + "\n\n")
	fmt.Fprintf(&b, "• Searches: %d\n", s.TotalSearches)
	fmt.Fprintf(&b, "• Successful: %d\n", s.SuccessfulSearches)
	fmt.Fprintf(&b, "• Success rate: %.1f%%\n", successRate(s.TotalSearches, s.SuccessfulSearches))
	if s.FirstSearch != "" {
		fmt.Fprintf(&b, "• First search: %s\n", html.EscapeString(s.FirstSearch))
		fmt.Fprintf(&b, "• Last search: %s\n", html.EscapeString(s.LastSearch))
	}
	termList(&b, "🏆 Your top terms", s.PopularTerms)
	return strings.TrimRight(b.String(), "\n")
}

// UsersList renders users for the admin list.
func UsersList(users []database.User) string {
	if len(users) == 0 {
		return Bold("📭 No users yet.")
	}
	parts := []string{Bold("👥 Users")}
	for i, u := range users {
		status := "⏳"
		if u.IsRegistered {
			status = "✅"
		}
		name := strings.TrimSpace(u.FirstName.String + " " + u.LastName.String)
		if name == "" {
			name = "not set"
		}
		parts = append(parts, fmt.Sprintf("%d. %s %s\n   👤 %s\n   📊 Searches: %d\n   📅 Registered: %s",
			i+1, status, Code(strconv.FormatInt(u.ExternalID, 10)),
			html.EscapeString(name), u.SearchCount,
			html.EscapeString(u.RegistrationDate.Format(database.DateLayout))))
	}
	parts = append(parts, fmt.Sprintf("<b>Total shown:</b> %d", len(users)))
	return strings.Join(parts, "\n\n")
}

// UserLine is a one-line user reference for confirmations.
func UserLine(u *database.User) string {
	return fmt.Sprintf("%s (%s)", html.EscapeString(u.DisplayName()), Code(strconv.FormatInt(u.ExternalID, 10)))
}

// Article renders a lookup result, keeping it under the message limit.
func Article(a *encyclopedia.Article) string {
	text := Bold(a.Title) + "\n\n" + html.EscapeString(a.Summary)
	return Clip(text, MaxMessageLen)
}

// Options renders disambiguation alternatives as a bullet list.
func Options(options []string) string {
	lines := make([]string, len(options))
	for i, o := range options {
		lines[i] = "• " + Code(o)
	}
	return strings.Join(lines, "\n")
}

// Clip cuts s to maxLen runes, backing off so no entity or tag is split.
func Clip(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)[:maxLen-3]
	cut := len(runes)
scan:
	for i := len(runes) - 1; i >= 0 && i >= len(runes)-10; i-- {
		switch runes[i] {
		case ';', '>':
			break scan
		case '&', '<':
			cut = i
			break scan
		}
	}
	return string(runes[:cut]) + "..."
}

// RecentSearches renders searches by all users for admins.
func RecentSearches(searches []database.RecentSearch, hours int) string {
	if len(searches) == 0 {
		return Bold(fmt.Sprintf("🕑 No searches in the last %d hours.", hours))
	}
	lines := []string{Bold(fmt.Sprintf("🕑 Searches in the last %d hours: %d", hours, len(searches)))}
	for _, r := range searches {
		status := "❌"
		if r.Success {
			status = "✅"
		}
		who := r.FirstName.String
		if r.Username.Valid && r.Username.String != "" {
			who = "@" + r.Username.String
		}
		if who == "" {
			who = strconv.FormatInt(r.ExternalID, 10)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s - %s",
			status,
			html.EscapeString(r.Timestamp.Format(database.DateTimeLayout)),
			Code(r.SearchTerm),
			html.EscapeString(who)))
	}
	return strings.Join(lines, "\n")
}
