package notify

import (
	"fmt"
	"html"
	"strings"
)

// RenderPlain renders msg as Discord-flavoured markdown: the compact posting
// card or the status text.
func RenderPlain(msg Message) string {
	if msg.Posting == nil {
		return msg.Text
	}
	p := msg.Posting

	title := p.Title
	if title == "" {
		title = "(no title)"
	}
	lines := []string{
		fmt.Sprintf("**%s** — %s", title, p.Company),
		p.Location,
	}
	if p.PostDateRaw != "" || p.Deadline != "" {
		lines = append(lines, fmt.Sprintf("Posted: %s  Deadline: %s", p.PostDateRaw, p.Deadline))
	}
	if p.CompFrom != "" || p.CompTo != "" {
		lines = append(lines, fmt.Sprintf("Comp: %s–%s %s", orUnknown(p.CompFrom), orUnknown(p.CompTo), p.CompFreq))
	}
	if p.URL != "" {
		lines = append(lines, "Link: "+p.URL)
	}
	return joinNonBlank(lines)
}

// RenderHTML renders msg for Telegram's HTML parse mode.
func RenderHTML(msg Message) string {
	if msg.Posting == nil {
		return html.EscapeString(msg.Text)
	}
	p := msg.Posting

	lines := []string{
		fmt.Sprintf("🔥 <b>%s</b>", html.EscapeString(p.Title)),
		"🏢 " + html.EscapeString(p.Company),
	}
	if p.Location != "" {
		lines = append(lines, "📍 "+html.EscapeString(p.Location))
	}
	if p.PostDateRaw != "" {
		lines = append(lines, "📅 "+html.EscapeString(p.PostDateRaw))
	}
	if p.CompFrom != "" || p.CompTo != "" {
		lines = append(lines, fmt.Sprintf("💰 %s–%s %s",
			html.EscapeString(orUnknown(p.CompFrom)), html.EscapeString(orUnknown(p.CompTo)), html.EscapeString(p.CompFreq)))
	}
	if p.URL != "" {
		lines = append(lines, fmt.Sprintf("🔗 <a href=\"%s\">View Job</a>", html.EscapeString(p.URL)))
	}
	return joinNonBlank(lines)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

func joinNonBlank(lines []string) string {
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, strings.TrimRight(l, " "))
		}
	}
	return strings.Join(kept, "\n")
}
