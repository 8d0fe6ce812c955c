package email

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stoic-notifier/pkg/notifier"
)

func formatDesignBody(design *notifier.Design) string {
	// The extracted text is stored lowercase; title-case it for the heading.
	heading := cases.Title(language.English).String(design.Text)

	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	b.WriteString("<style>\n")
	b.WriteString("body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; text-align: center; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background: #fff; }\n")
	b.WriteString("h2 { color: #333; }\n")
	b.WriteString(".design img { max-width: 100%; height: auto; border-radius: 12px; }\n")
	b.WriteString(".footer { margin-top: 30px; padding-top: 15px; font-size: 0.9em; color: #7f8c8d; }\n")
	b.WriteString(".footer a { color: #7f8c8d; text-decoration: underline; }\n")
	b.WriteString("@media (prefers-color-scheme: dark) {\n")
	b.WriteString("body { background: #1a1a1a; color: #e0e0e0; }\n")
	b.WriteString("h2 { color: #e0e0e0; }\n")
	b.WriteString(".design img { opacity: 0.9; }\n")
	b.WriteString(".footer { color: #a0a0a0; }\n")
	b.WriteString(".footer a { color: #a0a0a0; }\n")
	b.WriteString("}\n")
	b.WriteString("</style>\n</head>\n<body>\n")

	b.WriteString(fmt.Sprintf("<h2>%s</h2>\n", escapeHTML(heading)))

	b.WriteString("<div class=\"design\">\n")
	b.WriteString(fmt.Sprintf("<img src=\"cid:%s\" alt=\"%s\">\n", inlineImageCID, escapeHTML(heading)))
	b.WriteString("</div>\n")

	if design.PostURL != "" {
		b.WriteString("<div class=\"footer\">\n")
		b.WriteString(fmt.Sprintf("<a href=\"%s\">View post</a>\n", escapeHTML(design.PostURL)))
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>")

	return b.String()
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&#39;")
	return s
}
