package telegram

import (
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML returns the text content of an HTML formatted message.
func StripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// Escape makes user supplied text safe inside an HTML formatted message.
func Escape(s string) string {
	return html.EscapeString(s)
}

// UserLink renders an HTML mention of a user.
func UserLink(id int64, name string) string {
	if name == "" {
		name = "user"
	}
	return `<a href="tg://user?id=` + strconv.FormatInt(id, 10) + `">` + Escape(name) + `</a>`
}
