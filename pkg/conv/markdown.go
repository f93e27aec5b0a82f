// Package conv renders dispatcher replies for chat transports.
package conv

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

const (
	extensions = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	htmlFlags  = html.CommonFlags | html.HrefTargetBlank
)

var telegramPolicy = newTelegramPolicy()

// Allowed tags https://core.telegram.org/bots/api#html-style
func newTelegramPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("class").OnElements("code")
	return p
}

// TelegramHTML renders a reply written in markdown into the HTML subset
// accepted by the Telegram Bot API. Blank replies render to "".
func TelegramHTML(reply string) string {
	if strings.TrimSpace(reply) == "" {
		return ""
	}

	// Parsers keep state between documents, so each reply gets its own.
	p := parser.NewWithExtensions(extensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	unsafeHTML := markdown.ToHTML([]byte(reply), p, renderer)

	return strings.TrimSpace(telegramPolicy.Sanitize(string(unsafeHTML)))
}
