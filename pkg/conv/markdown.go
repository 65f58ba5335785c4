// Package conv renders model markdown for the places Coeus shows or speaks it.
package conv

import (
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var (
	extensions    = parser.CommonExtensions | parser.NoEmptyLineBeforeBlock
	telegramFlags = mdhtml.CommonFlags | mdhtml.HrefTargetBlank
	// no Smartypants: typographic quotes and dashes read badly through TTS
	speechFlags = mdhtml.FlagsNone

	// https://core.telegram.org/bots/api#html-style
	telegramPolicy = func() *bluemonday.Policy {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "strong", "i", "em", "u", "ins", "s", "strike", "del", "code", "pre", "blockquote")
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("class").OnElements("code")
		return p
	}()
	speechPolicy = bluemonday.StrictPolicy()
)

// markupRunes are dropped when a word is made of nothing else, e.g. an
// unclosed fence split off by the phrase buffer.
const markupRunes = "`*_~#>"

func render(md string, flags mdhtml.Flags) []byte {
	p := parser.NewWithExtensions(extensions)
	r := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: flags})
	return markdown.Render(p.Parse([]byte(md)), r)
}

// TelegramHTML renders md and keeps only the tags Telegram accepts in HTML mode.
func TelegramHTML(md string) string {
	return string(telegramPolicy.SanitizeBytes(render(md, telegramFlags)))
}

// PlainText drops all markup so the text can be handed to a speech engine.
// Whitespace is collapsed to single spaces.
func PlainText(md string) string {
	stripped := html.UnescapeString(speechPolicy.Sanitize(string(render(md, speechFlags))))

	words := strings.Fields(stripped)
	kept := words[:0]
	for _, w := range words {
		if strings.Trim(w, markupRunes) != "" {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
