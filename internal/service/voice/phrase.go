package voice

import (
	"strings"
)

const DefaultMinWords = 3

// PhraseBuffer accumulates streamed text and cuts it into speakable phrases
// at punctuation followed by whitespace. Phrases shorter than minWords are
// merged with the next one.
type PhraseBuffer struct {
	buf      strings.Builder
	minWords int
}

func NewPhraseBuffer(minWords int) *PhraseBuffer {
	if minWords <= 0 {
		minWords = DefaultMinWords
	}
	return &PhraseBuffer{minWords: minWords}
}

// Push appends text and returns the phrases that became complete.
func (p *PhraseBuffer) Push(text string) []string {
	p.buf.WriteString(text)
	pending := p.buf.String()

	var phrases []string
	start := 0
	for i := 0; i+1 < len(pending); i++ {
		if !isBreak(pending[i]) || !isSpace(pending[i+1]) {
			continue
		}
		phrase := strings.TrimSpace(pending[start : i+1])
		if len(strings.Fields(phrase)) < p.minWords {
			continue
		}
		phrases = append(phrases, phrase)
		start = i + 2
	}

	if start > 0 {
		rest := pending[start:]
		p.buf.Reset()
		p.buf.WriteString(rest)
	}
	return phrases
}

// Flush returns whatever is left and empties the buffer.
func (p *PhraseBuffer) Flush() string {
	rest := strings.TrimSpace(p.buf.String())
	p.buf.Reset()
	return rest
}

func isBreak(c byte) bool {
	switch c {
	case '.', '!', '?', ',', ':', ';':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n'
}
