package widget

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkLimit is the largest chunk, in runes, handed to a Synthesizer
// in one Speak call. Speech engines commonly truncate or reject longer input.
const DefaultChunkLimit = 200

// splitChunks splits text into synthesis-sized chunks at sentence boundaries.
// Sentences are greedily packed into chunks of at most max runes; a single
// sentence longer than max is split again at word boundaries. Chunk order is
// reading order.
func splitChunks(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if max <= 0 {
		max = DefaultChunkLimit
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, sent := range splitSentences(text) {
		n := utf8.RuneCountInString(sent)
		if n > max {
			flush()
			chunks = append(chunks, splitWords(sent, max)...)
			continue
		}
		if curLen > 0 && curLen+1+n > max {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(sent)
		curLen += n
	}
	flush()

	return chunks
}

// splitSentences splits text after sentence-terminal punctuation, keeping any
// closing quotes or brackets with the sentence they end.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	terminal := false

	for _, r := range text {
		switch r {
		case '.', '!', '?':
			cur.WriteRune(r)
			terminal = true
		case '"', '\'', ')', ']', '’', '”':
			cur.WriteRune(r)
		default:
			if terminal {
				if s := strings.TrimSpace(cur.String()); s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
				terminal = false
			}
			cur.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// splitWords packs words into chunks of at most max runes, hard-splitting any
// single word that is itself too long.
func splitWords(sent string, max int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	for _, word := range strings.Fields(sent) {
		n := utf8.RuneCountInString(word)
		if n > max {
			if curLen > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
				curLen = 0
			}
			runes := []rune(word)
			for len(runes) > max {
				chunks = append(chunks, string(runes[:max]))
				runes = runes[max:]
			}
			if len(runes) > 0 {
				cur.WriteString(string(runes))
				curLen = len(runes)
			}
			continue
		}
		if curLen > 0 && curLen+1+n > max {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(word)
		curLen += n
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}

	return chunks
}
