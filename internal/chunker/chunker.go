// Package chunker splits page text into translation-sized chunks at
// Unicode sentence boundaries.
package chunker

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Split breaks text into chunks of at most maxChars characters each,
// cutting only at sentence boundaries (UAX #29). Chunks concatenate back
// to the input unchanged. A single sentence longer than maxChars is hard
// split at rune boundaries.
//
// maxChars <= 0 disables splitting.
func Split(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current string
	currentLen := 0

	state := -1
	rest := text
	for len(rest) > 0 {
		var sentence string
		sentence, rest, state = uniseg.FirstSentenceInString(rest, state)
		if sentence == "" {
			// Should not happen, but never loop forever on it.
			sentence, rest = rest, ""
		}

		sentLen := utf8.RuneCountInString(sentence)
		if currentLen > 0 && currentLen+sentLen > maxChars {
			chunks = append(chunks, current)
			current, currentLen = "", 0
		}

		if sentLen > maxChars {
			chunks = append(chunks, hardSplit(sentence, maxChars)...)
			continue
		}

		current += sentence
		currentLen += sentLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// hardSplit cuts s into maxChars-rune pieces.
func hardSplit(s string, maxChars int) []string {
	var parts []string
	runes := []rune(s)
	for len(runes) > 0 {
		n := maxChars
		if n > len(runes) {
			n = len(runes)
		}
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}
