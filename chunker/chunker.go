// Copyright 2025 Halcyon Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package chunker splits document text into ordered, overlapping segments
// sized for an embedding model's context window.
//
// Splitting is a pure function of (title, content): the same input always
// produces the same segment boundaries, which keeps chunk replacement
// idempotent. Token budgets are approximated at four characters per token;
// the title's rendered length is subtracted from every budget because each
// segment is embedded as "title\n\ntext".
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	charsPerToken = 4

	// Budgets in tokens. Target is where the splitter aims; max is the hard
	// ceiling a segment may never exceed.
	targetTokens  = 450
	maxTokens     = 512
	overlapTokens = 64

	// How far around the target position to look for a natural split point.
	splitSearchRadius = 200
)

// Segment is one ordered slice of a document's content.
type Segment struct {
	// Index is the zero-based position of the segment within the document.
	Index int

	// Text is the raw segment text with surrounding whitespace trimmed.
	Text string
}

// EmbedText renders the text actually sent to the embedding model: the
// document title and the segment text joined by a blank line.
func EmbedText(title, text string) string {
	return title + "\n\n" + text
}

// Split divides content into segments. Consecutive segments overlap by the
// overlap budget so that facts straddling a boundary appear whole in at least
// one segment. Empty or whitespace-only content yields nil.
func Split(title, content string) []Segment {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil
	}

	titleChars := len(title) + 2 // segments embed as "title\n\ntext"
	targetChars := targetTokens*charsPerToken - titleChars
	maxChars := maxTokens*charsPerToken - titleChars
	overlapChars := overlapTokens * charsPerToken
	if targetChars < 1 {
		targetChars = 1
	}
	if maxChars < targetChars {
		maxChars = targetChars
	}

	if len(text) <= maxChars {
		return []Segment{{Index: 0, Text: text}}
	}

	var segments []Segment
	start := 0
	for start < len(text) {
		remaining := len(text) - start
		if remaining <= maxChars {
			if tail := strings.TrimSpace(text[start:]); tail != "" {
				segments = append(segments, Segment{Index: len(segments), Text: tail})
			}
			break
		}

		end := start + splitPoint(text[start:], targetChars, maxChars)
		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			segments = append(segments, Segment{Index: len(segments), Text: piece})
		}

		// Step back by the overlap, but never stall: if the overlap would not
		// move the cursor forward, skip it for this step.
		next := end - overlapChars
		if next <= start {
			next = end
		}
		start = next
	}

	return segments
}

// splitPoint returns the end offset (in bytes, relative to window) of the next
// segment. It searches a bounded neighborhood around the target position for
// the best natural break, preferring paragraph breaks over sentence ends over
// plain whitespace, and hard-cuts at the max position only as a last resort.
// The caller guarantees len(window) > max.
func splitPoint(window string, target, max int) int {
	lo := target - splitSearchRadius
	hi := target + splitSearchRadius
	if hi > max {
		hi = max
	}
	if lo < 1 {
		lo = 1
	}
	if lo > hi {
		lo = hi
	}

	region := window[lo:hi]

	if i := strings.LastIndex(region, "\n\n"); i >= 0 {
		return lo + i + 2
	}

	sentence := -1
	for _, marker := range []string{". ", ".\n"} {
		if i := strings.LastIndex(region, marker); i > sentence {
			sentence = i
		}
	}
	if sentence >= 0 {
		return lo + sentence + 2
	}

	if i := strings.LastIndexAny(region, " \t\n"); i >= 0 {
		return lo + i + 1
	}

	// Hard cut; back up so we never split a UTF-8 sequence.
	cut := max
	for cut > 1 && !utf8.RuneStart(window[cut]) {
		cut--
	}
	return cut
}
