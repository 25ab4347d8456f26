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


package pass

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/halcyondata/enrich/core"
)

const summarySystemPrompt = `Summarize the given document in one short paragraph of at most three sentences.

Rules:
- Capture what the document is about and its most important specifics.
- Write plain declarative prose. No bullet points, no headings.
- Do not include any preamble, explanation, greeting, or acknowledgment. Respond with the summary text only.`

const atomsResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "fact": {
        "type": "string"
      },
      "confidence": {
        "type": "number",
        "minimum": 0,
        "maximum": 1
      }
    },
    "required": ["fact"],
    "additionalProperties": false
  }
}`

const atomsPromptTemplate = `Extract the atomic facts stated by the given document and return them as JSON.

Output ONLY a valid JSON array which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening bracket [ and end
with the closing bracket ]. Your output must exactly follow this schema:

%s

Rules:
- An atomic fact is a single short declarative sentence that stands on its own without the surrounding text.
- Include only facts explicitly stated by the document. Do not hallucinate.
- Confidence is a number from 0 to 1 reflecting how directly the document states the fact.
- If the document states no extractable facts, return [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the array.

Example:
Input: "The Acme reactor entered service in 1974. It was decommissioned after the 1981 audit."
Output:
[
  {"fact":"The Acme reactor entered service in 1974.","confidence":0.95},
  {"fact":"The Acme reactor was decommissioned after the 1981 audit.","confidence":0.9}
]`

const relatedPromptTemplate = `You are given a document and a numbered list of candidate documents. Select the candidates that are substantively related to the document.

Output ONLY a valid JSON array of candidate id numbers, for example: [412, 7, 93]. Do not include any
preamble, explanation, greeting, or acknowledgment. Start your response directly with the opening bracket [
and end with the closing bracket ].

Rules:
- Use only id values that appear in the candidate list. Never invent ids.
- Related means the documents cover the same subject, reference each other's events, or one clearly extends the other.
- Order the ids from most to least related.
- If no candidate is related, return [].`

// buildAtomsSystemPrompt creates the system prompt with the response schema embedded.
func buildAtomsSystemPrompt() string {
	return fmt.Sprintf(atomsPromptTemplate, atomsResponseSchema)
}

// buildSummaryUserPrompt renders the document for the summary pass, clipping
// content to the pass budget.
func buildSummaryUserPrompt(doc *core.Document) string {
	return "Title: " + doc.Title + "\n\n" + truncate(doc.Content, summaryContentBudget)
}

// buildAtomsUserPrompt renders the document for the atom-extraction pass.
func buildAtomsUserPrompt(doc *core.Document) string {
	return "Title: " + doc.Title + "\n\n" + truncate(doc.Content, atomsContentBudget)
}

// buildRelatedUserPrompt renders the document summary plus the candidate list
// for the relationships pass.
func buildRelatedUserPrompt(doc *core.Document, candidates []candidate) string {
	var b strings.Builder
	b.WriteString("Document:\n")
	b.WriteString("Title: ")
	b.WriteString(doc.Title)
	b.WriteString("\nSummary: ")
	b.WriteString(doc.Summary)
	b.WriteString("\n\nCandidates:\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "id: %d\ntitle: %s\nsummary: %s\n\n", c.Id, c.Title, c.Summary)
	}
	return b.String()
}

// truncate clips s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
