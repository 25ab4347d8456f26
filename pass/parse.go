package pass

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/halcyondata/enrich/core"
)

// parsedAtom is one element of a well-formed atoms response.
type parsedAtom struct {
	Fact       string
	Confidence float32
}

// UnmarshalJSON accepts either a bare string or a {"fact": ..., "confidence": ...}
// object, since smaller models frequently drop the object wrapper.
func (a *parsedAtom) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Fact = s
		a.Confidence = 0
		return nil
	}

	var obj struct {
		Fact       string  `json:"fact"`
		Confidence float32 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	a.Fact = obj.Fact
	a.Confidence = obj.Confidence
	return nil
}

// parsedID is one element of a relationships response: a JSON number or a
// numeric string.
type parsedID core.ID

func (p *parsedID) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*p = parsedID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return err
	}
	*p = parsedID(v)
	return nil
}

// sanitizeModelJSON strips markdown code fences and repairs common formatting
// damage before strict decoding.
func sanitizeModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	return repairJSON(s)
}

// parseAtoms decodes an atoms-pass response. Decoding is strict: a payload
// that is not a well-formed array of recognized elements yields nil rather
// than a partially trusted result. Blank facts are dropped.
func parseAtoms(response string) []parsedAtom {
	var decoded []parsedAtom
	if err := json.Unmarshal([]byte(sanitizeModelJSON(response)), &decoded); err != nil {
		return nil
	}

	out := make([]parsedAtom, 0, len(decoded))
	for _, a := range decoded {
		fact := strings.TrimSpace(a.Fact)
		if fact == "" {
			continue
		}
		out = append(out, parsedAtom{Fact: fact, Confidence: a.Confidence})
	}
	return out
}

// parseRelatedIds decodes a relationships-pass response into document IDs.
// Like parseAtoms, a malformed payload yields nil. The caller still validates
// every ID against the candidate set.
func parseRelatedIds(response string) []core.ID {
	var decoded []parsedID
	if err := json.Unmarshal([]byte(sanitizeModelJSON(response)), &decoded); err != nil {
		return nil
	}

	out := make([]core.ID, 0, len(decoded))
	for _, id := range decoded {
		out = append(out, core.ID(id))
	}
	return out
}

// repairJSON attempts to fix common JSON formatting issues from LLM responses.
// It specifically handles missing opening quotes before keys in JSON objects.
func repairJSON(s string) string {
	// Fix missing opening quote before keys
	// Pattern: after { or , followed by optional whitespace, then a word followed by ":
	// Example: `, fact":` -> `, "fact":`
	result := []rune(s)
	fixed := make([]rune, 0, len(result)+100)

	i := 0
	for i < len(result) {
		ch := result[i]

		// After { or , look for unquoted keys
		if ch == '{' || ch == ',' {
			fixed = append(fixed, ch)
			i++

			// Skip whitespace
			for i < len(result) && (result[i] == ' ' || result[i] == '\n' || result[i] == '\t') {
				fixed = append(fixed, result[i])
				i++
			}

			// Check if we have an unquoted key (starts with letter, not with quote)
			if i < len(result) && result[i] != '"' && isLetter(result[i]) {
				keyStart := i
				// Find the end of the key name
				for i < len(result) && (isLetter(result[i]) || result[i] == '_' || result[i] == ' ') {
					i++
				}
				keyEnd := i

				// Check if this is followed by ": which indicates a missing opening quote
				if i+1 < len(result) && result[i] == '"' && result[i+1] == ':' {
					// Add opening quote, key, keep closing quote
					fixed = append(fixed, '"')
					for j := keyStart; j < keyEnd; j++ {
						if result[j] != ' ' || (j > keyStart && j < keyEnd-1) {
							fixed = append(fixed, result[j])
						}
					}
					// Don't add closing quote - it's already there at result[i]
					continue
				} else {
					// Not an unquoted key, just copy what we skipped
					for j := keyStart; j < i; j++ {
						fixed = append(fixed, result[j])
					}
				}
			}
		} else {
			fixed = append(fixed, ch)
			i++
		}
	}

	return string(fixed)
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
