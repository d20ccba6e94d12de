package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/arizkuren/skillbluff/internal/domain"
)

var (
	fenceOpenRe  = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// Extraction is the result of pulling a JSON object out of generator text.
type Extraction struct {
	Object    map[string]any
	Candidate string
	Repaired  bool
	Fallback  bool
}

// ExtractJSONObject finds the first balanced JSON object in text and parses it,
// repairing raw control characters inside string literals when the strict
// parse fails. Surrounding prose and code fences are ignored.
// Parameters:
//   - text: raw generator reply.
//
// Returns:
//   - *Extraction: the parsed object plus the candidate substring.
//   - error: *domain.Error of kind MalformedGeneration when nothing usable is found.
func ExtractJSONObject(text string) (*Extraction, error) {
	cleaned := stripFences(text)

	if candidate, ok := firstBalancedObject(cleaned); ok {
		ext := &Extraction{Candidate: candidate}
		if err := parseObject(ext); err != nil {
			return ext, err
		}
		return ext, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, domain.NewError(domain.KindMalformedGeneration,
			"the generator reply did not contain a JSON object", nil)
	}

	ext := &Extraction{Candidate: cleaned[start : end+1], Fallback: true}
	if err := parseObject(ext); err != nil {
		return ext, err
	}
	return ext, nil
}

func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// firstBalancedObject returns the substring from the first '{' outside a string
// to the '}' that closes it. Quotes are tracked in surrounding prose too, so a
// quoted brace before the object is skipped.
func firstBalancedObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseObject tries a strict parse of ext.Candidate, then a repaired one.
func parseObject(ext *Extraction) error {
	var obj map[string]any
	strictErr := json.Unmarshal([]byte(ext.Candidate), &obj)
	if strictErr == nil && obj != nil {
		ext.Object = obj
		return nil
	}

	repaired := repairControlChars(ext.Candidate)
	ext.Repaired = true
	obj = nil
	if err := json.Unmarshal([]byte(repaired), &obj); err != nil {
		return domain.NewError(domain.KindMalformedGeneration,
			"the generator reply could not be parsed as JSON",
			fmt.Errorf("strict: %v; repaired: %w", strictErr, err))
	}
	if obj == nil {
		return domain.NewError(domain.KindMalformedGeneration,
			"the generator reply is not a JSON object", nil)
	}
	ext.Object = obj
	return nil
}

// repairControlChars escapes raw newlines, carriage returns and tabs inside
// string literals and drops other control bytes there. Text outside strings
// is copied unchanged.
func repairControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch {
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
