package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/arizkuren/skillbluff/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxPromptLength is the longest accepted prompt, in characters.
	MaxPromptLength = 100
	// MaxSlugLength caps the normalized slug.
	MaxSlugLength = 50
	// MinSlugLength is the shortest slug that can name a skill.
	MinSlugLength = 3
)

// Intake is the outcome of validating and normalizing a user prompt.
type Intake struct {
	Prompt   string
	Language string
	Slug     string
}

// letters with no decomposition that still have an obvious ASCII spelling.
var asciiFold = map[rune]string{
	'ß': "ss", 'æ': "ae", 'œ': "oe", 'ø': "o", 'ł': "l",
	'đ': "d", 'ð': "d", 'þ': "th", 'ı': "i",
}

var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Spa: true,
	},
}

// NewIntake validates the raw prompt and derives its language and slug.
// Parameters:
//   - raw: prompt as typed by the visitor.
//
// Returns:
//   - *Intake: trimmed prompt, detected language and slug.
//   - error: *domain.Error of kind InvalidInput or NameGenerationFailed.
func NewIntake(raw string) (*Intake, error) {
	prompt, err := ValidatePrompt(raw)
	if err != nil {
		return nil, err
	}

	slug := NormalizeSlug(prompt)
	if len(slug) < MinSlugLength {
		return nil, domain.NewError(domain.KindNameGenerationFailed,
			"could not build a name from the prompt, try using more letters", nil)
	}

	return &Intake{
		Prompt:   prompt,
		Language: DetectLanguage(prompt),
		Slug:     slug,
	}, nil
}

// ValidatePrompt trims the prompt and checks it is non-empty and at most
// MaxPromptLength characters long.
func ValidatePrompt(raw string) (string, error) {
	prompt := strings.TrimSpace(raw)
	if prompt == "" {
		return "", domain.NewError(domain.KindInvalidInput, "prompt is required", nil)
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return "", domain.NewError(domain.KindInvalidInput,
			"prompt is too long (max 100 characters)", nil)
	}
	return prompt, nil
}

// DetectLanguage classifies text as English or Spanish, defaulting to English
// when the detector has nothing to go on.
func DetectLanguage(text string) string {
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	if info.Lang == whatlanggo.Spa && info.Confidence > 0 {
		return domain.LanguageSpanish
	}
	// Short prompts rarely reach a reliable score; Spanish-only letters and
	// accents break the tie.
	if !info.IsReliable() && hasSpanishMarks(text) {
		return domain.LanguageSpanish
	}
	return domain.LanguageEnglish
}

func hasSpanishMarks(text string) bool {
	return strings.ContainsAny(strings.ToLower(text), "ñ¿¡áéíóú")
}

// NormalizeSlug turns free text into a lowercase ASCII kebab-case slug of at
// most MaxSlugLength characters. It is idempotent.
func NormalizeSlug(text string) string {
	folded := foldToASCII(strings.ToLower(text))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

func foldToASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	for _, r := range stripped {
		if repl, ok := asciiFold[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CountWords returns the number of whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// TitleFromSlug turns "my-fake-skill" into "My Fake Skill".
func TitleFromSlug(slug string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(slug, "-", " "))
}
