package service

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	maxTags        = 5
	maxWarnings    = 3
	defaultScore   = 5
	defaultWarning = "Esta skill es completamente falsa e inútil"

	maxDisplayNameLen    = 100
	maxDescriptionLen    = 200
	maxOriginalPromptLen = 100

	minTargetWords = 400
	maxTargetWords = 800
)

var (
	defaultTags       = []string{"useless", "certified-fake"}
	defaultDifficulty = domain.DifficultyMedium
	kebabRe           = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// SkillRecord is the coerced generator payload checked before persistence.
type SkillRecord struct {
	Name             string   `json:"name" validate:"required,min=3,max=50,kebab"`
	DisplayName      string   `json:"display_name" validate:"min=3,max=100"`
	Description      string   `json:"description" validate:"min=10,max=200"`
	Language         string   `json:"language" validate:"oneof=en es"`
	Tags             []string `json:"tags" validate:"min=1,max=5,dive,skilltag"`
	Difficulty       string   `json:"difficulty" validate:"difficulty"`
	UselessnessScore int      `json:"uselessness_score" validate:"min=1,max=10"`
	Content          string   `json:"content" validate:"min=100"`
	Warnings         []string `json:"warnings" validate:"min=1,max=5"`
	OriginalPrompt   string   `json:"original_prompt" validate:"min=1,max=100"`
}

// RecordValidator checks SkillRecord values against the stored schema.
type RecordValidator struct {
	validate *validator.Validate
}

// NewRecordValidator builds a validator with the skill-specific rules registered.
func NewRecordValidator() *RecordValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("kebab", func(fl validator.FieldLevel) bool {
		return kebabRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("skilltag", func(fl validator.FieldLevel) bool {
		return domain.IsValidTag(fl.Field().String())
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return domain.IsValidDifficulty(fl.Field().String())
	})
	return &RecordValidator{validate: v}
}

// Validate returns a SchemaViolation error listing every failing field.
func (rv *RecordValidator) Validate(rec *SkillRecord) error {
	err := rv.validate.Struct(rec)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.NewError(domain.KindSchemaViolation, "generated skill failed validation", err)
	}

	issues := make([]domain.ValidationIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, domain.ValidationIssue{
			Field:   issueField(fe),
			Rule:    fe.Tag(),
			Message: issueMessage(fe),
		})
	}
	return &domain.Error{
		Kind:    domain.KindSchemaViolation,
		Message: "generated skill failed validation",
		Issues:  issues,
		Err:     err,
	}
}

// issueField strips the struct name prefix from the namespace, so nested
// elements read as "tags[2]".
func issueField(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func issueMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s characters or items", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s characters or items", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "kebab":
		return "must be lowercase kebab-case"
	case "skilltag":
		return "is not a known tag"
	case "difficulty":
		return "is not a known difficulty"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// CoerceRecord maps a loosely typed generator payload onto SkillRecord.
// Every rule substitutes a default instead of failing; validation happens
// afterwards. Name and language always come from the intake.
func CoerceRecord(payload map[string]any, in *Intake) *SkillRecord {
	displayName := truncateRunes(stringField(payload, "display_name"), maxDisplayNameLen)
	if strings.TrimSpace(displayName) == "" {
		displayName = TitleFromSlug(in.Slug)
	}

	originalPrompt := truncateRunes(stringField(payload, "original_prompt"), maxOriginalPromptLen)
	if strings.TrimSpace(originalPrompt) == "" {
		originalPrompt = truncateRunes(in.Prompt, maxOriginalPromptLen)
	}

	return &SkillRecord{
		Name:             in.Slug,
		DisplayName:      displayName,
		Description:      truncateRunes(stringField(payload, "description"), maxDescriptionLen),
		Language:         in.Language,
		Tags:             coerceTags(payload["tags"]),
		Difficulty:       coerceDifficulty(payload["difficulty"]),
		UselessnessScore: coerceScore(payload["uselessness_score"]),
		Content:          stringField(payload, "content"),
		Warnings:         coerceWarnings(payload["warnings"]),
		OriginalPrompt:   originalPrompt,
	}
}

func coerceTags(v any) []string {
	tags := make([]string, 0, maxTags)
	for _, s := range stringItems(v) {
		if len(tags) == maxTags {
			break
		}
		if domain.IsValidTag(s) {
			tags = append(tags, s)
		}
	}
	if len(tags) == 0 {
		return append(tags, defaultTags...)
	}
	return tags
}

func coerceDifficulty(v any) string {
	s, ok := v.(string)
	if ok && domain.IsValidDifficulty(s) {
		return s
	}
	return string(defaultDifficulty)
}

// coerceScore accepts JSON numbers only; strings such as "7" fall back to the
// default like any other non-number.
func coerceScore(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultScore
	}
	return int(math.Round(math.Max(1, math.Min(10, f))))
}

func coerceWarnings(v any) []string {
	warnings := stringItems(v)
	if len(warnings) > maxWarnings {
		warnings = warnings[:maxWarnings]
	}
	if len(warnings) == 0 {
		return []string{defaultWarning}
	}
	return warnings
}

func stringItems(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// stringField renders scalar values as strings; objects and arrays become "".
func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// WordCountInRange reports whether content hits the 400 to 800 word target.
func WordCountInRange(words int) bool {
	return words >= minTargetWords && words <= maxTargetWords
}
