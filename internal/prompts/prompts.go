package prompts

import (
	"bytes"
	"strings"
	"text/template"
)

// ============================================================================
// Shared vocabularies
// ============================================================================

// LanguageNames maps supported language codes to the name used in instructions.
var LanguageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
}

// ============================================================================
// Skill generation
// ============================================================================

// SkillSystemPrompt sets the role of the generator.
const SkillSystemPrompt = `You write parody "skills": fake, useless and funny how-to guides. You reply ONLY with a single JSON object. No markdown fences, no explanations, nothing before or after the object.`

// skillUserTemplate is rendered with SkillPromptData.
const skillUserTemplate = `Write a fake and funny skill in {{.LanguageName}} about: "{{.Prompt}}"

EXACT JSON FORMAT (keep these keys):
{
  "name": "{{.Slug}}",
  "display_name": "{{.DisplayName}}",
  "description": "Short ironic sentence, at most 120 characters",
  "language": "{{.Language}}",
  "tags": ["useless", "certified-fake"],
  "difficulty": "easy",
  "uselessness_score": 7,
  "content": "# Creative title here\n\nBody of the skill, using \n for line breaks.",
  "warnings": ["This skill is fake", "Do not try this at home"],
  "original_prompt": "{{.Prompt}}"
}

RULES:
- name MUST be exactly "{{.Slug}}"
- display_name MUST be exactly "{{.DisplayName}}"; put any creative title INSIDE content
- tags: 1 to 5 values, ONLY from [{{.TagList}}]
- difficulty: ONLY one of [{{.DifficultyList}}]
- uselessness_score: integer from {{.MinScore}} to {{.MaxScore}}
- content: markdown, between {{.MinWords}} and {{.MaxWords}} words, escape line breaks as \n
- description: at most 120 characters
- warnings: 1 to 3 short strings
- the whole reply is one JSON object`

// SkillPromptData fills skillUserTemplate.
type SkillPromptData struct {
	Prompt       string
	Slug         string
	DisplayName  string
	Language     string
	Tags         []string
	Difficulties []string
	MinScore     int
	MaxScore     int
	MinWords     int
	MaxWords     int
}

// LanguageName returns the readable name of the target language.
func (d SkillPromptData) LanguageName() string {
	if name, ok := LanguageNames[d.Language]; ok {
		return name
	}
	return LanguageNames["en"]
}

// TagList joins the allowed tags for the instruction text.
func (d SkillPromptData) TagList() string {
	return strings.Join(d.Tags, ", ")
}

// DifficultyList joins the allowed difficulty labels.
func (d SkillPromptData) DifficultyList() string {
	return strings.Join(d.Difficulties, ", ")
}

var skillUserTmpl = template.Must(template.New("skill").Parse(skillUserTemplate))

// RenderSkillPrompt builds the user message for one generation call.
func RenderSkillPrompt(data SkillPromptData) (string, error) {
	var buf bytes.Buffer
	if err := skillUserTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
