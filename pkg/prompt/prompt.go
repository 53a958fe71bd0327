// Package prompt renders the mode-specific system/user prompt pairs fed
// into the completion engine. The engine itself only ever sees the two
// rendered strings.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Mode selects what the completion should do with the input text.
type Mode string

const (
	ModeTranslate        Mode = "translate"
	ModeExplain          Mode = "explain"
	ModePolish           Mode = "polish"
	ModeExplainInContext Mode = "explain-in-context"
)

// ParseMode converts a user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTranslate, ModeExplain, ModePolish, ModeExplainInContext:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q (want translate, explain, polish or explain-in-context)", s)
}

// Data carries the values substituted into the templates.
type Data struct {
	// Text is the user-supplied text to operate on.
	Text string

	// SourceLang and TargetLang are display names or codes; TargetLang
	// is required for translate, SourceLang may be empty ("auto").
	SourceLang string
	TargetLang string

	// Context is the surrounding text for explain-in-context.
	Context string
}

// Renderer renders system/user prompt pairs. Custom template bodies can
// replace the builtins per mode and role; anything not overridden falls
// back to the builtin.
type Renderer struct {
	overrides map[string]string // key: mode + "/" + role
}

// NewRenderer returns a Renderer using only builtin templates.
func NewRenderer() *Renderer {
	return &Renderer{overrides: make(map[string]string)}
}

// SetTemplate installs a custom template body for one mode and role
// ("system" or "user"). The body uses text/template syntax over Data.
func (r *Renderer) SetTemplate(mode Mode, role, body string) {
	r.overrides[string(mode)+"/"+role] = body
}

// Render produces the system and user prompts for one call.
func (r *Renderer) Render(mode Mode, d Data) (system, user string, err error) {
	system, err = r.renderOne(mode, "system", d)
	if err != nil {
		return "", "", err
	}
	user, err = r.renderOne(mode, "user", d)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func (r *Renderer) renderOne(mode Mode, role string, d Data) (string, error) {
	body := r.overrides[string(mode)+"/"+role]
	if body == "" {
		body = builtinTemplate(mode, role)
	}
	if body == "" {
		return "", fmt.Errorf("no template for mode %q role %q", mode, role)
	}

	tpl, err := template.New(string(mode) + "/" + role).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse %s/%s template: %w", mode, role, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render %s/%s template: %w", mode, role, err)
	}
	return buf.String(), nil
}

func builtinTemplate(mode Mode, role string) string {
	switch {
	case mode == ModeTranslate && role == "system":
		return "You are a professional translator. Translate the user's text" +
			"{{if .SourceLang}} from {{.SourceLang}}{{end}} into {{.TargetLang}}. " +
			"Preserve meaning, tone and formatting. Return only the translation, " +
			"with no quotes and no commentary."
	case mode == ModeTranslate && role == "user":
		return "{{.Text}}"

	case mode == ModeExplain && role == "system":
		return "You are a patient language tutor. Explain the user's text in " +
			"{{.TargetLang}}: what it means, notable vocabulary and grammar, and " +
			"common usage. Answer in concise markdown."
	case mode == ModeExplain && role == "user":
		return "{{.Text}}"

	case mode == ModePolish && role == "system":
		return "You are a careful editor. Polish the user's text: fix grammar, " +
			"spelling and awkward phrasing while keeping the original language, " +
			"meaning and tone. Return only the polished text."
	case mode == ModePolish && role == "user":
		return "{{.Text}}"

	case mode == ModeExplainInContext && role == "system":
		return "You are a patient language tutor. The user selected a fragment " +
			"inside a longer passage. Explain in {{.TargetLang}} what the fragment " +
			"means in this specific context. Answer in concise markdown."
	case mode == ModeExplainInContext && role == "user":
		return "Passage:\n{{.Context}}\n\nFragment:\n{{.Text}}"
	}
	return ""
}
