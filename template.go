package qaeval

import (
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplate renders tmpl with vars. Missing keys are an error.
func RenderTemplate(tmpl string, vars map[string]any) (string, error) {
	if len(vars) == 0 {
		return tmpl, nil
	}
	t, err := template.New("message").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf strings.Builder
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewTemplateMessage creates a single Message by rendering the provided template string with the given variables.
func NewTemplateMessage(role Role, tmpl string, vars map[string]any) (*Message, error) {
	text, err := RenderTemplate(tmpl, vars)
	if err != nil {
		return nil, err
	}
	switch role {
	case RoleUser:
		return UserMessage(text), nil
	case RoleSystem:
		return SystemMessage(text), nil
	case RoleAssistant:
		return AssistantMessage(text), nil
	default:
		return nil, fmt.Errorf("unknown role: %s", role)
	}
}
