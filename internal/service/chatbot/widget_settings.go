package chatbot

import (
	"regexp"
	"strings"

	"docvia-widget/internal/model"
)

const (
	DefaultAgentName           = "Assistant"
	DefaultHeaderColor         = "#7F56D9"
	DefaultHeaderTextColor     = "#FFFFFF"
	DefaultAgentMessageColor   = "#F2F4F7"
	DefaultAgentTextColor      = "#101828"
	DefaultVisitorMessageColor = "#7F56D9"
	DefaultVisitorTextColor    = "#FFFFFF"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// normalizeWidgetSettings fills every unset field with its default.
func normalizeWidgetSettings(w model.WidgetSettings) model.WidgetSettings {
	w.AgentName = orDefault(w.AgentName, DefaultAgentName)
	w.AgentPhoto = strings.TrimSpace(w.AgentPhoto)
	w.HeaderColor = orDefault(w.HeaderColor, DefaultHeaderColor)
	w.HeaderTextColor = orDefault(w.HeaderTextColor, DefaultHeaderTextColor)
	w.AgentMessageColor = orDefault(w.AgentMessageColor, DefaultAgentMessageColor)
	w.AgentTextColor = orDefault(w.AgentTextColor, DefaultAgentTextColor)
	w.VisitorMessageColor = orDefault(w.VisitorMessageColor, DefaultVisitorMessageColor)
	w.VisitorTextColor = orDefault(w.VisitorTextColor, DefaultVisitorTextColor)
	return w
}

func validateWidgetSettings(w model.WidgetSettings) (model.WidgetSettings, error) {
	w = normalizeWidgetSettings(w)

	colors := map[string]string{
		"headerColor":         w.HeaderColor,
		"headerTextColor":     w.HeaderTextColor,
		"agentMessageColor":   w.AgentMessageColor,
		"agentTextColor":      w.AgentTextColor,
		"visitorMessageColor": w.VisitorMessageColor,
		"visitorTextColor":    w.VisitorTextColor,
	}
	for field, value := range colors {
		if !hexColorPattern.MatchString(value) {
			return model.WidgetSettings{}, newError(ErrorCodeValidation, field+" must be a hex color", nil)
		}
	}
	return w, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
