package service

import (
	"strings"

	"membership-platform/backend/internal/models"
)

const (
	businessContextStart = "--- BUSINESS CONTEXT ---"
	businessContextEnd   = "--- END BUSINESS CONTEXT ---"
)

// ChatMessage is one entry of the sequence sent to the completion provider
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildSystemPrompt returns the agent prompt verbatim, followed by a business context
// block when the profile carries at least one non-empty field.
func BuildSystemPrompt(agent *models.Agent, profile *models.NicheProfile) string {
	prompt := agent.SystemPrompt

	lines := profileLines(profile)
	if len(lines) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n")
	b.WriteString(businessContextStart)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(businessContextEnd)
	return b.String()
}

func profileLines(p *models.NicheProfile) []string {
	if p == nil {
		return nil
	}

	var lines []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			lines = append(lines, label+": "+v)
		}
	}
	addList := func(label string, values []string) {
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			lines = append(lines, label+": "+strings.Join(kept, ", "))
		}
	}

	add("Business Name", p.BusinessName)
	add("Niche", p.Niche)
	add("Target Audience", p.TargetAudience)
	add("Brand Voice", p.BrandVoice)
	add("Goals", p.Goals)
	addList("Content Pillars", p.ContentPillars)
	addList("Platforms", p.Platforms)
	return lines
}

// BuildContext assembles [system] + history (oldest first) + the new user message.
// History entries with roles other than user or assistant are dropped.
func BuildContext(agent *models.Agent, profile *models.NicheProfile, history []models.Message, message string) []ChatMessage {
	out := make([]ChatMessage, 0, len(history)+2)
	out = append(out, ChatMessage{Role: models.RoleSystem, Content: BuildSystemPrompt(agent, profile)})

	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}

	return append(out, ChatMessage{Role: models.RoleUser, Content: message})
}
