package llm

import (
	"fmt"
	"strings"
)

// Persona is the tone/interest configuration that shapes the system prompt
// for one agent.
type Persona struct {
	Name      string
	Tone      string
	Interests []string
}

// Turn is one user/assistant exchange fed back as conversation history.
type Turn struct {
	User      string
	Assistant string
}

// BuildPersonaPrompt renders the system instruction for a persona, including
// the capability roster so the model knows what context it may be handed.
func BuildPersonaPrompt(p Persona, capabilities []string) string {
	interests := "general topics"
	if len(p.Interests) > 0 {
		interests = strings.Join(p.Interests, ", ")
	}

	tone := p.Tone
	if tone == "" {
		tone = "friendly"
	}

	return fmt.Sprintf(`You are %s, an AI assistant with the following personality:

TONE: %s
INTERESTS: %s

BEHAVIOR GUIDELINES:
- Always stay in character as %s
- Maintain your %s tone throughout conversations
- Draw upon your interests when relevant
- Use provided context to give accurate information
- Keep responses engaging and helpful
- Remember previous conversations when possible

Available capabilities: %s

Respond naturally as %s would, incorporating your personality traits into every interaction.`,
		p.Name, tone, interests, p.Name, tone, strings.Join(capabilities, ", "), p.Name)
}

// Apology is the persona-flavored degraded reply used when the completion
// provider fails; conversation continuity never hard-fails a request.
func Apology(p Persona) string {
	return fmt.Sprintf("I'm %s, and I'm having trouble processing that right now. Could you try rephrasing?", p.Name)
}
