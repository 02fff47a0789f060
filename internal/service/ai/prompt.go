package ai

import (
	"log"
	"os"
	"strings"
)

// defaultSystemPrompt is the built-in persona used whenever no prompt file is
// configured or the configured file cannot be read. Loading the persona must
// never fail a request.
const defaultSystemPrompt = "Você é um assistente médico virtual chamado Dra. Ana. " +
	"Responda dúvidas de forma clara, informativa e empática, mas sempre lembre ao paciente " +
	"que suas respostas não substituem uma consulta médica real e que ele deve procurar um " +
	"profissional de saúde para diagnósticos e tratamentos."

// LoadSystemPrompt reads the persona prompt from path, falling back to the
// built-in persona when the file is absent, unreadable, or blank.
func LoadSystemPrompt(path string) string {
	if path == "" {
		return defaultSystemPrompt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[ai] system prompt file %s unavailable, using built-in persona: %v", path, err)
		return defaultSystemPrompt
	}

	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		log.Printf("[ai] system prompt file %s is empty, using built-in persona", path)
		return defaultSystemPrompt
	}

	return prompt
}
