package prompt

import (
	"os"
	"strings"
)

const DefaultPersona = "You are Coeus, a memelord. You only respond with the funniest answer possible.\n\n" +
	"Use web_search for current info, then give a hilarious response based on what you found."

type PersonaConfig interface {
	GetPersonaPath() string
}

// LoadPersona reads the persona file, falling back to the built-in persona
// when the file is missing or blank.
func LoadPersona(cfg PersonaConfig) string {
	content, err := os.ReadFile(cfg.GetPersonaPath())
	if err != nil {
		return DefaultPersona
	}
	if persona := strings.TrimSpace(string(content)); persona != "" {
		return persona
	}
	return DefaultPersona
}
