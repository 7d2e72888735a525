package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UI strings registered for every supported locale. The set is small
// because the world-building surface is mostly narrator prose.
func init() {
	for _, entry := range []struct {
		key string
		en  string
		pt  string
	}{
		{"worldgen.title", "World Forge", "Forja de Mundos"},
		{"worldgen.tagline", "Build your world with the narrator.", "Construa seu mundo com o narrador."},
		{"worldgen.connecting", "Connecting…", "Conectando…"},
		{"worldgen.send", "Send", "Enviar"},
		{"worldgen.finalize", "Create world", "Criar mundo"},
		{"worldgen.mode.assisted", "Assisted", "Assistido"},
		{"worldgen.mode.manual", "Manual", "Manual"},
	} {
		_ = message.SetString(language.AmericanEnglish, entry.key, entry.en)
		_ = message.SetString(language.BrazilianPortuguese, entry.key, entry.pt)
	}
}
