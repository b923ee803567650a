package service

import (
	"strings"
)

// UniPilot answer sections, in order.
var UniPilotHeadings = []string{
	"## 1) Résumé",
	"## 2) Ce que j'ai compris",
	"## 3) Questions pour avancer",
	"## 4) Plan d’action",
	"## 5) Livrables attendus",
	"## 6) Risques et erreurs fréquentes",
	"## 7) Prochaine action",
}

var uniPilotPlaceholders = map[string]string{
	"## 2) Ce que j'ai compris": "- À préciser (réponse non structurée détectée)",
	"## 3) Questions pour avancer": "- Aucune",
	"## 4) Plan d’action": `1. Reformuler le besoin en 3 phrases
2. Lister les fonctionnalités essentielles
3. Définir les entités (base de données)
4. Définir les endpoints API
5. Construire l’UI (écrans)
6. Tester et itérer`,
	"## 5) Livrables attendus": `- [ ] Résumé du projet
- [ ] Liste des modules
- [ ] Modèle de données
- [ ] Endpoints API
- [ ] Maquettes UI`,
	"## 6) Risques et erreurs fréquentes": `- Réponse hors format
- Besoin pas assez précis
- Trop de fonctionnalités d’un coup
- Pas de priorisation`,
	"## 7) Prochaine action": "Réponds avec ton objectif principal + 3 fonctionnalités prioritaires.",
}

const defaultPlaceholder = "- À préciser"

// FormatGuard makes sure model output contains every required heading.
type FormatGuard struct {
	Headings     []string
	ExcerptChars int
	// Placeholders holds the body written under a heading in the fallback
	// document. Headings without an entry get a generic line.
	Placeholders map[string]string
}

// DefaultFormatGuard returns the guard for the seven UniPilot sections.
func DefaultFormatGuard() FormatGuard {
	return FormatGuard{
		Headings:     UniPilotHeadings,
		ExcerptChars: 400,
		Placeholders: uniPilotPlaceholders,
	}
}

// Conforms reports whether text contains all required headings.
func (g FormatGuard) Conforms(text string) bool {
	for _, h := range g.Headings {
		if !strings.Contains(text, h) {
			return false
		}
	}
	return true
}

// Ensure returns raw unchanged when it conforms, otherwise a fallback document
// holding an excerpt of raw under the first heading.
func (g FormatGuard) Ensure(raw string) string {
	if g.Conforms(raw) {
		return raw
	}
	if len(g.Headings) == 0 {
		return raw
	}

	var b strings.Builder
	b.WriteString(g.Headings[0])
	b.WriteString("\n")
	b.WriteString(g.excerpt(raw))
	b.WriteString("\n")

	for _, h := range g.Headings[1:] {
		placeholder, ok := g.Placeholders[h]
		if !ok {
			placeholder = defaultPlaceholder
		}
		b.WriteString("\n")
		b.WriteString(h)
		b.WriteString("\n")
		b.WriteString(placeholder)
		b.WriteString("\n")
	}

	return b.String()
}

func (g FormatGuard) excerpt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if g.ExcerptChars <= 0 {
		return trimmed
	}
	return ellipsize(trimmed, g.ExcerptChars)
}
