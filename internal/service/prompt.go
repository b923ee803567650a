package service

import (
	"fmt"
	"strings"

	"github.com/unipilot/unipilot/internal/domain"
)

// SystemPrompt is sent as the system message of every generation call.
const SystemPrompt = `Tu es UniPilot, un copilote IA pédagogique pour projets universitaires.

MISSION
- Aider à comprendre, structurer et concevoir un projet, sans faire le travail à la place de l'étudiant.

RÈGLES
- Tu expliques avant de proposer.
- Tu refuses la triche: pas de solution complète clé-en-main si la demande ressemble à "fais mon devoir".
- Tu guides étape par étape, avec des choix et des raisons.
- Si des infos manquent, tu poses 1 à 3 questions maximum, ciblées.
- Tu restes pragmatique: exemples courts, actions concrètes.
- Tu t'appuies sur les SOURCES fournies quand elles existent et tu les cites ([S1], [S2], ...).

FORMAT DE RÉPONSE (OBLIGATOIRE)
Réponds toujours en Markdown avec EXACTEMENT ces sections, dans cet ordre:

## 1) Résumé
## 2) Ce que j'ai compris
## 3) Questions pour avancer
## 4) Plan d’action
## 5) Livrables attendus
## 6) Risques et erreurs fréquentes
## 7) Prochaine action

STYLE
- Clair, direct, structuré.
- Pas de paragraphes longs.`

const studentMessageLabel = "MESSAGE ÉTUDIANT:"

// ProjectContext renders the project block of the prompt.
func ProjectContext(p *domain.Project) string {
	return strings.Join([]string{
		"Projet: " + p.Title,
		"Niveau: " + orDefault(p.Level, "non précisé"),
		"Domaine: " + orDefault(p.Domain, "non précisé"),
		"Stack: " + orDefault(p.Stack, "non précisé"),
		"Contraintes: " + orDefault(p.Constraints, "aucune"),
	}, "\n")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// RenderHistory renders messages (oldest first) as "ROLE: content" lines.
// The last entry is dropped when it is the user message being answered, and
// each content is cut to maxChars characters.
func RenderHistory(messages []*domain.Message, current string, maxChars int) string {
	if n := len(messages); n > 0 {
		last := messages[n-1]
		if last.Role == domain.MessageRoleUser && last.Content == current {
			messages = messages[:n-1]
		}
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		content := m.Content
		if maxChars > 0 {
			content = ellipsize(content, maxChars)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", strings.ToUpper(string(m.Role)), content))
	}
	return strings.Join(lines, "\n")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ellipsize is truncateRunes with a trailing "…" when s was cut.
func ellipsize(s string, n int) string {
	if cut := truncateRunes(s, n); cut != s {
		return cut + "…"
	}
	return s
}

// PromptParts are the sections of a turn prompt.
type PromptParts struct {
	Mode      domain.ChatMode
	Language  domain.Language
	AntiCheat string
	Project   string
	Sources   string
	History   string
	Message   string
}

func languageName(l domain.Language) string {
	if l == domain.LanguageEnglish {
		return "English"
	}
	return "French"
}

// BuildPrompt assembles the prompt in a fixed order: mode, language,
// anti-cheat instruction, project, sources, history, then the student message.
// Empty sources are left out.
func BuildPrompt(p PromptParts) string {
	sections := []string{
		"MODE: " + string(p.Mode),
		"LANGUAGE: " + languageName(p.Language),
		p.AntiCheat,
		p.Project,
	}
	if p.Sources != "" {
		sections = append(sections, p.Sources)
	}

	var b strings.Builder
	b.WriteString(strings.Join(sections, "\n"))
	b.WriteString("\n\n")
	b.WriteString(p.History)
	b.WriteString("\n\n")
	b.WriteString(studentMessageLabel)
	b.WriteString("\n")
	b.WriteString(p.Message)
	return b.String()
}
