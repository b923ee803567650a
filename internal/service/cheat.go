package service

import (
	"regexp"

	"github.com/unipilot/unipilot/internal/domain"
)

// CheatDetection is the classifier verdict for one message.
type CheatDetection struct {
	Label  domain.CheatLabel `json:"label"`
	Reason string            `json:"reason"`
}

const (
	reasonCheating   = "Demande explicite de solution complète"
	reasonBorderline = "Demande pouvant mener à une solution clé-en-main"
	reasonAllowed    = "Demande pédagogique normale"
)

var cheatingPatterns = compilePatterns(
	`fais(-| )?(le|mon|mes|les) devoirs?`,
	`donne(-| )?(moi )?la solution`,
	`corrig(e|é) (compl[eè]t|total)`,
	`code complet`,
	`r[eé]dige(-| )?(moi )?(tout|enti[eè]rement)`,
	`r[eé]ponse finale`,
	`sans explication`,
	`do (my|the) (homework|assignment)`,
	`(complete|full|entire) (code|solution)`,
	`(give|send) me the (final )?(answer|solution)`,
	`no explanations?`,
	`write (it|everything) for me`,
)

var borderlinePatterns = compilePatterns(
	`exemple (complet|entier)`,
	`mod[eè]le de r[eé]ponse`,
	`corrig[eé]`,
	`solution`,
	`complete example`,
	`answer key`,
	`model answer`,
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return patterns
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectCheating labels a raw student message. Cheating patterns win over
// borderline ones.
func DetectCheating(message string) CheatDetection {
	if matchesAny(cheatingPatterns, message) {
		return CheatDetection{Label: domain.CheatLabelCheating, Reason: reasonCheating}
	}
	if matchesAny(borderlinePatterns, message) {
		return CheatDetection{Label: domain.CheatLabelBorderline, Reason: reasonBorderline}
	}
	return CheatDetection{Label: domain.CheatLabelAllowed, Reason: reasonAllowed}
}

const antiCheatRefusal = `ANTI-TRICHE:
- L'étudiant demande une solution complète. Tu dois refuser poliment.
- Tu NE fournis PAS: solution finale, code complet, corrigé complet, rédaction intégrale.
- Tu fournis à la place:
  1) une explication pédagogique du raisonnement,
  2) un plan d'étapes,
  3) 3 à 6 questions pour guider,
  4) un mini-exemple partiel (optionnel) non directement copiable.
- Encourage l'étudiant à proposer une tentative avant.`

const antiCheatHedging = `ANTI-TRICHE:
- La demande peut mener à une solution clé-en-main. Tu évites les réponses copiables.
- Tu guides: démarche, structure, pseudo-code, checklist, erreurs fréquentes.
- Tu poses 3 à 6 questions pour cadrer.
- Tu proposes un exemple PARTIEL (petit) seulement si nécessaire.`

const antiCheatNormal = `ANTI-TRICHE:
- Demande autorisée. Aide pédagogique normale, mais reste structuré et pragmatique.`

// AntiCheatInstruction returns the prompt block steering the model for the
// given verdict.
func AntiCheatInstruction(d CheatDetection) string {
	switch d.Label {
	case domain.CheatLabelCheating:
		return antiCheatRefusal
	case domain.CheatLabelBorderline:
		return antiCheatHedging
	default:
		return antiCheatNormal
	}
}
