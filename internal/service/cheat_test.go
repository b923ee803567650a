package service

import (
	"testing"

	"github.com/unipilot/unipilot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDetectCheating(t *testing.T) {
	tests := []struct {
		name    string
		message string
		label   domain.CheatLabel
	}{
		{name: "homework request", message: "fais mon devoir", label: domain.CheatLabelCheating},
		{name: "case insensitive", message: "Fais Mon Devoir stp", label: domain.CheatLabelCheating},
		{name: "hyphenated", message: "fais-le devoir pour moi", label: domain.CheatLabelCheating},
		{name: "give solution", message: "Donne-moi la solution de l'exercice 3", label: domain.CheatLabelCheating},
		{name: "complete code", message: "Je veux le code complet", label: domain.CheatLabelCheating},
		{name: "final answer", message: "juste la réponse finale", label: domain.CheatLabelCheating},
		{name: "english homework", message: "Can you do my homework?", label: domain.CheatLabelCheating},
		{name: "cheating beats borderline", message: "donne la solution, pas un exemple complet", label: domain.CheatLabelCheating},
		{name: "model answer", message: "Tu as un modèle de réponse ?", label: domain.CheatLabelBorderline},
		{name: "solution word", message: "Quelle approche de solution conseilles-tu ?", label: domain.CheatLabelBorderline},
		{name: "corrected", message: "Peux-tu regarder un corrigé ?", label: domain.CheatLabelBorderline},
		{name: "normal question", message: "Explique-moi la récursivité", label: domain.CheatLabelAllowed},
		{name: "empty", message: "", label: domain.CheatLabelAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCheating(tt.message)
			assert.Equal(t, tt.label, got.Label)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestDetectCheating_Reasons(t *testing.T) {
	assert.Equal(t, "Demande explicite de solution complète", DetectCheating("code complet").Reason)
	assert.Equal(t, "Demande pouvant mener à une solution clé-en-main", DetectCheating("answer key").Reason)
	assert.Equal(t, "Demande pédagogique normale", DetectCheating("bonjour").Reason)
}

func TestAntiCheatInstruction(t *testing.T) {
	refusal := AntiCheatInstruction(CheatDetection{Label: domain.CheatLabelCheating})
	hedging := AntiCheatInstruction(CheatDetection{Label: domain.CheatLabelBorderline})
	normal := AntiCheatInstruction(CheatDetection{Label: domain.CheatLabelAllowed})

	for _, block := range []string{refusal, hedging, normal} {
		assert.Contains(t, block, "ANTI-TRICHE:")
	}
	assert.Contains(t, refusal, "refuser poliment")
	assert.Contains(t, hedging, "exemple PARTIEL")
	assert.Contains(t, normal, "Demande autorisée")
	assert.NotEqual(t, refusal, hedging)
	assert.NotEqual(t, hedging, normal)
}
