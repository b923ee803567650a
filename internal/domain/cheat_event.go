package domain

import "time"

// CheatLabel is the academic-integrity classification of a message
type CheatLabel string

const (
	CheatLabelAllowed    CheatLabel = "allowed"
	CheatLabelBorderline CheatLabel = "borderline"
	CheatLabelCheating   CheatLabel = "cheating"
)

// CheatEventMessageLimit bounds the copy of the triggering message kept in
// the audit record.
const CheatEventMessageLimit = 500

// CheatEvent is a write-once audit record of a classified chat message.
type CheatEvent struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Label     CheatLabel `json:"label"`
	Reason    string     `json:"reason"`
	Mode      ChatMode   `json:"mode"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
}
