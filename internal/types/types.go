package types

import "github.com/scoutlink/alliance-backend/internal/session"

type ClientMessage struct {
	Type           string `json:"type"`
	TeamNumber     int    `json:"team_number,omitempty"`
	AllianceNumber int    `json:"alliance_number,omitempty"`
	TargetUID      string `json:"target_uid,omitempty"`
	Text           string `json:"text,omitempty"`
}

// SessionView is the document as clients see it, with the editor uid set
// derived from the participant roles.
type SessionView struct {
	*session.Document
	EditorUIDs []string `json:"editor_uids"`
}

func NewSessionView(doc *session.Document) *SessionView {
	return &SessionView{Document: doc, EditorUIDs: doc.EditorUIDs()}
}

type ServerMessage struct {
	Type    string       `json:"type"` // "Snapshot" | "Error" | "Kicked" | "SessionEnded"
	Version int          `json:"version,omitempty"`
	Role    session.Role `json:"role,omitempty"` // caller's resolved role, snapshot frames only
	Session *SessionView `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}
