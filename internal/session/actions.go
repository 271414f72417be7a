package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotParticipant     = errors.New("not a participant")
	ErrForbidden          = errors.New("insufficient role")
	ErrSessionCompleted   = errors.New("session already completed")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamUnavailable    = errors.New("team not available")
	ErrAllianceNotFound   = errors.New("alliance not found")
	ErrAllianceFull       = errors.New("alliance has no open slot")
	ErrTargetNotFound     = errors.New("target participant not found")
	ErrTargetNotPending   = errors.New("target is not pending")
	ErrTargetIsHost       = errors.New("cannot act on the host")
	ErrCannotRemoveSelf   = errors.New("host cannot remove self")
	ErrEmptyMessage       = errors.New("empty message")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type CommandType string

const (
	CmdMarkPicked        CommandType = "MarkPicked"
	CmdMarkDeclined      CommandType = "MarkDeclined"
	CmdUndoStatus        CommandType = "UndoStatus"
	CmdEndSession        CommandType = "EndSession"
	CmdAcceptParticipant CommandType = "AcceptParticipant"
	CmdPromoteToEditor   CommandType = "PromoteToEditor"
	CmdDemoteToViewer    CommandType = "DemoteToViewer"
	CmdTransferHost      CommandType = "TransferHost"
	CmdRemoveParticipant CommandType = "RemoveParticipant"
	CmdSendMessage       CommandType = "SendMessage"
)

type Command struct {
	Type           CommandType
	Actor          string
	TeamNumber     int
	AllianceNumber int
	TargetUID      string
	Text           string
	Now            time.Time
}

// Apply mutates the document in place. The caller (the lobby goroutine) is the
// document's single writer, so there is no concurrent-writer case to defend
// against here.
//
// Errors are explicit so tests can tell failure modes apart; the lobby turns
// the permission ones back into the silent no-op the clients expect.
func Apply(d *Document, cmd Command) error {
	if _, ok := d.Participants[cmd.Actor]; !ok {
		return ErrNotParticipant
	}
	if d.Status == StatusCompleted {
		return ErrSessionCompleted
	}
	if cmd.Now.IsZero() {
		cmd.Now = time.Now().UTC()
	}

	var err error
	switch cmd.Type {
	case CmdMarkPicked:
		err = markPicked(d, cmd)
	case CmdMarkDeclined:
		err = markDeclined(d, cmd)
	case CmdUndoStatus:
		err = undoStatus(d, cmd)
	case CmdEndSession:
		err = endSession(d, cmd)
	case CmdAcceptParticipant:
		err = acceptParticipant(d, cmd)
	case CmdPromoteToEditor:
		err = setParticipantRole(d, cmd, RoleEditor)
	case CmdDemoteToViewer:
		err = setParticipantRole(d, cmd, RoleViewer)
	case CmdTransferHost:
		err = transferHost(d, cmd)
	case CmdRemoveParticipant:
		err = removeParticipant(d, cmd)
	case CmdSendMessage:
		err = sendMessage(d, cmd)
	default:
		err = ErrUnsupportedCommand
	}
	if err != nil {
		return err
	}
	d.LastUpdatedBy = cmd.Actor
	return nil
}

// IsSilent reports whether err belongs to the class the original system
// swallowed: the UI never offered the control, so the failed action produces
// no observable effect instead of an error frame.
func IsSilent(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrNotParticipant) ||
		errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrTeamUnavailable)
}

func markPicked(d *Document, cmd Command) error {
	if !d.IsEditor(cmd.Actor) {
		return ErrForbidden
	}
	t := d.Team(cmd.TeamNumber)
	if t == nil {
		return ErrTeamNotFound
	}
	if t.Status != TeamAvailable {
		return ErrTeamUnavailable
	}
	a := d.AllianceByNumber(cmd.AllianceNumber)
	if a == nil {
		return ErrAllianceNotFound
	}
	if !a.FillNext(cmd.TeamNumber) {
		if d.Settings.RejectOverflowPick {
			return ErrAllianceFull
		}
		// Permissive mode: the team is recorded as picked by the alliance even
		// though all four slots are taken. Matches the long-standing behavior
		// the draft UIs are built around.
	}
	t.Status = TeamPicked
	t.PickedByAlliance = cmd.AllianceNumber
	return nil
}

func markDeclined(d *Document, cmd Command) error {
	if !d.IsEditor(cmd.Actor) {
		return ErrForbidden
	}
	t := d.Team(cmd.TeamNumber)
	if t == nil {
		return ErrTeamNotFound
	}
	if t.Status != TeamAvailable {
		return ErrTeamUnavailable
	}
	t.Status = TeamDeclined
	return nil
}

func undoStatus(d *Document, cmd Command) error {
	if !d.IsEditor(cmd.Actor) {
		return ErrForbidden
	}
	t := d.Team(cmd.TeamNumber)
	if t == nil {
		return ErrTeamNotFound
	}
	for i := range d.Alliances {
		if d.Alliances[i].ClearTeam(cmd.TeamNumber) {
			break
		}
	}
	t.Status = TeamAvailable
	t.PickedByAlliance = 0
	return nil
}

// endSession flips the status and evicts every non-host participant in the
// same mutation, so subscribers observe their own removal and tear down.
func endSession(d *Document, cmd Command) error {
	if !d.IsHost(cmd.Actor) {
		return ErrForbidden
	}
	d.Status = StatusCompleted
	for uid := range d.Participants {
		if uid != d.HostUID {
			delete(d.Participants, uid)
		}
	}
	return nil
}

func acceptParticipant(d *Document, cmd Command) error {
	if !d.IsHost(cmd.Actor) {
		return ErrForbidden
	}
	p, ok := d.Participants[cmd.TargetUID]
	if !ok {
		return ErrTargetNotFound
	}
	if normalizeRole(p.Role) != RolePending {
		return ErrTargetNotPending
	}
	p.Role = RoleViewer
	d.Participants[cmd.TargetUID] = p
	return nil
}

func setParticipantRole(d *Document, cmd Command, role Role) error {
	if !d.IsHost(cmd.Actor) {
		return ErrForbidden
	}
	p, ok := d.Participants[cmd.TargetUID]
	if !ok {
		return ErrTargetNotFound
	}
	if cmd.TargetUID == d.HostUID || normalizeRole(p.Role) == RoleHost {
		return ErrTargetIsHost
	}
	p.Role = role
	d.Participants[cmd.TargetUID] = p
	return nil
}

// transferHost swaps the host role atomically: the caller steps down to
// editor, the target becomes host, and HostUID follows. Exactly one host
// before and after.
func transferHost(d *Document, cmd Command) error {
	if !d.IsHost(cmd.Actor) {
		return ErrForbidden
	}
	target, ok := d.Participants[cmd.TargetUID]
	if !ok {
		return ErrTargetNotFound
	}
	if cmd.TargetUID == cmd.Actor {
		return nil
	}
	caller := d.Participants[cmd.Actor]
	caller.Role = RoleEditor
	target.Role = RoleHost
	d.Participants[cmd.Actor] = caller
	d.Participants[cmd.TargetUID] = target
	d.HostUID = cmd.TargetUID
	return nil
}

func removeParticipant(d *Document, cmd Command) error {
	if !d.IsHost(cmd.Actor) {
		return ErrForbidden
	}
	if cmd.TargetUID == cmd.Actor {
		return ErrCannotRemoveSelf
	}
	if _, ok := d.Participants[cmd.TargetUID]; !ok {
		return ErrTargetNotFound
	}
	delete(d.Participants, cmd.TargetUID)
	return nil
}

func sendMessage(d *Document, cmd Command) error {
	role, _ := d.RoleOf(cmd.Actor)
	if role == RolePending {
		return ErrForbidden
	}
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return ErrEmptyMessage
	}
	p := d.Participants[cmd.Actor]
	d.Messages = append(d.Messages, ChatMessage{
		ID:          fmt.Sprintf("%s-%d", cmd.Actor, cmd.Now.UnixNano()),
		UID:         cmd.Actor,
		DisplayName: p.DisplayName,
		TeamNumber:  p.TeamNumber,
		Text:        text,
		Timestamp:   cmd.Now,
	})
	if len(d.Messages) > MaxMessages {
		d.Messages = append([]ChatMessage(nil), d.Messages[len(d.Messages)-MaxMessages:]...)
	}
	return nil
}
