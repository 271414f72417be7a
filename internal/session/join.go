package session

import "time"

type JoinParams struct {
	UID         string
	DisplayName string
	TeamNumber  int

	// Privileged joiners (app admins following a direct link) skip the host
	// approval queue and enter as editors.
	Privileged bool

	Now time.Time
}

// JoinParticipant registers or restores a participant entry and returns the
// effective role plus whether the document changed.
//
// A returning participant keeps whatever role they had: a host or accepted
// editor can navigate away and back without sitting in the approval queue
// again. Only a first-time joiner (or one still awaiting approval) is pending.
func JoinParticipant(d *Document, p JoinParams) (Role, bool) {
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	if existing, ok := d.Participants[p.UID]; ok {
		role := normalizeRole(existing.Role)
		if p.UID == d.HostUID {
			role = RoleHost
		}
		changed := false
		if existing.Role != role {
			existing.Role = role
			changed = true
		}
		if p.DisplayName != "" && existing.DisplayName != p.DisplayName {
			existing.DisplayName = p.DisplayName
			changed = true
		}
		if changed {
			d.Participants[p.UID] = existing
		}
		return role, changed
	}

	role := RolePending
	if p.UID == d.HostUID {
		role = RoleHost
	} else if p.Privileged {
		role = RoleEditor
	}
	d.Participants[p.UID] = Participant{
		DisplayName: p.DisplayName,
		TeamNumber:  p.TeamNumber,
		Role:        role,
		JoinedAt:    p.Now,
	}
	return role, true
}
