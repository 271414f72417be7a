package session

// RoleOf resolves the effective role of uid against the document. The second
// return is false when uid has no participant entry.
//
// HostUID takes precedence over the stored role: an old reconnection bug could
// leave the host's participant entry stamped "editor", and persisted documents
// written by that generation still exist. Trusting HostUID self-heals them.
func (d *Document) RoleOf(uid string) (Role, bool) {
	p, ok := d.Participants[uid]
	if !ok {
		return "", false
	}
	role := normalizeRole(p.Role)
	if d.HostUID == uid || role == RoleHost {
		return RoleHost, true
	}
	return role, true
}

// IsEditor reports whether uid may mutate the draft board (pick, decline, undo).
func (d *Document) IsEditor(uid string) bool {
	role, ok := d.RoleOf(uid)
	return ok && (role == RoleHost || role == RoleEditor)
}

// IsHost reports whether uid holds the single host role.
func (d *Document) IsHost(uid string) bool {
	role, ok := d.RoleOf(uid)
	return ok && role == RoleHost
}
