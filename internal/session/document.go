package session

import (
	"sort"
	"time"
)

type Role string

const (
	RoleHost    Role = "host"
	RoleEditor  Role = "editor"
	RoleViewer  Role = "viewer"
	RolePending Role = "pending"
)

// legacyRoleAdmin is what pre-rewrite documents stored instead of "host".
const legacyRoleAdmin Role = "admin"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type TeamStatus string

const (
	TeamAvailable TeamStatus = "available"
	TeamPicked    TeamStatus = "picked"
	TeamDeclined  TeamStatus = "declined"
)

type Tier string

const (
	Tier1        Tier = "tier1"
	Tier2        Tier = "tier2"
	Tier3        Tier = "tier3"
	Tier4        Tier = "tier4"
	TierUnranked Tier = "unranked"
)

const (
	NumAlliances = 8
	AllianceSize = 4
	MaxMessages  = 100
)

type Participant struct {
	DisplayName string    `json:"display_name"`
	TeamNumber  int       `json:"team_number,omitempty"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

type SelectionTeam struct {
	TeamNumber       int        `json:"team_number"`
	OriginalTier     Tier       `json:"original_tier"`
	OriginalRank     int        `json:"original_rank"`
	GlobalRank       int        `json:"global_rank"`
	Status           TeamStatus `json:"status"`
	PickedByAlliance int        `json:"picked_by_alliance,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Tags             []string   `json:"tags,omitempty"`
	Flagged          bool       `json:"flagged,omitempty"`
}

// Alliance slots fill strictly captain -> firstPick -> secondPick -> backupPick.
// A zero value means the slot is empty.
type Alliance struct {
	Number     int `json:"number"`
	Captain    int `json:"captain,omitempty"`
	FirstPick  int `json:"first_pick,omitempty"`
	SecondPick int `json:"second_pick,omitempty"`
	BackupPick int `json:"backup_pick,omitempty"`
}

type ChatMessage struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid"`
	DisplayName string    `json:"display_name"`
	TeamNumber  int       `json:"team_number,omitempty"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

type Settings struct {
	// RejectOverflowPick makes a pick into a full alliance fail instead of
	// marking the team picked with no slot.
	RejectOverflowPick bool `json:"reject_overflow_pick,omitempty"`
}

// Document is the authoritative state of one alliance-selection session. It is
// owned by a single lobby goroutine; everything handed to other goroutines is a
// Clone.
type Document struct {
	ID            string                 `json:"id"`
	Code          string                 `json:"code"`
	HostUID       string                 `json:"host_uid"`
	CreatedBy     string                 `json:"created_by"`
	Participants  map[string]Participant `json:"participants"`
	Teams         []SelectionTeam        `json:"teams"`
	Alliances     []Alliance             `json:"alliances"`
	Messages      []ChatMessage          `json:"messages"`
	Status        Status                 `json:"status"`
	LastUpdatedBy string                 `json:"last_updated_by,omitempty"`
	Settings      Settings               `json:"settings"`
	CreatedAt     time.Time              `json:"created_at"`
}

func normalizeRole(r Role) Role {
	if r == legacyRoleAdmin {
		return RoleHost
	}
	return r
}

// Normalize repairs legacy shapes at the load boundary: the old "admin" role
// string and a missing HostUID. Downstream code never sees the legacy form.
func (d *Document) Normalize() {
	if d.Participants == nil {
		d.Participants = map[string]Participant{}
	}
	for uid, p := range d.Participants {
		p.Role = normalizeRole(p.Role)
		d.Participants[uid] = p
	}
	if d.HostUID == "" {
		for uid, p := range d.Participants {
			if p.Role == RoleHost {
				d.HostUID = uid
				break
			}
		}
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
}

// EditorUIDs is a derived view over Participants. The original system kept a
// separate uid array alongside the role fields and had to reconcile the two.
func (d *Document) EditorUIDs() []string {
	uids := make([]string, 0)
	for uid, p := range d.Participants {
		if normalizeRole(p.Role) == RoleEditor {
			uids = append(uids, uid)
		}
	}
	sort.Strings(uids)
	return uids
}

// Team returns the entry for teamNumber, or nil.
func (d *Document) Team(teamNumber int) *SelectionTeam {
	for i := range d.Teams {
		if d.Teams[i].TeamNumber == teamNumber {
			return &d.Teams[i]
		}
	}
	return nil
}

// AllianceByNumber returns the alliance numbered 1..8, or nil.
func (d *Document) AllianceByNumber(n int) *Alliance {
	for i := range d.Alliances {
		if d.Alliances[i].Number == n {
			return &d.Alliances[i]
		}
	}
	return nil
}

// slots exposes the fixed fill order.
func (a *Alliance) slots() [AllianceSize]*int {
	return [AllianceSize]*int{&a.Captain, &a.FirstPick, &a.SecondPick, &a.BackupPick}
}

// FillNext places teamNumber into the first empty slot. Reports false when all
// four slots are taken.
func (a *Alliance) FillNext(teamNumber int) bool {
	for _, s := range a.slots() {
		if *s == 0 {
			*s = teamNumber
			return true
		}
	}
	return false
}

// ClearTeam empties the first slot holding teamNumber, scanning in fill order.
func (a *Alliance) ClearTeam(teamNumber int) bool {
	for _, s := range a.slots() {
		if *s == teamNumber {
			*s = 0
			return true
		}
	}
	return false
}

// Clone deep-copies the document so snapshots can be marshaled outside the
// owning goroutine while the original keeps mutating.
func (d *Document) Clone() *Document {
	c := *d
	c.Participants = make(map[string]Participant, len(d.Participants))
	for uid, p := range d.Participants {
		c.Participants[uid] = p
	}
	c.Teams = make([]SelectionTeam, len(d.Teams))
	copy(c.Teams, d.Teams)
	for i, t := range d.Teams {
		if t.Tags != nil {
			c.Teams[i].Tags = append([]string(nil), t.Tags...)
		}
	}
	c.Alliances = append([]Alliance(nil), d.Alliances...)
	c.Messages = append([]ChatMessage(nil), d.Messages...)
	return &c
}
