package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOf_HostUIDWinsOverStaleRole(t *testing.T) {
	// A prior session generation could overwrite the host's stored role with
	// "editor" on reconnect. HostUID is the source of truth.
	doc := &Document{
		HostUID: "u1",
		Participants: map[string]Participant{
			"u1": {Role: RoleEditor},
		},
	}

	role, ok := doc.RoleOf("u1")
	require.True(t, ok)
	assert.Equal(t, RoleHost, role)
	assert.True(t, doc.IsHost("u1"))
	assert.True(t, doc.IsEditor("u1"))
}

func TestRoleOf_LegacyAdminResolvesToHost(t *testing.T) {
	doc := &Document{
		HostUID: "u2",
		Participants: map[string]Participant{
			"u1": {Role: legacyRoleAdmin},
		},
	}

	role, ok := doc.RoleOf("u1")
	require.True(t, ok)
	assert.Equal(t, RoleHost, role)
}

func TestRoleOf_StoredRoleAuthoritativeOtherwise(t *testing.T) {
	doc := &Document{
		HostUID: "h",
		Participants: map[string]Participant{
			"h": {Role: RoleHost},
			"e": {Role: RoleEditor},
			"v": {Role: RoleViewer},
			"p": {Role: RolePending},
		},
	}

	for uid, want := range map[string]Role{
		"h": RoleHost, "e": RoleEditor, "v": RoleViewer, "p": RolePending,
	} {
		role, ok := doc.RoleOf(uid)
		require.True(t, ok, uid)
		assert.Equal(t, want, role, uid)
	}

	assert.True(t, doc.IsEditor("e"))
	assert.False(t, doc.IsEditor("v"))
	assert.False(t, doc.IsEditor("p"))

	_, ok := doc.RoleOf("stranger")
	assert.False(t, ok)
}

func TestNormalize_RepairsLegacyDocument(t *testing.T) {
	doc := &Document{
		Participants: map[string]Participant{
			"u1": {Role: legacyRoleAdmin, DisplayName: "Old Host"},
			"u2": {Role: RoleEditor},
		},
	}
	doc.Normalize()

	assert.Equal(t, RoleHost, doc.Participants["u1"].Role)
	assert.Equal(t, "u1", doc.HostUID, "missing HostUID backfilled from host entry")
	assert.Equal(t, StatusActive, doc.Status)
}

func TestJoinParticipant_RestoreAndPendingFlows(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	doc := Build(CreateParams{
		Code: "ABCDEF", HostUID: "host", HostName: "Host",
		Roster: []int{1}, Now: now,
	})
	doc.Participants["ed"] = Participant{Role: RoleEditor, DisplayName: "Ed", JoinedAt: now}
	doc.Participants["wait"] = Participant{Role: RolePending, DisplayName: "W", JoinedAt: now}

	// first-time joiner queues as pending
	role, changed := JoinParticipant(doc, JoinParams{UID: "new", DisplayName: "N", Now: now})
	assert.Equal(t, RolePending, role)
	assert.True(t, changed)

	// privileged joiner bypasses approval
	role, _ = JoinParticipant(doc, JoinParams{UID: "admin", DisplayName: "A", Privileged: true, Now: now})
	assert.Equal(t, RoleEditor, role)

	// accepted editor rejoins with role intact
	role, changed = JoinParticipant(doc, JoinParams{UID: "ed", DisplayName: "Ed", Now: now})
	assert.Equal(t, RoleEditor, role)
	assert.False(t, changed)

	// still-pending joiner stays pending, not double-registered
	role, changed = JoinParticipant(doc, JoinParams{UID: "wait", DisplayName: "W", Now: now})
	assert.Equal(t, RolePending, role)
	assert.False(t, changed)

	// host rejoin restores host even if the stored role went stale
	doc.Participants["host"] = Participant{Role: RoleEditor, DisplayName: "Host", JoinedAt: now}
	role, changed = JoinParticipant(doc, JoinParams{UID: "host", DisplayName: "Host", Now: now})
	assert.Equal(t, RoleHost, role)
	assert.True(t, changed, "stale stored role rewritten on rejoin")
	assert.Equal(t, RoleHost, doc.Participants["host"].Role)
}

func TestGenerateCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.NotContains(t, "IO01", string(r), "ambiguous symbol in %q", code)
			assert.Contains(t, codeAlphabet, string(r))
		}
	}
}
