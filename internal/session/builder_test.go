package session

import (
	"testing"
	"time"
)

func buildParams(pickList []PickListEntry, roster []int) CreateParams {
	return CreateParams{
		Code:     "ABCDEF",
		HostUID:  "host-1",
		HostName: "Alex",
		HostTeam: 1114,
		PickList: pickList,
		Roster:   roster,
		Now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestBuild_OrderAndGlobalRank(t *testing.T) {
	doc := Build(buildParams(
		[]PickListEntry{
			{TeamNumber: 1114, Tier: Tier1, Rank: 1},
			{TeamNumber: 148, Tier: Tier1, Rank: 2},
		},
		[]int{148, 1114, 2767},
	))

	want := []struct {
		team int
		rank int
		tier Tier
	}{
		{1114, 1, Tier1},
		{148, 2, Tier1},
		{2767, 3, TierUnranked},
	}
	if len(doc.Teams) != len(want) {
		t.Fatalf("want %d teams, got %d", len(want), len(doc.Teams))
	}
	for i, w := range want {
		got := doc.Teams[i]
		if got.TeamNumber != w.team || got.GlobalRank != w.rank || got.OriginalTier != w.tier {
			t.Fatalf("teams[%d]: want %+v, got %+v", i, w, got)
		}
	}
}

func TestBuild_GlobalRankIsDense(t *testing.T) {
	doc := Build(buildParams(
		[]PickListEntry{
			{TeamNumber: 33, Tier: Tier2, Rank: 1},
			{TeamNumber: 2056, Tier: Tier1, Rank: 1},
			{TeamNumber: 254, Tier: Tier1, Rank: 2},
			{TeamNumber: 118, Tier: Tier4, Rank: 1},
			{TeamNumber: 1678, Tier: Tier3, Rank: 2},
			{TeamNumber: 971, Tier: Tier3, Rank: 1},
		},
		[]int{9999, 33, 2056, 254, 118, 1678, 971, 3310, 27},
	))

	seen := make(map[int]bool)
	for _, team := range doc.Teams {
		if seen[team.GlobalRank] {
			t.Fatalf("duplicate global rank %d", team.GlobalRank)
		}
		seen[team.GlobalRank] = true
	}
	for r := 1; r <= len(doc.Teams); r++ {
		if !seen[r] {
			t.Fatalf("missing global rank %d over %d teams", r, len(doc.Teams))
		}
	}

	// tier1 < tier2 < tier3 < tier4 < unranked, unranked ascending by number
	wantOrder := []int{2056, 254, 33, 971, 1678, 118, 27, 3310, 9999}
	for i, n := range wantOrder {
		if doc.Teams[i].TeamNumber != n {
			t.Fatalf("teams[%d]: want %d, got %d", i, n, doc.Teams[i].TeamNumber)
		}
	}

	// unranked display rank restarts at 1
	if doc.Teams[6].OriginalRank != 1 || doc.Teams[7].OriginalRank != 2 || doc.Teams[8].OriginalRank != 3 {
		t.Fatalf("unranked block ranks: got %d %d %d",
			doc.Teams[6].OriginalRank, doc.Teams[7].OriginalRank, doc.Teams[8].OriginalRank)
	}
}

func TestBuild_EmptyPickListFallsThroughToRoster(t *testing.T) {
	doc := Build(buildParams(nil, []int{5, 3, 8}))

	wantOrder := []int{3, 5, 8}
	for i, n := range wantOrder {
		got := doc.Teams[i]
		if got.TeamNumber != n || got.OriginalTier != TierUnranked || got.GlobalRank != i+1 {
			t.Fatalf("teams[%d]: want unranked %d rank %d, got %+v", i, n, i+1, got)
		}
	}
}

func TestBuild_EightEmptyAlliancesAndHostEntry(t *testing.T) {
	doc := Build(buildParams(nil, []int{1}))

	if len(doc.Alliances) != NumAlliances {
		t.Fatalf("want %d alliances, got %d", NumAlliances, len(doc.Alliances))
	}
	for i, a := range doc.Alliances {
		if a.Number != i+1 {
			t.Fatalf("alliances[%d].Number = %d", i, a.Number)
		}
		if a.Captain != 0 || a.FirstPick != 0 || a.SecondPick != 0 || a.BackupPick != 0 {
			t.Fatalf("alliance %d not empty: %+v", a.Number, a)
		}
	}

	if doc.HostUID != "host-1" || doc.CreatedBy != "host-1" {
		t.Fatalf("host fields: %q / %q", doc.HostUID, doc.CreatedBy)
	}
	host, ok := doc.Participants["host-1"]
	if !ok || host.Role != RoleHost {
		t.Fatalf("creator not registered as host: %+v", host)
	}
	if doc.Status != StatusActive {
		t.Fatalf("want active status, got %q", doc.Status)
	}
}
