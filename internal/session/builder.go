package session

import (
	"sort"
	"time"
)

// PickListEntry is one row of the pre-draft pick list: a team slotted into a
// coarse tier with an in-tier rank.
type PickListEntry struct {
	TeamNumber int      `json:"team_number"`
	Tier       Tier     `json:"tier"`
	Rank       int      `json:"rank"`
	Notes      string   `json:"notes,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Flagged    bool     `json:"flagged,omitempty"`
}

type CreateParams struct {
	Code     string
	HostUID  string
	HostName string
	HostTeam int
	PickList []PickListEntry
	Roster   []int
	Settings Settings
	Now      time.Time
}

var tierOrder = []Tier{Tier1, Tier2, Tier3, Tier4}

// Build assembles the initial document: pick-list teams ordered tier1..tier4
// (each tier sorted by in-tier rank), then every roster team absent from the
// pick list, ascending by team number. A single dense global rank runs across
// the whole order; the unranked block restarts its display rank at 1.
func Build(p CreateParams) *Document {
	if p.Now.IsZero() {
		p.Now = time.Now().UTC()
	}

	listed := make(map[int]bool, len(p.PickList))
	teams := make([]SelectionTeam, 0, len(p.Roster))

	for _, tier := range tierOrder {
		var inTier []PickListEntry
		for _, e := range p.PickList {
			if e.Tier == tier {
				inTier = append(inTier, e)
			}
		}
		sort.Slice(inTier, func(i, j int) bool {
			if inTier[i].Rank != inTier[j].Rank {
				return inTier[i].Rank < inTier[j].Rank
			}
			return inTier[i].TeamNumber < inTier[j].TeamNumber
		})
		for _, e := range inTier {
			if listed[e.TeamNumber] {
				continue
			}
			listed[e.TeamNumber] = true
			teams = append(teams, SelectionTeam{
				TeamNumber:   e.TeamNumber,
				OriginalTier: tier,
				OriginalRank: e.Rank,
				Status:       TeamAvailable,
				Notes:        e.Notes,
				Tags:         e.Tags,
				Flagged:      e.Flagged,
			})
		}
	}

	var unranked []int
	for _, n := range p.Roster {
		if !listed[n] {
			listed[n] = true
			unranked = append(unranked, n)
		}
	}
	sort.Ints(unranked)
	for i, n := range unranked {
		teams = append(teams, SelectionTeam{
			TeamNumber:   n,
			OriginalTier: TierUnranked,
			OriginalRank: i + 1,
			Status:       TeamAvailable,
		})
	}

	for i := range teams {
		teams[i].GlobalRank = i + 1
	}

	alliances := make([]Alliance, NumAlliances)
	for i := range alliances {
		alliances[i].Number = i + 1
	}

	doc := &Document{
		Code:      p.Code,
		HostUID:   p.HostUID,
		CreatedBy: p.HostUID,
		Participants: map[string]Participant{
			p.HostUID: {
				DisplayName: p.HostName,
				TeamNumber:  p.HostTeam,
				Role:        RoleHost,
				JoinedAt:    p.Now,
			},
		},
		Teams:     teams,
		Alliances: alliances,
		Messages:  []ChatMessage{},
		Status:    StatusActive,
		Settings:  p.Settings,
		CreatedAt: p.Now,
	}
	return doc
}
