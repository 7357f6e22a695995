package routing

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

func rule(id byte, partner primitive.ObjectID, industries, services []string, capacity int) models.RoutingRule {
	var oid primitive.ObjectID
	oid[11] = id // ascending IDs for deterministic ordering
	return models.RoutingRule{
		ID:           oid,
		PartnerID:    partner,
		Industries:   industries,
		ServiceTypes: services,
		MaxCapacity:  capacity,
		IsActive:     true,
	}
}

func TestScore(t *testing.T) {
	partner := primitive.NewObjectID()
	lead := models.Lead{Industry: "manufacturing", ServiceType: "training"}

	tests := []struct {
		name          string
		rule          models.RoutingRule
		underCapacity bool
		want          int
	}{
		{
			name:          "full match under capacity",
			rule:          rule(1, partner, []string{"manufacturing"}, []string{"training"}, 5),
			underCapacity: true,
			want:          25,
		},
		{
			name:          "full match over capacity",
			rule:          rule(1, partner, []string{"manufacturing"}, []string{"training"}, 5),
			underCapacity: false,
			want:          10,
		},
		{
			name:          "industry only under capacity",
			rule:          rule(1, partner, []string{"manufacturing"}, []string{"advisory"}, 5),
			underCapacity: true,
			want:          15,
		},
		{
			name:          "no match over capacity",
			rule:          rule(1, partner, []string{"aerospace"}, []string{"advisory"}, 5),
			underCapacity: false,
			want:          -10,
		},
		{
			name:          "no match under capacity",
			rule:          rule(1, partner, []string{"aerospace"}, []string{"advisory"}, 5),
			underCapacity: true,
			want:          5,
		},
		{
			name:          "industry match is case-insensitive",
			rule:          rule(1, partner, []string{"Manufacturing"}, nil, 5),
			underCapacity: true,
			want:          15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.rule, lead, tt.underCapacity); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPick_HighestScoreWins(t *testing.T) {
	pA := primitive.NewObjectID()
	pB := primitive.NewObjectID()
	lead := models.Lead{Industry: "manufacturing", ServiceType: "training"}

	// pA matches industry only (15), pB matches both (25).
	rules := []models.RoutingRule{
		rule(1, pA, []string{"manufacturing"}, nil, 5),
		rule(2, pB, []string{"manufacturing"}, []string{"training"}, 5),
	}
	loads := map[primitive.ObjectID]int64{pA: 0, pB: 0}

	match, ok := Pick(rules, lead, loads)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.PartnerID != pB {
		t.Errorf("winner: got %v, want %v", match.PartnerID, pB)
	}
	if match.Score != 25 {
		t.Errorf("score: got %d, want 25", match.Score)
	}
}

func TestPick_TieGoesToLowestRuleID(t *testing.T) {
	pA := primitive.NewObjectID()
	pB := primitive.NewObjectID()
	lead := models.Lead{Industry: "manufacturing", ServiceType: "training"}

	rules := []models.RoutingRule{
		rule(1, pA, []string{"manufacturing"}, []string{"training"}, 5),
		rule(2, pB, []string{"manufacturing"}, []string{"training"}, 5),
	}
	loads := map[primitive.ObjectID]int64{pA: 0, pB: 0}

	match, ok := Pick(rules, lead, loads)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.PartnerID != pA {
		t.Error("tie should go to the earlier rule")
	}
}

func TestPick_CapacityBreaksTie(t *testing.T) {
	pFull := primitive.NewObjectID()
	pFree := primitive.NewObjectID()
	lead := models.Lead{Industry: "manufacturing", ServiceType: "training"}

	// pFull is at capacity (20 - 10), pFree is not (20 + 5).
	rules := []models.RoutingRule{
		rule(1, pFull, []string{"manufacturing"}, []string{"training"}, 2),
		rule(2, pFree, []string{"manufacturing"}, []string{"training"}, 2),
	}
	loads := map[primitive.ObjectID]int64{pFull: 2, pFree: 0}

	match, ok := Pick(rules, lead, loads)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.PartnerID != pFree {
		t.Error("partner with headroom should win")
	}
}

func TestPick_NoPositiveScore(t *testing.T) {
	partner := primitive.NewObjectID()
	lead := models.Lead{Industry: "retail", ServiceType: "placement"}

	// No overlap and no headroom: -10, not assignable.
	rules := []models.RoutingRule{
		rule(1, partner, []string{"manufacturing"}, []string{"training"}, 0),
	}
	loads := map[primitive.ObjectID]int64{partner: 0}

	if _, ok := Pick(rules, lead, loads); ok {
		t.Error("expected no match for non-positive scores")
	}
}

func TestPick_CapacityOnlyMatchAssigns(t *testing.T) {
	partner := primitive.NewObjectID()
	lead := models.Lead{Industry: "retail", ServiceType: "placement"}

	// No field overlap but the partner has headroom: +5 is still
	// strictly positive, so the lead is assignable.
	r := rule(1, partner, []string{"manufacturing"}, []string{"training"}, 3)
	match, ok := Pick([]models.RoutingRule{r}, lead, map[primitive.ObjectID]int64{partner: 0})
	if !ok {
		t.Fatal("expected a capacity-only match")
	}
	if match.Score != 5 {
		t.Errorf("score: got %d, want 5", match.Score)
	}
}

func TestPick_EmptyRules(t *testing.T) {
	if _, ok := Pick(nil, models.Lead{Industry: "x"}, nil); ok {
		t.Error("expected no match with no rules")
	}
}
