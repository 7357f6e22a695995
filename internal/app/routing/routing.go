// internal/app/routing/routing.go
package routing

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/mailer"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// Score weights. A rule must land strictly positive to win a lead, so a
// capacity-only match (no industry, no service overlap, +5) qualifies
// but loses to any real match.
const (
	industryPoints  = 10
	servicePoints   = 10
	capacityBonus   = 5
	capacityPenalty = -10
)

// Score computes one rule's score for a lead. underCapacity reflects
// whether the rule's partner has open-lead headroom.
func Score(rule models.RoutingRule, lead models.Lead, underCapacity bool) int {
	score := 0
	if rule.MatchesIndustry(lead.Industry) {
		score += industryPoints
	}
	if rule.MatchesServiceType(lead.ServiceType) {
		score += servicePoints
	}
	if underCapacity {
		score += capacityBonus
	} else {
		score += capacityPenalty
	}
	return score
}

// Match is the routing outcome for one lead.
type Match struct {
	RuleID    primitive.ObjectID
	PartnerID primitive.ObjectID
	Score     int
	Reason    string
}

// Pick evaluates rules against a lead and returns the winning match.
// rules must be sorted by ID ascending; the first highest strictly
// positive score wins, which makes ties deterministic. loads maps
// partner ID to that partner's open-lead count. Returns (Match, true)
// on a win and (zero, false) when no rule scores positive.
func Pick(rules []models.RoutingRule, lead models.Lead, loads map[primitive.ObjectID]int64) (Match, bool) {
	var best Match
	found := false
	for _, rule := range rules {
		under := loads[rule.PartnerID] < int64(rule.MaxCapacity)
		score := Score(rule, lead, under)
		if score <= 0 {
			continue
		}
		if !found || score > best.Score {
			best = Match{
				RuleID:    rule.ID,
				PartnerID: rule.PartnerID,
				Score:     score,
				Reason:    reason(rule, lead, under),
			}
			found = true
		}
	}
	return best, found
}

func reason(rule models.RoutingRule, lead models.Lead, under bool) string {
	r := fmt.Sprintf("rule %s:", rule.ID.Hex())
	if rule.MatchesIndustry(lead.Industry) {
		r += " industry"
	}
	if rule.MatchesServiceType(lead.ServiceType) {
		r += " service"
	}
	if under {
		r += " +capacity"
	} else {
		r += " -capacity"
	}
	return r
}

// Router assigns captured leads to partners.
type Router struct {
	leads    *leadstore.Store
	rules    *rulestore.Store
	partners *partnerstore.Store
	outbox   *outboxstore.Store
	settings *settingsstore.Store
	audit    *auditlog.Logger
	logger   *zap.Logger
}

func NewRouter(
	leads *leadstore.Store,
	rules *rulestore.Store,
	partners *partnerstore.Store,
	outbox *outboxstore.Store,
	settings *settingsstore.Store,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Router {
	return &Router{
		leads:    leads,
		rules:    rules,
		partners: partners,
		outbox:   outbox,
		settings: settings,
		audit:    audit,
		logger:   logger,
	}
}

// Route evaluates active rules for a freshly captured lead, persists
// the winning assignment, and enqueues the partner notification email.
// A lead with no positive match stays unassigned with the outcome
// recorded on the lead. Route returns an error only when the evaluation
// or the assignment write fails; callers treat that as non-fatal to the
// capture itself.
func (r *Router) Route(ctx context.Context, lead models.Lead) error {
	rules, err := r.rules.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load routing rules: %w", err)
	}

	loads := make(map[primitive.ObjectID]int64, len(rules))
	for _, rule := range rules {
		if _, ok := loads[rule.PartnerID]; ok {
			continue
		}
		n, err := r.leads.CountOpenByPartner(ctx, rule.PartnerID)
		if err != nil {
			return fmt.Errorf("count open leads for partner %s: %w", rule.PartnerID.Hex(), err)
		}
		loads[rule.PartnerID] = n
	}

	match, ok := Pick(rules, lead, loads)
	if !ok {
		if err := r.leads.Assign(ctx, lead.ID, nil, 0, "no rule scored positive"); err != nil {
			return fmt.Errorf("record unrouted outcome: %w", err)
		}
		r.audit.LeadAssigned(ctx, lead.ID, nil, 0, "no rule scored positive")
		return nil
	}

	if err := r.leads.Assign(ctx, lead.ID, &match.PartnerID, match.Score, match.Reason); err != nil {
		return fmt.Errorf("assign lead: %w", err)
	}
	r.audit.LeadAssigned(ctx, lead.ID, &match.PartnerID, match.Score, match.Reason)

	// Email the partner. Failures here are logged, not returned: the
	// assignment already stands.
	r.notifyPartner(ctx, lead, match)
	return nil
}

// Reassign manually assigns a lead to a partner, bypassing scoring.
// Used by admin reassignment; the partner still gets the notification
// email and the outcome is audited.
func (r *Router) Reassign(ctx context.Context, leadID, partnerID primitive.ObjectID) error {
	lead, err := r.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}
	if err := r.leads.Assign(ctx, leadID, &partnerID, 0, "manually reassigned"); err != nil {
		return fmt.Errorf("assign lead: %w", err)
	}
	r.audit.LeadAssigned(ctx, leadID, &partnerID, 0, "manually reassigned")
	r.notifyPartner(ctx, lead, Match{PartnerID: partnerID, Reason: "manually reassigned"})
	return nil
}

func (r *Router) notifyPartner(ctx context.Context, lead models.Lead, match Match) {
	partner, err := r.partners.GetByID(ctx, match.PartnerID)
	if err != nil {
		r.logger.Error("load partner for lead notification",
			zap.Error(err), zap.String("partner_id", match.PartnerID.Hex()))
		return
	}
	if partner.ContactEmail == "" {
		return
	}

	siteName := models.DefaultSiteName
	if s, err := r.settings.Get(ctx); err == nil {
		siteName = s.SiteName
	}

	email := mailer.BuildLeadAssignedEmail(mailer.LeadAssignedData{
		SiteName:    siteName,
		PartnerName: partner.Name,
		LeadName:    lead.Name,
		Industry:    lead.Industry,
		ServiceType: lead.ServiceType,
		Message:     lead.Notes,
	})
	_, err = r.outbox.Enqueue(ctx, models.OutboxMessage{
		To:       partner.ContactEmail,
		Subject:  email.Subject,
		TextBody: email.TextBody,
		HTMLBody: email.HTMLBody,
	})
	if err != nil {
		r.logger.Error("enqueue lead notification",
			zap.Error(err), zap.String("lead_id", lead.ID.Hex()))
	}
}
