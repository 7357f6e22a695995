// internal/app/lifecycle/lifecycle.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// transitions is the lifecycle table. Absent keys (archived, cancelled)
// are terminal.
var transitions = map[string][]string{
	models.CohortDraft:     {models.CohortScheduled, models.CohortCancelled},
	models.CohortScheduled: {models.CohortEnrolling, models.CohortCancelled},
	models.CohortEnrolling: {models.CohortActive, models.CohortCancelled},
	models.CohortActive:    {models.CohortCompleted, models.CohortCancelled},
	models.CohortCompleted: {models.CohortArchived},
}

var (
	// ErrInvalidTransition is returned when the requested state change
	// is not in the lifecycle table.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrTerminal is returned when the cohort is already in a terminal
	// state and cannot move again.
	ErrTerminal = errors.New("cohort is in a terminal state")
)

// CanTransition reports whether the lifecycle table allows from→to.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a state has no outgoing transitions.
func IsTerminal(state string) bool {
	return len(transitions[state]) == 0 && models.ValidCohortStatus(state)
}

// Service drives cohort state changes: validation against the lifecycle
// table, the compare-and-set write, the transition history record, and
// per-state notification side effects.
type Service struct {
	cohorts       *cohortstore.Store
	members       *memberstore.Store
	notifications *notifystore.Store
	audit         *auditlog.Logger
	logger        *zap.Logger
}

func NewService(
	cohorts *cohortstore.Store,
	members *memberstore.Store,
	notifications *notifystore.Store,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Service {
	return &Service{
		cohorts:       cohorts,
		members:       members,
		notifications: notifications,
		audit:         audit,
		logger:        logger,
	}
}

// Transition moves a cohort to a new state if the lifecycle table allows
// it from the cohort's current state. triggeredBy names the initiator
// ("admin", "sweep", "cron"); actorID is nil for background runs.
//
// The status write is a compare-and-set on the state read here, so a
// concurrent transition makes this one fail with ErrStateChanged rather
// than double-applying.
func (s *Service) Transition(ctx context.Context, cohortID primitive.ObjectID, to, triggeredBy string, actorID *primitive.ObjectID, reason string) error {
	if !models.ValidCohortStatus(to) {
		return ErrInvalidTransition
	}

	cohort, err := s.cohorts.GetByID(ctx, cohortID)
	if err != nil {
		return err
	}
	if !CanTransition(cohort.Status, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, cohort.Status, to)
	}

	return s.apply(ctx, cohort, to, triggeredBy, actorID, reason)
}

// Cancel moves a cohort to cancelled from any non-terminal state,
// bypassing the table's single-step ordering.
func (s *Service) Cancel(ctx context.Context, cohortID primitive.ObjectID, triggeredBy string, actorID *primitive.ObjectID, reason string) error {
	cohort, err := s.cohorts.GetByID(ctx, cohortID)
	if err != nil {
		return err
	}
	if IsTerminal(cohort.Status) {
		return fmt.Errorf("%w: %s", ErrTerminal, cohort.Status)
	}
	return s.apply(ctx, cohort, models.CohortCancelled, triggeredBy, actorID, reason)
}

// apply performs the CAS write, appends the history record, and fans out
// per-state side effects. Side-effect failures are logged, not returned:
// the state change already stands.
func (s *Service) apply(ctx context.Context, cohort models.Cohort, to, triggeredBy string, actorID *primitive.ObjectID, reason string) error {
	extra := bson.M{}
	if to == models.CohortEnrolling {
		extra["enrollment_opened_at"] = time.Now().UTC()
	}

	if err := s.cohorts.CompareAndSetStatus(ctx, cohort.ID, cohort.Status, to, extra); err != nil {
		return err
	}

	if err := s.cohorts.RecordTransition(ctx, models.CohortTransition{
		CohortID:    cohort.ID,
		FromState:   cohort.Status,
		ToState:     to,
		TriggeredBy: triggeredBy,
		Reason:      reason,
	}); err != nil {
		s.logger.Error("record cohort transition",
			zap.Error(err), zap.String("cohort_id", cohort.ID.Hex()))
	}
	s.audit.CohortTransitioned(ctx, cohort.ID, actorID, cohort.Status, to, triggeredBy)

	s.notify(ctx, cohort, to)
	return nil
}

// notify writes in-portal notification documents for the states that
// announce themselves.
func (s *Service) notify(ctx context.Context, cohort models.Cohort, to string) {
	switch to {
	case models.CohortScheduled:
		if cohort.InstructorID == nil {
			return
		}
		s.createNotification(ctx, *cohort.InstructorID, "cohort_scheduled",
			fmt.Sprintf("%s has been scheduled", cohort.Title),
			fmt.Sprintf("You are the instructor for %s, starting %s.",
				cohort.Title, cohort.StartDate.Format("January 2, 2006")))

	case models.CohortActive:
		s.notifyMembers(ctx, cohort, "cohort_active",
			fmt.Sprintf("%s has started", cohort.Title),
			fmt.Sprintf("%s is now active. Sessions run through %s.",
				cohort.Title, cohort.EndDate.Format("January 2, 2006")))

	case models.CohortCompleted:
		s.notifyMembers(ctx, cohort, "cohort_completed",
			fmt.Sprintf("%s has completed", cohort.Title),
			fmt.Sprintf("%s has wrapped up. Thank you for participating.", cohort.Title))

	case models.CohortCancelled:
		s.notifyMembers(ctx, cohort, "cohort_cancelled",
			fmt.Sprintf("%s has been cancelled", cohort.Title),
			fmt.Sprintf("%s will not run as planned.", cohort.Title))
	}
}

func (s *Service) notifyMembers(ctx context.Context, cohort models.Cohort, kind, subject, body string) {
	members, err := s.members.ListByCohort(ctx, cohort.ID)
	if err != nil {
		s.logger.Error("list members for cohort notification",
			zap.Error(err), zap.String("cohort_id", cohort.ID.Hex()))
		return
	}
	for _, m := range members {
		if m.Status != models.MemberActive {
			continue
		}
		s.createNotification(ctx, m.UserID, kind, subject, body)
	}
}

func (s *Service) createNotification(ctx context.Context, userID primitive.ObjectID, kind, subject, body string) {
	_, err := s.notifications.Create(ctx, models.Notification{
		UserID:  userID,
		Kind:    kind,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.logger.Error("create lifecycle notification",
			zap.Error(err), zap.String("user_id", userID.Hex()))
	}
}

// Sweep advances cohorts whose date boundaries have passed: enrolling
// cohorts past start_date become active, active cohorts past end_date
// become completed. Returns the number of cohorts advanced.
//
// Transition re-reads state and compare-and-sets it, so an overlapping
// sweep (interval worker racing the cron endpoint) loses the CAS and
// skips the cohort instead of double-transitioning it.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.cohorts.ListSweepCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sweep candidates: %w", err)
	}

	advanced := 0
	for _, cohort := range candidates {
		var to string
		switch {
		case cohort.Status == models.CohortEnrolling && now.After(cohort.StartDate):
			to = models.CohortActive
		case cohort.Status == models.CohortActive && now.After(cohort.EndDate):
			to = models.CohortCompleted
		default:
			continue
		}

		err := s.Transition(ctx, cohort.ID, to, "sweep", nil, "date boundary passed")
		switch {
		case errors.Is(err, cohortstore.ErrStateChanged), errors.Is(err, ErrInvalidTransition):
			// Another runner got there first.
			continue
		case err != nil:
			s.logger.Error("sweep transition",
				zap.Error(err),
				zap.String("cohort_id", cohort.ID.Hex()),
				zap.String("to", to))
			continue
		}
		advanced++
	}
	return advanced, nil
}
