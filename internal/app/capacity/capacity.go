// internal/app/capacity/capacity.go
package capacity

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	waitliststore "github.com/kdmlabs/kdmhub/internal/app/store/waitlist"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
	"github.com/kdmlabs/kdmhub/internal/app/system/mailer"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

var (
	// ErrCohortFull is returned when an enrollment finds no open seat.
	ErrCohortFull = errors.New("cohort is at capacity")

	// ErrNotEnrolling is returned for seat operations on a cohort whose
	// state does not accept them.
	ErrNotEnrolling = errors.New("cohort is not open for enrollment")

	// ErrNotMember is returned when releasing a seat the user does not hold.
	ErrNotMember = errors.New("user does not hold a seat in this cohort")
)

// Status is the capacity snapshot for one cohort.
type Status struct {
	Available      bool  `json:"available"`
	SpotsRemaining int   `json:"spots_remaining"`
	WaitlistCount  int64 `json:"waitlist_count"`
	// IsOverbooked reports enrolled > max. Tolerated, never auto-corrected.
	IsOverbooked bool `json:"is_overbooked"`
}

// Manager owns seat accounting for cohorts: enrollment, the waitlist,
// and the notify-next chain that runs when a seat opens.
type Manager struct {
	cohorts       *cohortstore.Store
	members       *memberstore.Store
	waitlist      *waitliststore.Store
	users         *userstore.Store
	notifications *notifystore.Store
	outbox        *outboxstore.Store
	settings      *settingsstore.Store
	audit         *auditlog.Logger
	logger        *zap.Logger
}

func NewManager(
	cohorts *cohortstore.Store,
	members *memberstore.Store,
	waitlist *waitliststore.Store,
	users *userstore.Store,
	notifications *notifystore.Store,
	outbox *outboxstore.Store,
	settings *settingsstore.Store,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		cohorts:       cohorts,
		members:       members,
		waitlist:      waitlist,
		users:         users,
		notifications: notifications,
		outbox:        outbox,
		settings:      settings,
		audit:         audit,
		logger:        logger,
	}
}

// CheckCapacity returns the cohort's capacity snapshot.
func (m *Manager) CheckCapacity(ctx context.Context, cohortID primitive.ObjectID) (Status, error) {
	cohort, err := m.cohorts.GetByID(ctx, cohortID)
	if err != nil {
		return Status{}, err
	}
	waiting, err := m.waitlist.CountWaiting(ctx, cohortID)
	if err != nil {
		return Status{}, err
	}

	remaining := cohort.MaxParticipants - cohort.CurrentParticipants
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Available:      cohort.CurrentParticipants < cohort.MaxParticipants,
		SpotsRemaining: remaining,
		WaitlistCount:  waiting,
		IsOverbooked:   cohort.CurrentParticipants > cohort.MaxParticipants,
	}, nil
}

// Enroll takes a seat for the user. The participant increment is
// capacity-guarded, so two concurrent enrollments cannot both take the
// last seat; the loser gets ErrCohortFull and should join the waitlist.
func (m *Manager) Enroll(ctx context.Context, cohortID, userID primitive.ObjectID) (models.CohortMember, error) {
	cohort, err := m.cohorts.GetByID(ctx, cohortID)
	if err != nil {
		return models.CohortMember{}, err
	}
	if cohort.Status != models.CohortEnrolling && cohort.Status != models.CohortActive {
		return models.CohortMember{}, fmt.Errorf("%w: cohort is %s", ErrNotEnrolling, cohort.Status)
	}

	if err := m.cohorts.IncParticipants(ctx, cohortID, 1, true); err != nil {
		if errors.Is(err, cohortstore.ErrStateChanged) {
			return models.CohortMember{}, ErrCohortFull
		}
		return models.CohortMember{}, err
	}

	member, err := m.members.Enroll(ctx, cohortID, userID)
	if err != nil {
		// Give the seat back before reporting the failure.
		if decErr := m.cohorts.IncParticipants(ctx, cohortID, -1, false); decErr != nil {
			m.logger.Error("roll back seat after failed enrollment",
				zap.Error(decErr), zap.String("cohort_id", cohortID.Hex()))
		}
		return models.CohortMember{}, err
	}

	// A live waitlist entry is satisfied by the enrollment.
	m.settleWaitlistEntry(ctx, cohortID, userID)
	return member, nil
}

// AddToWaitlist appends the user to the cohort's waitlist. Rejected with
// waitliststore.ErrAlreadyWaiting when the user already holds a waiting
// or notified entry.
func (m *Manager) AddToWaitlist(ctx context.Context, cohortID, userID primitive.ObjectID) (models.WaitlistEntry, error) {
	if _, err := m.cohorts.GetByID(ctx, cohortID); err != nil {
		return models.WaitlistEntry{}, err
	}
	entry, err := m.waitlist.Add(ctx, cohortID, userID)
	if err != nil {
		return models.WaitlistEntry{}, err
	}
	m.audit.WaitlistJoined(ctx, cohortID, userID, entry.Position)
	return entry, nil
}

// NotifyNext offers the open seat to the head of the waitlist: the entry
// moves to notified and the user gets a notification document plus a
// seat-offer email. The user is not auto-enrolled; claiming the seat is
// an explicit Enroll. Returns the notified entry, or mongo.ErrNoDocuments
// when the waitlist is empty.
func (m *Manager) NotifyNext(ctx context.Context, cohortID primitive.ObjectID) (models.WaitlistEntry, error) {
	entry, err := m.waitlist.HeadWaiting(ctx, cohortID)
	if err != nil {
		return models.WaitlistEntry{}, err
	}
	if err := m.waitlist.SetStatus(ctx, entry.ID, models.WaitlistNotified); err != nil {
		return models.WaitlistEntry{}, err
	}
	entry.Status = models.WaitlistNotified
	m.audit.WaitlistNotified(ctx, cohortID, entry.UserID)

	m.sendSeatOffer(ctx, cohortID, entry.UserID)
	return entry, nil
}

// ReleaseSeat drops a member and frees their seat, then offers it to the
// next waiting user.
func (m *Manager) ReleaseSeat(ctx context.Context, cohortID, userID primitive.ObjectID, reason string) error {
	member, err := m.members.Get(ctx, cohortID, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotMember
		}
		return err
	}
	if member.Status != models.MemberActive {
		return ErrNotMember
	}

	if err := m.members.SetStatus(ctx, cohortID, userID, models.MemberDropped); err != nil {
		return err
	}
	if err := m.cohorts.IncParticipants(ctx, cohortID, -1, false); err != nil &&
		!errors.Is(err, cohortstore.ErrStateChanged) {
		return err
	}
	m.audit.SeatReleased(ctx, cohortID, userID, reason)

	if _, err := m.NotifyNext(ctx, cohortID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		m.logger.Error("notify next after seat release",
			zap.Error(err), zap.String("cohort_id", cohortID.Hex()))
	}
	return nil
}

// ExpireNotified expires a notified entry whose holder never claimed the
// seat, renumbers the remaining entries, and offers the seat onward.
func (m *Manager) ExpireNotified(ctx context.Context, entryID primitive.ObjectID) error {
	entry, err := m.waitlist.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != models.WaitlistNotified {
		return fmt.Errorf("waitlist entry is %s, not notified", entry.Status)
	}

	if err := m.waitlist.SetStatus(ctx, entryID, models.WaitlistExpired); err != nil {
		return err
	}
	if err := m.waitlist.Reorder(ctx, entry.CohortID); err != nil {
		return err
	}

	if _, err := m.NotifyNext(ctx, entry.CohortID); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		m.logger.Error("notify next after offer expiry",
			zap.Error(err), zap.String("cohort_id", entry.CohortID.Hex()))
	}
	return nil
}

// Reorder renumbers the cohort's live waitlist to 1..N. Exposed for the
// admin repair endpoint; the removal paths run it automatically.
func (m *Manager) Reorder(ctx context.Context, cohortID primitive.ObjectID) error {
	return m.waitlist.Reorder(ctx, cohortID)
}

// settleWaitlistEntry marks the user's live entry enrolled and closes
// the gap it leaves. No-op when the user was never waitlisted.
func (m *Manager) settleWaitlistEntry(ctx context.Context, cohortID, userID primitive.ObjectID) {
	entries, err := m.waitlist.ListByCohort(ctx, cohortID)
	if err != nil {
		m.logger.Error("list waitlist after enrollment",
			zap.Error(err), zap.String("cohort_id", cohortID.Hex()))
		return
	}
	for _, e := range entries {
		if e.UserID != userID {
			continue
		}
		if err := m.waitlist.SetStatus(ctx, e.ID, models.WaitlistEnrolled); err != nil {
			m.logger.Error("settle waitlist entry",
				zap.Error(err), zap.String("entry_id", e.ID.Hex()))
			return
		}
		if err := m.waitlist.Reorder(ctx, cohortID); err != nil {
			m.logger.Error("reorder waitlist after enrollment",
				zap.Error(err), zap.String("cohort_id", cohortID.Hex()))
		}
		return
	}
}

// sendSeatOffer writes the in-portal notification and enqueues the offer
// email. Failures are logged; the notified status already stands.
func (m *Manager) sendSeatOffer(ctx context.Context, cohortID, userID primitive.ObjectID) {
	cohort, err := m.cohorts.GetByID(ctx, cohortID)
	if err != nil {
		m.logger.Error("load cohort for seat offer",
			zap.Error(err), zap.String("cohort_id", cohortID.Hex()))
		return
	}

	_, err = m.notifications.Create(ctx, models.Notification{
		UserID:  userID,
		Kind:    "waitlist_offer",
		Subject: fmt.Sprintf("A seat opened in %s", cohort.Title),
		Body:    fmt.Sprintf("You are next on the waitlist for %s. Claim your seat before the offer expires.", cohort.Title),
	})
	if err != nil {
		m.logger.Error("create seat offer notification",
			zap.Error(err), zap.String("user_id", userID.Hex()))
	}

	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		m.logger.Error("load user for seat offer email",
			zap.Error(err), zap.String("user_id", userID.Hex()))
		return
	}

	siteName := models.DefaultSiteName
	if s, err := m.settings.Get(ctx); err == nil {
		siteName = s.SiteName
	}
	email := mailer.BuildWaitlistOfferEmail(mailer.WaitlistOfferData{
		SiteName:   siteName,
		UserName:   user.FullName,
		CohortName: cohort.Title,
	})
	_, err = m.outbox.Enqueue(ctx, models.OutboxMessage{
		To:       user.Email,
		Subject:  email.Subject,
		TextBody: email.TextBody,
		HTMLBody: email.HTMLBody,
	})
	if err != nil {
		m.logger.Error("enqueue seat offer email",
			zap.Error(err), zap.String("user_id", userID.Hex()))
	}
}
