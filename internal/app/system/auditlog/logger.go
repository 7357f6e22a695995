// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls logging for admin and domain events (lead routing,
	// cohort lifecycle, settlements, rule changes).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Admin string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.EntityID != nil {
		fields = append(fields,
			zap.String("entity_kind", event.EntityKind),
			zap.String("entity_id", event.EntityID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin, audit.CategoryLifecycle, audit.CategorySettlement:
		setting = l.config.Admin
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}

	if setting == "all" || setting == "db" {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
		Details: map[string]string{
			"auth_method": authMethod,
			"email":       email,
		},
	})
}

// LoginFailedUserNotFound logs a failed login due to user not found.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attemptedEmail string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserNotFound,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user not found",
		Details: map[string]string{
			"attempted_email": attemptedEmail,
		},
	})
}

// LoginFailedWrongPassword logs a failed login due to wrong password.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedWrongPassword,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "wrong password",
		Details: map[string]string{
			"email": email,
		},
	})
}

// LoginFailedUserDisabled logs a failed login due to disabled account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user disabled",
		Details: map[string]string{
			"email": email,
		},
	})
}

// Logout logs a user logout. Accepts the string ID from SessionUser
// and converts it to an ObjectID.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	var userID *primitive.ObjectID
	if oid, err := primitive.ObjectIDFromHex(userIDStr); err == nil {
		userID = &oid
	}

	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    userID,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Lead Events ---

// LeadCaptured logs a new lead submitted through the public capture endpoint.
// There is no actor: capture is unauthenticated.
func (l *Logger) LeadCaptured(ctx context.Context, r *http.Request, leadID primitive.ObjectID, industry, serviceType string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventLeadCaptured,
		EntityKind: "lead",
		EntityID:   &leadID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"industry":     industry,
			"service_type": serviceType,
		},
	})
}

// LeadAssigned logs the routing outcome for a lead. partnerID is nil when
// no rule produced a positive score and the lead stayed unassigned.
func (l *Logger) LeadAssigned(ctx context.Context, leadID primitive.ObjectID, partnerID *primitive.ObjectID, score int, reason string) {
	details := map[string]string{
		"score":  itoa(score),
		"reason": reason,
	}
	if partnerID != nil {
		details["partner_id"] = partnerID.Hex()
	}
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventLeadAssigned,
		EntityKind: "lead",
		EntityID:   &leadID,
		Success:    partnerID != nil,
		Details:    details,
	})
}

// LeadUpdated logs a lead status or assignment change by a signed-in user.
func (l *Logger) LeadUpdated(ctx context.Context, r *http.Request, actorID, leadID primitive.ObjectID, actorRole, fieldsChanged string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  audit.EventLeadUpdated,
		ActorID:    &actorID,
		EntityKind: "lead",
		EntityID:   &leadID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role":     actorRole,
			"fields_changed": fieldsChanged,
		},
	})
}

// --- Routing Rule Events ---

// RuleChanged logs a routing rule create, update, or delete.
// eventType is one of audit.EventRuleCreated, EventRuleUpdated, EventRuleDeleted.
func (l *Logger) RuleChanged(ctx context.Context, r *http.Request, eventType string, actorID, ruleID primitive.ObjectID, actorRole string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		ActorID:    &actorID,
		EntityKind: "rule",
		EntityID:   &ruleID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role": actorRole,
		},
	})
}

// --- Cohort Lifecycle Events ---

// CohortCreated logs a new cohort.
func (l *Logger) CohortCreated(ctx context.Context, r *http.Request, actorID, cohortID primitive.ObjectID, actorRole, name string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventCohortCreated,
		ActorID:    &actorID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role":  actorRole,
			"cohort_name": name,
		},
	})
}

// CohortTransitioned logs a lifecycle state change. actorID is nil for
// transitions applied by the background sweep.
func (l *Logger) CohortTransitioned(ctx context.Context, cohortID primitive.ObjectID, actorID *primitive.ObjectID, from, to, trigger string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventCohortTransitioned,
		ActorID:    actorID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		Success:    true,
		Details: map[string]string{
			"from":    from,
			"to":      to,
			"trigger": trigger,
		},
	})
}

// CohortCancelled logs a cohort cancellation.
func (l *Logger) CohortCancelled(ctx context.Context, r *http.Request, actorID, cohortID primitive.ObjectID, actorRole, fromState, reason string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventCohortCancelled,
		ActorID:    &actorID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role": actorRole,
			"from":       fromState,
			"reason":     reason,
		},
	})
}

// --- Capacity / Waitlist Events ---

// WaitlistJoined logs a user joining a full cohort's waitlist.
func (l *Logger) WaitlistJoined(ctx context.Context, cohortID, userID primitive.ObjectID, position int) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventWaitlistJoined,
		UserID:     &userID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		Success:    true,
		Details: map[string]string{
			"position": itoa(position),
		},
	})
}

// WaitlistNotified logs the head of the waitlist being offered a seat.
func (l *Logger) WaitlistNotified(ctx context.Context, cohortID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventWaitlistNotified,
		UserID:     &userID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		Success:    true,
	})
}

// SeatReleased logs a seat opening up in a cohort.
func (l *Logger) SeatReleased(ctx context.Context, cohortID, userID primitive.ObjectID, reason string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryLifecycle,
		EventType:  audit.EventSeatReleased,
		UserID:     &userID,
		EntityKind: "cohort",
		EntityID:   &cohortID,
		Success:    true,
		Details: map[string]string{
			"reason": reason,
		},
	})
}

// --- Settlement Events ---

// SettlementCreated logs a draft settlement computation.
func (l *Logger) SettlementCreated(ctx context.Context, r *http.Request, actorID, settlementID primitive.ObjectID, actorRole, period string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategorySettlement,
		EventType:  audit.EventSettlementCreated,
		ActorID:    &actorID,
		EntityKind: "settlement",
		EntityID:   &settlementID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role": actorRole,
			"period":     period,
		},
	})
}

// SettlementFinalized logs a settlement moving to its immutable final state.
func (l *Logger) SettlementFinalized(ctx context.Context, r *http.Request, actorID, settlementID primitive.ObjectID, actorRole string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategorySettlement,
		EventType:  audit.EventSettlementFinalized,
		ActorID:    &actorID,
		EntityKind: "settlement",
		EntityID:   &settlementID,
		IP:         getClientIP(r),
		UserAgent:  r.UserAgent(),
		Success:    true,
		Details: map[string]string{
			"actor_role": actorRole,
		},
	})
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
