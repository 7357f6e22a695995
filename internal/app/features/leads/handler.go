// internal/app/features/leads/handler.go
package leads

import (
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/routing"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	"github.com/kdmlabs/kdmhub/internal/app/system/auditlog"
)

// Handler serves the public lead capture endpoint and the authenticated
// lead management API.
type Handler struct {
	Leads  *leadstore.Store
	Router *routing.Router
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a leads feature handler.
func NewHandler(leads *leadstore.Store, router *routing.Router, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Leads:  leads,
		Router: router,
		Audit:  audit,
		Log:    logger,
	}
}
