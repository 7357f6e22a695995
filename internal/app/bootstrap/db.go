// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/store/audit"
	cohortstore "github.com/kdmlabs/kdmhub/internal/app/store/cohorts"
	eventstore "github.com/kdmlabs/kdmhub/internal/app/store/events"
	introstore "github.com/kdmlabs/kdmhub/internal/app/store/introductions"
	leadstore "github.com/kdmlabs/kdmhub/internal/app/store/leads"
	memberstore "github.com/kdmlabs/kdmhub/internal/app/store/members"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	"github.com/kdmlabs/kdmhub/internal/app/store/oauthstate"
	outboxstore "github.com/kdmlabs/kdmhub/internal/app/store/outbox"
	partnerstore "github.com/kdmlabs/kdmhub/internal/app/store/partners"
	promostore "github.com/kdmlabs/kdmhub/internal/app/store/promocodes"
	rulestore "github.com/kdmlabs/kdmhub/internal/app/store/routingrules"
	settlementstore "github.com/kdmlabs/kdmhub/internal/app/store/settlements"
	userstore "github.com/kdmlabs/kdmhub/internal/app/store/users"
	waitliststore "github.com/kdmlabs/kdmhub/internal/app/store/waitlist"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return DBDeps{}, fmt.Errorf("ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store depends on. Index builds
// are idempotent, so restarts are cheap.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	type indexed interface {
		EnsureIndexes(ctx context.Context) error
	}
	stores := map[string]indexed{
		"users":         userstore.New(db),
		"partners":      partnerstore.New(db),
		"leads":         leadstore.New(db),
		"routing_rules": rulestore.New(db),
		"cohorts":       cohortstore.New(db),
		"members":       memberstore.New(db),
		"waitlist":      waitliststore.New(db),
		"settlements":   settlementstore.New(db),
		"introductions": introstore.New(db),
		"events":        eventstore.New(db),
		"promo_codes":   promostore.New(db),
		"notifications": notifystore.New(db),
		"outbox":        outboxstore.New(db),
		"audit":         audit.New(db),
		"oauth_states":  oauthstate.New(db),
	}
	for name, s := range stores {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure %s indexes: %w", name, err)
		}
	}

	logger.Info("database indexes ensured", zap.Int("stores", len(stores)))
	return nil
}
