// internal/app/store/settings/settingsstore.go
package settingsstore

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kdmlabs/kdmhub/internal/app/system/htmlsanitize"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
)

// cacheTTL bounds how stale a cached settings read can be. Saves
// invalidate immediately; the TTL covers writes from other processes.
const cacheTTL = 60 * time.Second

// Store provides access to the single site_settings document, with a
// read-through cache in front of it.
type Store struct {
	c *mongo.Collection

	mu       sync.RWMutex
	cached   *models.SiteSettings
	cachedAt time.Time
}

// New creates a new settings store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("site_settings")}
}

// Get returns the site settings, serving from cache when fresh.
// If no settings document exists, defaults are returned.
func (s *Store) Get(ctx context.Context) (models.SiteSettings, error) {
	s.mu.RLock()
	if s.cached != nil && time.Since(s.cachedAt) < cacheTTL {
		settings := *s.cached
		s.mu.RUnlock()
		return settings, nil
	}
	s.mu.RUnlock()

	var settings models.SiteSettings
	err := s.c.FindOne(ctx, bson.M{}).Decode(&settings)
	if err == mongo.ErrNoDocuments {
		settings = models.SiteSettings{SiteName: models.DefaultSiteName}
		err = nil
	}
	if err != nil {
		return models.SiteSettings{}, err
	}

	s.mu.Lock()
	s.cached = &settings
	s.cachedAt = time.Now()
	s.mu.Unlock()

	return settings, nil
}

// Save upserts the settings document and invalidates the cache.
func (s *Store) Save(ctx context.Context, settings models.SiteSettings) error {
	now := time.Now().UTC()
	settings.UpdatedAt = &now

	update := bson.M{
		"$set": bson.M{
			"site_name":       settings.SiteName,
			"support_email":   settings.SupportEmail,
			"digest_audience": settings.DigestAudience,
			"footer_html":     htmlsanitize.Sanitize(settings.FooterHTML),
			"updated_at":      settings.UpdatedAt,
			"updated_by_id":   settings.UpdatedByID,
			"updated_by_name": settings.UpdatedByName,
		},
		"$setOnInsert": bson.M{
			"_id": primitive.NewObjectID(),
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := s.c.UpdateOne(ctx, bson.M{}, update, opts); err != nil {
		return err
	}

	s.Invalidate()
	return nil
}

// Invalidate drops the cached copy so the next Get reads the database.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
