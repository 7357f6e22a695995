package settingsapi_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/settingsapi"
	settingsstore "github.com/kdmlabs/kdmhub/internal/app/store/settings"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) *settingsapi.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return settingsapi.NewHandler(settingsstore.New(db), zap.NewNop())
}

func TestServeGet_Defaults(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/api/settings", testutil.BuyerUser())
	rec := testutil.NewRecorder()
	h.ServeGet(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var settings models.SiteSettings
	rec.DecodeJSON(t, &settings)
	if settings.SiteName != models.DefaultSiteName {
		t.Errorf("site name: got %q, want %q", settings.SiteName, models.DefaultSiteName)
	}
}

func TestServeUpdate(t *testing.T) {
	h := newHandler(t)

	admin := testutil.AdminUser()
	req := testutil.NewJSONRequest(t, "PUT", "/api/settings", map[string]any{
		"site_name":       "KDM Hub Staging",
		"support_email":   "help@example.com",
		"digest_audience": []string{"ops@example.com"},
		"footer_html":     "<p>hello</p><script>alert(1)</script>",
	})
	req = testutil.WithUser(req, admin)
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var settings models.SiteSettings
	rec.DecodeJSON(t, &settings)
	if settings.SiteName != "KDM Hub Staging" {
		t.Errorf("site name: got %q", settings.SiteName)
	}
	if settings.UpdatedByName != admin.Name {
		t.Errorf("updated_by_name: got %q, want %q", settings.UpdatedByName, admin.Name)
	}
	if settings.FooterHTML != "<p>hello</p>" {
		t.Errorf("footer not sanitized: %q", settings.FooterHTML)
	}
}

func TestServeUpdate_BadAudienceEmail(t *testing.T) {
	h := newHandler(t)

	req := testutil.NewJSONRequest(t, "PUT", "/api/settings", map[string]any{
		"site_name":       "KDM Hub",
		"digest_audience": []string{"not-an-email"},
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeUpdate(rec, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}
