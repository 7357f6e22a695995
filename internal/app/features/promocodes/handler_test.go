package promocodes_test

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/promocodes"
	promostore "github.com/kdmlabs/kdmhub/internal/app/store/promocodes"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) (*promocodes.Handler, *promostore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := promostore.New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	return promocodes.NewHandler(store, zap.NewNop()), store
}

func TestServeCreate_UppercasesCode(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/admin/promo-codes", map[string]any{
		"code":        "spring26",
		"percent_off": 15,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var code models.PromoCode
	rec.DecodeJSON(t, &code)
	if code.Code != "SPRING26" {
		t.Errorf("code: got %q, want SPRING26", code.Code)
	}
	if !code.Active {
		t.Error("new code should be active")
	}
}

func TestServeCreate_GeneratesCode(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.NewJSONRequest(t, "POST", "/api/admin/promo-codes", map[string]any{
		"percent_off": 10,
	})
	req = testutil.WithUser(req, testutil.AdminUser())
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var code models.PromoCode
	rec.DecodeJSON(t, &code)
	if code.Code == "" {
		t.Error("expected a generated code")
	}
}

func TestServeCreate_DuplicateCode(t *testing.T) {
	h, _ := newHandler(t)

	body := map[string]any{"code": "SPRING26", "percent_off": 15}
	rec := testutil.NewRecorder()
	h.ServeCreate(rec, testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/api/admin/promo-codes", body), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.ServeCreate(rec, testutil.WithUser(testutil.NewJSONRequest(t, "POST", "/api/admin/promo-codes", body), testutil.AdminUser()))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestServeCheck(t *testing.T) {
	h, store := newHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.PromoCode{Code: "SPRING26", PercentOff: 15})
	if err != nil {
		t.Fatal(err)
	}

	req := testutil.NewAuthenticatedRequest("GET", "/api/promo-codes/check?code=spring26", testutil.BuyerUser())
	rec := testutil.NewRecorder()
	h.ServeCheck(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Valid      bool `json:"valid"`
		PercentOff int  `json:"percent_off"`
	}
	rec.DecodeJSON(t, &resp)
	if !resp.Valid || resp.PercentOff != 15 {
		t.Errorf("check: %+v", resp)
	}

	// Deactivated codes stop validating.
	if err := store.Deactivate(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	rec = testutil.NewRecorder()
	h.ServeCheck(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if resp.Valid {
		t.Error("deactivated code should not validate")
	}
}
