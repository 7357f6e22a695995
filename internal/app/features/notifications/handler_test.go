package notifications_test

import (
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/kdmlabs/kdmhub/internal/app/features/notifications"
	notifystore "github.com/kdmlabs/kdmhub/internal/app/store/notifications"
	"github.com/kdmlabs/kdmhub/internal/domain/models"
	"github.com/kdmlabs/kdmhub/internal/testutil"
)

func newHandler(t *testing.T) (*notifications.Handler, *notifystore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	store := notifystore.New(db)
	return notifications.NewHandler(store, zap.NewNop()), store
}

func notify(t *testing.T, store *notifystore.Store, userID primitive.ObjectID, read bool) models.Notification {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Create(ctx, models.Notification{
		UserID:  userID,
		Kind:    "waitlist_offer",
		Subject: "A seat opened up",
	})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if read {
		if err := store.MarkRead(ctx, n.ID, userID); err != nil {
			t.Fatalf("mark read: %v", err)
		}
	}
	return n
}

func TestServeList_ScopedToUser(t *testing.T) {
	h, store := newHandler(t)

	me := testutil.BuyerUser()
	myID, _ := primitive.ObjectIDFromHex(me.ID)
	notify(t, store, myID, false)
	notify(t, store, primitive.NewObjectID(), false)

	req := testutil.NewAuthenticatedRequest("GET", "/api/notifications", me)
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Notifications) != 1 || resp.Notifications[0].UserID != myID {
		t.Errorf("list: %+v", resp.Notifications)
	}
}

func TestServeList_UnreadOnly(t *testing.T) {
	h, store := newHandler(t)

	me := testutil.BuyerUser()
	myID, _ := primitive.ObjectIDFromHex(me.ID)
	notify(t, store, myID, true)
	unread := notify(t, store, myID, false)

	req := testutil.NewAuthenticatedRequest("GET", "/api/notifications?unread_only=true", me)
	rec := testutil.NewRecorder()
	h.ServeList(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Notifications) != 1 || resp.Notifications[0].ID != unread.ID {
		t.Errorf("unread list: %+v", resp.Notifications)
	}
}

func TestServeMarkRead_OtherUsersNotification(t *testing.T) {
	h, store := newHandler(t)

	other := notify(t, store, primitive.NewObjectID(), false)

	req := testutil.NewAuthenticatedRequest("POST", "/api/notifications/"+other.ID.Hex()+"/read", testutil.BuyerUser())
	req = testutil.WithChiURLParam(req, "id", other.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeMarkRead(rec, req)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeCount(t *testing.T) {
	h, store := newHandler(t)

	me := testutil.BuyerUser()
	myID, _ := primitive.ObjectIDFromHex(me.ID)
	n := notify(t, store, myID, false)
	notify(t, store, myID, false)

	req := testutil.NewAuthenticatedRequest("GET", "/api/notifications/count", me)
	rec := testutil.NewRecorder()
	h.ServeCount(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Unread int64 `json:"unread"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Unread != 2 {
		t.Fatalf("unread: got %d, want 2", resp.Unread)
	}

	// Reading one drops the count.
	markReq := testutil.NewAuthenticatedRequest("POST", "/api/notifications/"+n.ID.Hex()+"/read", me)
	markReq = testutil.WithChiURLParam(markReq, "id", n.ID.Hex())
	rec = testutil.NewRecorder()
	h.ServeMarkRead(rec, markReq)
	rec.AssertStatus(t, http.StatusNoContent)

	rec = testutil.NewRecorder()
	h.ServeCount(rec, testutil.NewAuthenticatedRequest("GET", "/api/notifications/count", me))
	rec.AssertStatus(t, http.StatusOK)
	rec.DecodeJSON(t, &resp)
	if resp.Unread != 1 {
		t.Errorf("unread after read: got %d, want 1", resp.Unread)
	}
}
