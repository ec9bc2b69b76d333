package forms

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
)

// fakeTradeService records create calls made through a real store.
type fakeTradeService struct {
	mu      sync.Mutex
	creates []models.TradePayload
	err     error
}

func (f *fakeTradeService) ListTrades(context.Context) ([]models.Trade, error) {
	return []models.Trade{}, nil
}

func (f *fakeTradeService) CreateTrade(_ context.Context, p models.TradePayload) (models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	if f.err != nil {
		return models.Trade{}, f.err
	}
	return models.Trade{ID: "t-1", Name: p.Name, Price: p.Price, UserID: models.ID(p.UserID)}, nil
}

func (f *fakeTradeService) UpdateTrade(_ context.Context, id models.ID, p models.TradePatch) (models.Trade, error) {
	return p.Apply(models.Trade{ID: id}), nil
}

func (f *fakeTradeService) DeleteTrade(context.Context, models.ID) error { return nil }

var (
	adminUser = session.Session{ID: "u1", UserRole: models.RoleAdmin}
	plainUser = session.Session{ID: "u2", UserRole: models.RoleUser}
)

func fillBike(f *TradeForm) {
	f.Set("name", "Bike")
	f.Set("description", "road bike")
	f.Set("image", "http://x/y.png")
	f.Set("location", "NYC")
	f.Set("price", "10")
	f.Set("duration", "1 week")
	f.Set("trade_type", "swap")
}

func TestNewTradeFormSeedsUserID(t *testing.T) {
	f := NewTradeForm(adminUser)
	want := models.TradeDraft{UserID: "u1"}
	if f.Draft != want {
		t.Fatalf("unexpected seed %+v", f.Draft)
	}
}

func TestSubmitBikeScenario(t *testing.T) {
	api := &fakeTradeService{}
	store := services.NewTradeStore(api, services.StoreOptions{})
	f := NewTradeForm(adminUser)
	fillBike(f)

	created, err := f.Submit(context.Background(), adminUser, store)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if created.ID != "t-1" {
		t.Fatalf("unexpected created trade %+v", created)
	}
	if len(api.creates) != 1 {
		t.Fatalf("expected one create call, got %d", len(api.creates))
	}
	p := api.creates[0]
	if p.Name != "Bike" || p.Description != "road bike" || p.Image != "http://x/y.png" || p.Location != "NYC" ||
		p.Price.String() != "10" || p.Duration != "1 week" || p.TradeType != "swap" || p.UserID != "u1" {
		t.Fatalf("unexpected payload %+v", p)
	}
	if f.Draft != (models.TradeDraft{UserID: "u1"}) || f.Error != "" {
		t.Fatalf("draft must be reset to seed, got %+v err=%q", f.Draft, f.Error)
	}

	var routes []string
	nav := NavigatorFunc(func(route string) { routes = append(routes, route) })
	if !f.FollowStoreStatus(store.Status(), nav) {
		t.Fatal("expected navigation on store success")
	}
	f.FollowStoreStatus(store.Status(), nav)
	if len(routes) != 1 || routes[0] != RouteTradeList {
		t.Fatalf("expected a single navigation to %s, got %v", RouteTradeList, routes)
	}
}

func TestSubmitEmptyPriceScenario(t *testing.T) {
	api := &fakeTradeService{}
	store := services.NewTradeStore(api, services.StoreOptions{})
	f := NewTradeForm(adminUser)
	fillBike(f)
	f.Set("price", "")

	_, err := f.Submit(context.Background(), adminUser, store)
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(api.creates) != 0 {
		t.Fatalf("expected zero create calls, got %d", len(api.creates))
	}
	if f.Error != "Please fill in all required fields" {
		t.Fatalf("unexpected error %q", f.Error)
	}
	if !f.Invalid("price") || f.Invalid("name") {
		t.Fatalf("unexpected field flags %v", f.Fields)
	}
	if store.Status() != services.StatusIdle {
		t.Fatalf("validation must not touch the store, got %s", store.Status())
	}
}

func TestSubmitMissingAnyFieldNeverDispatches(t *testing.T) {
	for _, field := range models.DraftFields {
		t.Run(field, func(t *testing.T) {
			api := &fakeTradeService{}
			store := services.NewTradeStore(api, services.StoreOptions{})
			f := NewTradeForm(adminUser)
			fillBike(f)
			f.Set(field, "")

			if _, err := f.Submit(context.Background(), adminUser, store); err == nil {
				t.Fatal("expected error")
			}
			if len(api.creates) != 0 {
				t.Fatalf("expected zero create calls, got %d", len(api.creates))
			}
			if f.Error == "" {
				t.Fatal("expected a non-empty error message")
			}
		})
	}
}

func TestSubmitRejectsNegativePrice(t *testing.T) {
	api := &fakeTradeService{}
	store := services.NewTradeStore(api, services.StoreOptions{})
	f := NewTradeForm(adminUser)
	fillBike(f)
	f.Set("price", "-3")

	if _, err := f.Submit(context.Background(), adminUser, store); err == nil {
		t.Fatal("expected error")
	}
	if f.Error != models.MsgInvalidPrice || len(api.creates) != 0 {
		t.Fatalf("unexpected outcome err=%q calls=%d", f.Error, len(api.creates))
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	api := &fakeTradeService{err: &services.TradeAPIError{StatusCode: http.StatusConflict, Status: "409 Conflict", Message: "duplicate trade"}}
	store := services.NewTradeStore(api, services.StoreOptions{})
	f := NewTradeForm(adminUser)
	fillBike(f)
	before := f.Draft

	if _, err := f.Submit(context.Background(), adminUser, store); err == nil {
		t.Fatal("expected error")
	}
	if f.Draft != before {
		t.Fatalf("draft must be kept, got %+v", f.Draft)
	}
	if f.Error != "duplicate trade" {
		t.Fatalf("unexpected error %q", f.Error)
	}

	var routes []string
	if f.FollowStoreStatus(store.Status(), NavigatorFunc(func(r string) { routes = append(routes, r) })) || len(routes) != 0 {
		t.Fatal("failed store status must not navigate")
	}
}

func TestSubmitAsNonAdminShowsPermissionMessage(t *testing.T) {
	api := &fakeTradeService{}
	store := services.NewTradeStore(api, services.StoreOptions{})
	f := NewTradeForm(plainUser)
	fillBike(f)

	_, err := f.Submit(context.Background(), plainUser, store)
	if !errors.Is(err, models.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if len(api.creates) != 0 {
		t.Fatalf("non-admin must not reach the service, got %d calls", len(api.creates))
	}
	if f.Error != services.MsgAdminOnly {
		t.Fatalf("unexpected error %q", f.Error)
	}
}

func TestLocalAndStoreSignalsAreIndependent(t *testing.T) {
	api := &fakeTradeService{}
	store := services.NewTradeStore(api, services.StoreOptions{})
	if err := store.FetchTrades(context.Background(), true); err != nil {
		t.Fatalf("FetchTrades: %v", err)
	}

	// The store already reports success from an earlier command, so the form
	// follows it even though its own submission failed validation.
	f := NewTradeForm(adminUser)
	if _, err := f.Submit(context.Background(), adminUser, store); err == nil {
		t.Fatal("expected validation error")
	}
	var routes []string
	if !f.FollowStoreStatus(store.Status(), NavigatorFunc(func(r string) { routes = append(routes, r) })) {
		t.Fatal("expected navigation on store-level success")
	}
	if len(routes) != 1 {
		t.Fatalf("unexpected routes %v", routes)
	}
}

func TestBindIgnoresUserID(t *testing.T) {
	f := NewTradeForm(adminUser)
	f.Bind(url.Values{"name": {"Bike"}, "user_id": {"someone-else"}, "price": {"5"}})
	if f.Draft.Name != "Bike" || f.Draft.Price != "5" || f.Draft.UserID != "u1" {
		t.Fatalf("unexpected draft %+v", f.Draft)
	}
}
