package handlers

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
	"tradeAdmin/internal/web/templates"
)

type fakeTradeService struct {
	mu        sync.Mutex
	trades    []models.Trade
	listErr   error
	createErr error
	lists     int
	creates   []models.TradePayload
	updates   []models.TradePatch
	deletes   []models.ID
}

func (f *fakeTradeService) ListTrades(context.Context) ([]models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Trade(nil), f.trades...), nil
}

func (f *fakeTradeService) CreateTrade(_ context.Context, p models.TradePayload) (models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, p)
	if f.createErr != nil {
		return models.Trade{}, f.createErr
	}
	t := models.Trade{ID: "t-new", Name: p.Name, Image: p.Image, Price: p.Price, UserID: models.ID(p.UserID)}
	f.trades = append(f.trades, t)
	return t, nil
}

func (f *fakeTradeService) UpdateTrade(_ context.Context, id models.ID, p models.TradePatch) (models.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	for i, t := range f.trades {
		if t.ID == id {
			f.trades[i] = p.Apply(t)
			return f.trades[i], nil
		}
	}
	return models.Trade{}, models.ErrNoRecord
}

func (f *fakeTradeService) DeleteTrade(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return nil
}

var (
	adminUser = session.Session{ID: "u1", UserRole: models.RoleAdmin}
	plainUser = session.Session{ID: "u2", UserRole: models.RoleUser}
)

func seededService() *fakeTradeService {
	return &fakeTradeService{trades: []models.Trade{
		{ID: "7", Name: "Bike", Image: "http://x/bike.png", Price: decimal.NewFromInt(10), TradeType: "swap"},
		{ID: "8", Name: "Boat", Image: "http://x/boat.png", Price: decimal.NewFromInt(900), TradeType: "sale"},
	}}
}

func newTradeHandler(t *testing.T, api services.TradeService) (*TradeHandler, *services.TradeStore) {
	t.Helper()
	engine, err := templates.New()
	if err != nil {
		t.Fatalf("templates.New: %v", err)
	}
	store := services.NewTradeStore(api, services.StoreOptions{})
	return &TradeHandler{Store: store, Templates: engine, UploadFolder: "trades"}, store
}

func as(ctx context.Context, who session.Provider) context.Context {
	return session.WithContext(ctx, who)
}

// routeParam stores a path parameter the way pat does, as a ":name" query value.
func routeParam(r *http.Request, name, value string) {
	q := r.URL.Query()
	q.Set(":"+name, value)
	r.URL.RawQuery = q.Encode()
}
