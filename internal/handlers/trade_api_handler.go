package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"tradeAdmin/internal/forms"
	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
)

// ActivityReader lists journal entries, newest first.
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// TradeAPIHandler exposes the store and form workflow as JSON.
type TradeAPIHandler struct {
	Store    *services.TradeStore
	Activity ActivityReader
}

type createTradeResponse struct {
	Trade    models.Trade    `json:"trade"`
	Status   services.Status `json:"status"`
	Redirect string          `json:"redirect,omitempty"`
}

// ListTrades fetches the collection. refresh defaults to false, which lets
// the store serve its cached copy.
func (h *TradeAPIHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	force := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "refresh must be true or false")
			return
		}
		force = v
	}

	if err := h.Store.FetchTrades(r.Context(), force); err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, tradeErrorStatus(err), services.ErrorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot())
}

// State returns the selectors without issuing a command.
func (h *TradeAPIHandler) State(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.Store.Snapshot())
}

func (h *TradeAPIHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	who := session.FromRequest(r)
	var draft models.TradeDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	form := forms.NewTradeForm(who)
	form.Fill(draft)
	created, err := form.Submit(r.Context(), who, h.Store)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, tradeErrorStatus(err), form.Error)
		return
	}

	resp := createTradeResponse{Trade: created, Status: h.Store.Status()}
	form.FollowStoreStatus(resp.Status, forms.NavigatorFunc(func(route string) {
		resp.Redirect = route
	}))
	writeJSON(w, http.StatusCreated, resp)
}

func (h *TradeAPIHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	who := session.FromRequest(r)
	var patch models.TradePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, forms.MsgNothingToUpdate)
		return
	}
	if patch.Price != nil && patch.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, models.MsgInvalidPrice)
		return
	}

	updated, err := h.Store.UpdateTrade(r.Context(), who, models.ID(getParam(r, "id")), patch)
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, tradeErrorStatus(err), services.ErrorMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *TradeAPIHandler) DeleteTrade(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	who := session.FromRequest(r)
	err := h.Store.RemoveOrEditTrade(r.Context(), who, models.ID(getParam(r, "id")))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, tradeErrorStatus(err), services.ErrorMessage(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListActivity returns the latest journal entries, limit=50 by default.
func (h *TradeAPIHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	if !requireAdminJSON(w, r) {
		return
	}
	if h.Activity == nil {
		writeError(w, http.StatusNotFound, "activity journal is disabled")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	activity, err := h.Activity.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch activity")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func requireAdminJSON(w http.ResponseWriter, r *http.Request) bool {
	if session.FromRequest(r).Role().IsAdmin() {
		return true
	}
	writeError(w, http.StatusForbidden, services.MsgAdminOnly)
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

