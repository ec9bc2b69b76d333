package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/google/uuid"

	"tradeAdmin/internal/forms"
	"tradeAdmin/internal/models"
	"tradeAdmin/internal/services"
	"tradeAdmin/internal/session"
	"tradeAdmin/internal/web/templates"
)

const maxUploadSize = 10 << 20

// ImageUploader stores an uploaded trade image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, file []byte, fileName, folder string) (string, error)
}

// TradeHandler serves the HTML admin pages.
type TradeHandler struct {
	Store        *services.TradeStore
	Templates    *templates.Engine
	Uploader     ImageUploader
	UploadFolder string
	Logger       *slog.Logger
}

type forbiddenPage struct {
	Message string
}

type tradeListPage struct {
	State  services.StoreState
	Notice string
}

type tradeFormPage struct {
	Form           *forms.TradeForm
	Status         services.Status
	Notice         string
	UploadsEnabled bool
}

type editField struct {
	Name  string
	Value string
}

type tradeEditPage struct {
	Form   *forms.EditForm
	Fields []editField
}

// ListTrades renders the admin list after one forced refresh.
func (h *TradeHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	if err := h.Store.FetchTrades(r.Context(), true); err != nil && r.Context().Err() != nil {
		return
	}
	h.render(w, http.StatusOK, "trade_list.gohtml", tradeListPage{State: h.Store.Snapshot()})
}

// RemoveTrade handles the per-row "Edit" control, which removes the trade.
func (h *TradeHandler) RemoveTrade(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	who := session.FromRequest(r)
	id := models.ID(getParam(r, "id"))

	if err := h.Store.RemoveOrEditTrade(r.Context(), who, id); err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.render(w, tradeErrorStatus(err), "trade_list.gohtml", tradeListPage{State: h.Store.Snapshot()})
		return
	}
	http.Redirect(w, r, forms.RouteTradeList, http.StatusSeeOther)
}

func (h *TradeHandler) NewTradeForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	who := session.FromRequest(r)
	h.render(w, http.StatusOK, "trade_form.gohtml", h.formPage(forms.NewTradeForm(who)))
}

// CreateTrade validates and submits the creation form. Navigation follows the
// store-wide status, not the local result of this submission.
func (h *TradeHandler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	who := session.FromRequest(r)
	form := forms.NewTradeForm(who)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	form.Bind(r.PostForm)

	imageURL, err := h.uploadImage(r)
	if err != nil {
		h.logger().Error("image upload failed", "err", err)
		form.Error = "Image upload failed, please try again"
		h.render(w, http.StatusBadGateway, "trade_form.gohtml", h.formPage(form))
		return
	}
	if imageURL != "" {
		form.Set("image", imageURL)
	}

	_, err = form.Submit(r.Context(), who, h.Store)
	if errors.Is(err, models.ErrValidation) {
		h.render(w, http.StatusBadRequest, "trade_form.gohtml", h.formPage(form))
		return
	}

	navigated := form.FollowStoreStatus(h.Store.Status(), forms.NavigatorFunc(func(route string) {
		http.Redirect(w, r, route, http.StatusSeeOther)
	}))
	if navigated {
		return
	}
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.render(w, tradeErrorStatus(err), "trade_form.gohtml", h.formPage(form))
		return
	}

	page := h.formPage(form)
	page.Notice = "Trade created"
	h.render(w, http.StatusOK, "trade_form.gohtml", page)
}

func (h *TradeHandler) EditTradeForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	t, ok := h.lookup(r.Context(), models.ID(getParam(r, "id")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.render(w, http.StatusOK, "trade_edit.gohtml", editPage(forms.NewEditForm(t)))
}

func (h *TradeHandler) UpdateTrade(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	who := session.FromRequest(r)
	t, ok := h.lookup(r.Context(), models.ID(getParam(r, "id")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	form := forms.NewEditForm(t)
	form.Bind(r.PostForm)
	if _, err := form.Submit(r.Context(), who, h.Store); err != nil {
		if r.Context().Err() != nil {
			return
		}
		h.render(w, tradeErrorStatus(err), "trade_edit.gohtml", editPage(form))
		return
	}
	http.Redirect(w, r, forms.RouteTradeList, http.StatusSeeOther)
}

// lookup finds a trade in the store, loading the collection when needed.
func (h *TradeHandler) lookup(ctx context.Context, id models.ID) (models.Trade, bool) {
	if id.Validate() != nil {
		return models.Trade{}, false
	}
	if t, ok := h.Store.Find(id); ok {
		return t, true
	}
	if err := h.Store.FetchTrades(ctx, false); err != nil {
		return models.Trade{}, false
	}
	return h.Store.Find(id)
}

func (h *TradeHandler) uploadImage(r *http.Request) (string, error) {
	if h.Uploader == nil || r.MultipartForm == nil {
		return "", nil
	}
	file, header, err := r.FormFile("image_file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	name := uuid.NewString() + path.Ext(header.Filename)
	return h.Uploader.Upload(r.Context(), data, name, h.UploadFolder)
}

func (h *TradeHandler) formPage(form *forms.TradeForm) tradeFormPage {
	return tradeFormPage{
		Form:           form,
		Status:         h.Store.Status(),
		UploadsEnabled: h.Uploader != nil,
	}
}

func editPage(form *forms.EditForm) tradeEditPage {
	fields := make([]editField, 0, len(models.DraftFields))
	for _, name := range models.DraftFields {
		fields = append(fields, editField{Name: name, Value: form.Draft.Field(name)})
	}
	return tradeEditPage{Form: form, Fields: fields}
}

// requireAdmin renders the permission page for non-admins.
func (h *TradeHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if session.FromRequest(r).Role().IsAdmin() {
		return true
	}
	h.forbidden(w)
	return false
}

func (h *TradeHandler) forbidden(w http.ResponseWriter) {
	h.render(w, http.StatusForbidden, "forbidden.gohtml", forbiddenPage{Message: services.MsgAdminOnly})
}

func (h *TradeHandler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.Templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger().Error("render template", "template", name, "err", err)
	}
}

func (h *TradeHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
