package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/klauspost/compress/gzhttp"
)

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, app.loadSession)
	pageMiddleware := standardMiddleware.Append(func(h http.Handler) http.Handler { return gzhttp.GzipHandler(h) })
	jsonMiddleware := standardMiddleware.Append(makeResponseJSON)

	mux := pat.New()

	// Pages
	mux.Get("/trade", pageMiddleware.ThenFunc(app.tradeHandler.ListTrades))
	mux.Get("/trade/new", pageMiddleware.ThenFunc(app.tradeHandler.NewTradeForm))
	mux.Post("/trade/new", pageMiddleware.ThenFunc(app.tradeHandler.CreateTrade))
	mux.Get("/trade/:id/edit", pageMiddleware.ThenFunc(app.tradeHandler.EditTradeForm))
	mux.Post("/trade/:id/edit", pageMiddleware.ThenFunc(app.tradeHandler.UpdateTrade))
	mux.Post("/trade/:id/remove", pageMiddleware.ThenFunc(app.tradeHandler.RemoveTrade))

	// JSON
	mux.Get("/api/trades/state", jsonMiddleware.ThenFunc(app.tradeAPIHandler.State))
	mux.Get("/api/trades", jsonMiddleware.ThenFunc(app.tradeAPIHandler.ListTrades))
	mux.Post("/api/trades", jsonMiddleware.ThenFunc(app.tradeAPIHandler.CreateTrade))
	mux.Put("/api/trades/:id", jsonMiddleware.ThenFunc(app.tradeAPIHandler.UpdateTrade))
	mux.Del("/api/trades/:id", jsonMiddleware.ThenFunc(app.tradeAPIHandler.DeleteTrade))
	mux.Get("/api/activity", jsonMiddleware.ThenFunc(app.tradeAPIHandler.ListActivity))

	// Live status
	mux.Get("/ws/trades", standardMiddleware.ThenFunc(app.statusWebSocket))

	mux.Get("/", http.RedirectHandler("/trade", http.StatusSeeOther))

	return mux
}
