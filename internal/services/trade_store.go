package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"tradeAdmin/internal/models"
	"tradeAdmin/internal/session"
)

// TradeService is the remote API the store dispatches to.
type TradeService interface {
	ListTrades(ctx context.Context) ([]models.Trade, error)
	CreateTrade(ctx context.Context, payload models.TradePayload) (models.Trade, error)
	UpdateTrade(ctx context.Context, id models.ID, patch models.TradePatch) (models.Trade, error)
	DeleteTrade(ctx context.Context, id models.ID) error
}

// TradeCache holds the last fetched collection between forced refreshes.
type TradeCache interface {
	GetTrades(ctx context.Context) ([]models.Trade, bool, error)
	SetTrades(ctx context.Context, trades []models.Trade) error
	Invalidate(ctx context.Context) error
}

// ActivityJournal records admin commands and their outcome.
type ActivityJournal interface {
	Record(ctx context.Context, a models.Activity) error
}

const (
	CommandFetch  = "fetch_trades"
	CommandAdd    = "add_trade"
	CommandUpdate = "update_trade"
	CommandRemove = "remove_trade"
)

const MsgAdminOnly = "You must be an admin to see this page"

// StoreState is the snapshot every view renders from.
type StoreState struct {
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	ErrorKind    ErrorKind      `json:"error_kind,omitempty"`
	Command      string         `json:"command,omitempty"`
	Trades       []models.Trade `json:"trades"`
	UpdatedAt    time.Time      `json:"updated_at"`
	// Seq increases with every state change.
	Seq          uint64         `json:"seq"`
}

type StoreOptions struct {
	Cache   TradeCache
	Journal ActivityJournal
	Logger  *slog.Logger
	Now     func() time.Time
}

// TradeStore keeps the cached trade collection and the lifecycle of the most
// recent command. It is safe for concurrent use; remote calls run outside the
// lock and their results are applied in the order they resolve.
type TradeStore struct {
	api     TradeService
	cache   TradeCache
	journal ActivityJournal
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	state    StoreState
	inFlight int
	seq      uint64

	subMu  sync.Mutex
	subs   map[int]func(StoreState)
	nextID int

	// deliverMu orders deliveries; lastSeq is the newest state delivered.
	deliverMu sync.Mutex
	lastSeq   uint64
}

func NewTradeStore(api TradeService, opts StoreOptions) *TradeStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TradeStore{
		api:     api,
		cache:   opts.Cache,
		journal: opts.Journal,
		logger:  logger,
		now:     now,
		state:   StoreState{Status: StatusIdle, Trades: []models.Trade{}},
		subs:    make(map[int]func(StoreState)),
	}
}

// FetchTrades loads the full collection. Without forceRefresh a cached copy is
// served when present; otherwise exactly one remote call is made.
func (s *TradeStore) FetchTrades(ctx context.Context, forceRefresh bool) error {
	s.begin(CommandFetch)

	if !forceRefresh && s.cache != nil {
		cached, ok, err := s.cache.GetTrades(ctx)
		if err != nil {
			s.logger.Warn("trade cache read failed", "err", err)
		}
		if ok {
			if !s.finish(ctx, CommandFetch, func(st *StoreState) { st.Trades = cached }) {
				return ctx.Err()
			}
			return nil
		}
	}

	trades, err := s.api.ListTrades(ctx)
	if err != nil {
		return s.fail(ctx, CommandFetch, "", "", err)
	}
	if s.cache != nil {
		if err := s.cache.SetTrades(ctx, trades); err != nil {
			s.logger.Warn("trade cache write failed", "err", err)
		}
	}
	if !s.finish(ctx, CommandFetch, func(st *StoreState) { st.Trades = trades }) {
		return ctx.Err()
	}
	return nil
}

// AddTrade creates a trade from draft. The caller validates the draft first.
func (s *TradeStore) AddTrade(ctx context.Context, who session.Provider, draft models.TradeDraft) (models.Trade, error) {
	if err := s.authorize(who, CommandAdd); err != nil {
		return models.Trade{}, err
	}
	s.begin(CommandAdd)
	payload, err := draft.Payload()
	if err != nil {
		return models.Trade{}, s.fail(ctx, CommandAdd, "", who.UserID(), err)
	}

	created, err := s.api.CreateTrade(ctx, payload)
	if err != nil {
		return models.Trade{}, s.fail(ctx, CommandAdd, "", who.UserID(), err)
	}
	s.invalidateCache(ctx)
	if !s.finish(ctx, CommandAdd, func(st *StoreState) {
		st.Trades = append(slices.Clone(st.Trades), created)
	}) {
		return models.Trade{}, ctx.Err()
	}
	s.record(ctx, CommandAdd, created.ID.String(), who.UserID(), nil)
	return created, nil
}

// UpdateTrade applies patch to the trade with the given id.
func (s *TradeStore) UpdateTrade(ctx context.Context, who session.Provider, id models.ID, patch models.TradePatch) (models.Trade, error) {
	if err := s.authorize(who, CommandUpdate); err != nil {
		return models.Trade{}, err
	}
	s.begin(CommandUpdate)
	if err := id.Validate(); err != nil {
		return models.Trade{}, s.fail(ctx, CommandUpdate, "", who.UserID(), err)
	}

	updated, err := s.api.UpdateTrade(ctx, id, patch)
	if err != nil {
		return models.Trade{}, s.fail(ctx, CommandUpdate, id.String(), who.UserID(), err)
	}
	s.invalidateCache(ctx)
	if !s.finish(ctx, CommandUpdate, func(st *StoreState) {
		trades := slices.Clone(st.Trades)
		for i := range trades {
			if trades[i].ID == id {
				trades[i] = updated
			}
		}
		st.Trades = trades
	}) {
		return models.Trade{}, ctx.Err()
	}
	s.record(ctx, CommandUpdate, id.String(), who.UserID(), nil)
	return updated, nil
}

// RemoveOrEditTrade removes the trade with the given id from the service and
// from the collection.
func (s *TradeStore) RemoveOrEditTrade(ctx context.Context, who session.Provider, id models.ID) error {
	if err := s.authorize(who, CommandRemove); err != nil {
		return err
	}
	s.begin(CommandRemove)
	if err := id.Validate(); err != nil {
		return s.fail(ctx, CommandRemove, "", who.UserID(), err)
	}

	if err := s.api.DeleteTrade(ctx, id); err != nil {
		return s.fail(ctx, CommandRemove, id.String(), who.UserID(), err)
	}
	s.invalidateCache(ctx)
	if !s.finish(ctx, CommandRemove, func(st *StoreState) {
		st.Trades = slices.DeleteFunc(slices.Clone(st.Trades), func(t models.Trade) bool { return t.ID == id })
	}) {
		return ctx.Err()
	}
	s.record(ctx, CommandRemove, id.String(), who.UserID(), nil)
	return nil
}

func (s *TradeStore) Snapshot() StoreState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *TradeStore) Trades() []models.Trade { return s.Snapshot().Trades }

func (s *TradeStore) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Status
}

func (s *TradeStore) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ErrorMessage
}

// Find returns the cached trade with the given id.
func (s *TradeStore) Find(id models.ID) (models.Trade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.state.Trades {
		if t.ID == id {
			return t, true
		}
	}
	return models.Trade{}, false
}

// Subscribe registers fn to receive new states in order; a state older than
// one already delivered is skipped. fn must not issue store commands. The
// returned func removes the subscription.
func (s *TradeStore) Subscribe(fn func(StoreState)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// authorize rejects non-admin commands before they touch shared state.
func (s *TradeStore) authorize(who session.Provider, command string) error {
	if who.Role().IsAdmin() {
		return nil
	}
	s.logger.Debug("non-admin command rejected", "command", command, "user_id", who.UserID())
	return models.ErrForbidden
}

func (s *TradeStore) snapshotLocked() StoreState {
	st := s.state
	st.Trades = slices.Clone(s.state.Trades)
	if st.Trades == nil {
		st.Trades = []models.Trade{}
	}
	return st
}

// changedLocked stamps the state with the next sequence number and returns
// a snapshot for subscribers.
func (s *TradeStore) changedLocked() StoreState {
	s.seq++
	s.state.Seq = s.seq
	return s.snapshotLocked()
}

// begin moves the store to pending; a settled status passes through idle.
func (s *TradeStore) begin(command string) {
	s.mu.Lock()
	if s.state.Status == StatusSuccess || s.state.Status == StatusFailed {
		s.setStatusLocked(StatusIdle)
	}
	s.setStatusLocked(StatusPending)
	s.state.ErrorMessage = ""
	s.state.ErrorKind = KindNone
	s.state.Command = command
	s.inFlight++
	st := s.changedLocked()
	s.mu.Unlock()
	s.notify(st)
}

// finish applies a successful result. It returns false when ctx is already
// done, in which case the result is dropped.
func (s *TradeStore) finish(ctx context.Context, command string, apply func(*StoreState)) bool {
	s.mu.Lock()
	s.inFlight--
	if ctx.Err() != nil {
		s.abandonLocked()
		st := s.changedLocked()
		s.mu.Unlock()
		s.notify(st)
		s.logger.Debug("dropping late result", "command", command)
		return false
	}
	apply(&s.state)
	s.state.Command = command
	s.state.ErrorMessage = ""
	s.state.ErrorKind = KindNone
	s.setStatusLocked(StatusSuccess)
	s.state.UpdatedAt = s.now()
	st := s.changedLocked()
	s.mu.Unlock()
	s.notify(st)
	return true
}

// fail records err as the outcome of command and returns it.
func (s *TradeStore) fail(ctx context.Context, command, tradeID, userID string, err error) error {
	s.mu.Lock()
	s.inFlight--
	if ctx.Err() != nil {
		s.abandonLocked()
		st := s.changedLocked()
		s.mu.Unlock()
		s.notify(st)
		return ctx.Err()
	}
	s.state.Command = command
	s.state.ErrorMessage = ErrorMessage(err)
	s.state.ErrorKind = KindOf(err)
	s.setStatusLocked(StatusFailed)
	s.state.UpdatedAt = s.now()
	st := s.changedLocked()
	s.mu.Unlock()
	s.notify(st)

	s.logger.Warn("trade command failed", "command", command, "trade_id", tradeID, "err", err)
	if command != CommandFetch {
		s.record(ctx, command, tradeID, userID, err)
	}
	return err
}

func (s *TradeStore) abandonLocked() {
	if s.inFlight == 0 && s.state.Status == StatusPending {
		s.setStatusLocked(StatusIdle)
	}
}

func (s *TradeStore) setStatusLocked(to Status) {
	if !CanTransition(s.state.Status, to) {
		s.logger.Error("invalid store transition", "from", s.state.Status, "to", to)
		return
	}
	s.state.Status = to
}

func (s *TradeStore) notify(st StoreState) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if st.Seq <= s.lastSeq {
		return
	}
	s.lastSeq = st.Seq

	s.subMu.Lock()
	fns := make([]func(StoreState), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

func (s *TradeStore) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("trade cache invalidate failed", "err", err)
	}
}

func (s *TradeStore) record(ctx context.Context, command, tradeID, userID string, err error) {
	if s.journal == nil {
		return
	}
	a := models.Activity{
		Command:   command,
		TradeID:   tradeID,
		UserID:    userID,
		Status:    string(StatusSuccess),
		CreatedAt: s.now().UTC(),
	}
	if err != nil {
		a.Status = string(StatusFailed)
		a.Error = err.Error()
	}
	if jerr := s.journal.Record(context.WithoutCancel(ctx), a); jerr != nil {
		s.logger.Warn("activity journal write failed", "command", command, "err", jerr)
	}
}

// KindOf classifies err for views.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrMissingID), errors.Is(err, models.ErrInvalidID):
		return KindValidation
	case errors.Is(err, models.ErrForbidden):
		return KindAuthorization
	case errors.Is(err, models.ErrNetwork):
		return KindNetwork
	}
	var apiErr *TradeAPIError
	if errors.As(err, &apiErr) && apiErr.CredentialsRefused() {
		return KindCredentials
	}
	return KindService
}

// ErrorMessage is the inline text a view shows for err.
func ErrorMessage(err error) string {
	var apiErr *TradeAPIError
	var vErr *models.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.Is(err, models.ErrForbidden):
		return MsgAdminOnly
	case errors.Is(err, models.ErrMissingID):
		return "A trade id is required"
	case errors.Is(err, models.ErrInvalidID):
		return "Invalid trade id"
	case errors.Is(err, models.ErrNoRecord):
		return "Trade not found"
	case errors.Is(err, models.ErrNetwork):
		return "Trade service is unreachable, please try again"
	case errors.As(err, &apiErr):
		return apiErr.UserMessage()
	}
	return err.Error()
}
