// Package wallet keeps the client-side view of the card store in sync with
// the server: the card list, the transactions of the selected card, the
// create and delete mutations, and the details panel and dialog state.
package wallet

import (
	"context"
	"sync"
	"time"

	"giftwallet/internal/api"
	"giftwallet/internal/cache"
	"giftwallet/internal/core"
	"giftwallet/internal/log"
)

// CardsKey is the cache key of the card list.
const CardsKey = api.CardsPath

// TransactionsKey is the cache key of a card's transactions.
func TransactionsKey(cardID string) string {
	return api.TransactionsPath(cardID)
}

const (
	genericErrorTitle = "Error"
	addFailedMessage  = "Failed to add card. Please try again."
	removeFailedMsg   = "Failed to remove card. Please try again."
)

// CardAPI is the REST surface the wallet depends on.
type CardAPI interface {
	ListCards(ctx context.Context) ([]core.CardRecord, error)
	CreateCard(ctx context.Context, card core.NewCard) (core.CardRecord, error)
	DeleteCard(ctx context.Context, id string) error
	ListTransactions(ctx context.Context, cardID string) ([]core.Transaction, error)
}

type Options struct {
	Logger   *log.Logger
	Notifier *Notifier
	// GCTime drops transaction keys unused for this long; zero keeps them.
	GCTime time.Duration
	// MaxTransactionKeys bounds how many cards' histories stay cached.
	MaxTransactionKeys int
}

// ListState is what the presentation layer reads for the card grid.
type ListState struct {
	Cards   []core.CardView
	Loading bool
	Err     error
	Summary core.Summary
}

// TransactionsState is the history shown in the details panel. Active is
// false when no card is selected.
type TransactionsState struct {
	Active       bool
	Loading      bool
	Err          error
	Transactions []core.Transaction
}

// Panel is the details panel: closed, or open on one card.
type Panel struct {
	Open bool
	Card *core.CardView
}

type Wallet struct {
	api      CardAPI
	cards    *cache.Query[[]core.CardRecord]
	txs      *cache.Query[[]core.Transaction]
	notifier *Notifier
	logger   *log.Logger

	create *Mutation[core.NewCard, core.CardRecord]
	remove *Mutation[string, struct{}]

	mu          sync.Mutex
	selected    *core.CardView
	detailsOpen bool
	addOpen     bool
	listeners   map[int]func()
	nextL       int

	bg sync.WaitGroup
}

func New(client CardAPI, opts Options) *Wallet {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NewNotifier()
	}
	maxKeys := opts.MaxTransactionKeys
	if maxKeys <= 0 {
		maxKeys = 32
	}

	w := &Wallet{
		api:       client,
		cards:     cache.NewQuery[[]core.CardRecord](1, 0, 0),
		txs:       cache.NewQuery[[]core.Transaction](maxKeys, opts.GCTime, 0),
		notifier:  notifier,
		logger:    logger.WithComponent(log.ComponentWallet),
		listeners: make(map[int]func()),
	}
	w.cards.Subscribe(CardsKey, func(cache.State[[]core.CardRecord]) { w.changed() })
	notifier.setOnChange(w.changed)

	w.create = NewMutation(client.CreateCard).
		OnSuccess(w.cardAdded).
		OnError(func(ctx context.Context, n core.NewCard, err error) {
			w.logger.WarnContext(ctx, "Add card failed", log.FieldLastFour, n.LastFourDigits, log.FieldError, err)
			w.notifier.Error(genericErrorTitle, addFailedMessage)
		})
	w.remove = NewMutation(func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, client.DeleteCard(ctx, id)
	}).
		OnSuccess(w.cardRemoved).
		OnError(func(ctx context.Context, id string, err error) {
			w.logger.WarnContext(ctx, "Remove card failed", log.FieldCardID, id, log.FieldError, err)
			w.notifier.Error(genericErrorTitle, removeFailedMsg)
		})

	return w
}

// Notifier returns the wallet's toast queue.
func (w *Wallet) Notifier() *Notifier {
	return w.notifier
}

// Caches returns the query caches for periodic cleanup.
func (w *Wallet) Caches() []cache.Cleaner {
	return []cache.Cleaner{w.cards, w.txs}
}

// OnChange registers fn to run after any state change. The returned func
// removes it.
func (w *Wallet) OnChange(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextL++
	id := w.nextL
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

func (w *Wallet) changed() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// LoadCards reads the card list through the cache, going to the network
// when nothing is cached or the list was invalidated.
func (w *Wallet) LoadCards(ctx context.Context) error {
	_, err := w.cards.Fetch(ctx, CardsKey, w.api.ListCards)
	if err != nil {
		w.logger.WarnContext(ctx, "Loading cards failed", log.FieldCacheKey, CardsKey, log.FieldError, err)
	}
	return err
}

// Cards returns the card grid state. Views and the total are derived from
// the cached records on every call.
func (w *Wallet) Cards() ListState {
	st := w.cards.State(CardsKey)
	views := core.ToViews(st.Data)
	return ListState{
		Cards:   views,
		Loading: st.Loading && !st.HasData,
		Err:     st.Err,
		Summary: core.Summarize(views),
	}
}

// invalidateCards marks the list stale and refetches it, the list being
// always in use.
func (w *Wallet) invalidateCards(ctx context.Context) {
	w.cards.Invalidate(CardsKey)
	if _, err := w.cards.Refetch(ctx, CardsKey, w.api.ListCards); err != nil {
		w.logger.WarnContext(ctx, "Refetching cards failed", log.FieldError, err)
	}
}

// SelectCard selects view, opens the details panel and starts loading
// the card's transactions in the background.
func (w *Wallet) SelectCard(ctx context.Context, view core.CardView) {
	w.mu.Lock()
	v := view
	w.selected = &v
	w.detailsOpen = true
	w.mu.Unlock()
	w.changed()

	w.bg.Add(1)
	go func() {
		defer w.bg.Done()
		_ = w.loadTransactions(ctx, view.ID)
	}()
}

// Selected returns the selected card, or nil.
func (w *Wallet) Selected() *core.CardView {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return nil
	}
	v := *w.selected
	return &v
}

// ClearSelection deselects the card. The transactions query goes
// inactive; cached histories stay until collected.
func (w *Wallet) ClearSelection() {
	w.mu.Lock()
	w.selected = nil
	w.mu.Unlock()
	w.changed()
}

// Details returns the details panel state.
func (w *Wallet) Details() Panel {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.detailsOpen {
		return Panel{}
	}
	p := Panel{Open: true}
	if w.selected != nil {
		v := *w.selected
		p.Card = &v
	}
	return p
}

// CloseDetails closes the panel and keeps the selection.
func (w *Wallet) CloseDetails() {
	w.mu.Lock()
	w.detailsOpen = false
	w.mu.Unlock()
	w.changed()
}

// LoadTransactions fetches the history of the selected card. Without a
// selection it issues no request.
func (w *Wallet) LoadTransactions(ctx context.Context) error {
	sel := w.Selected()
	if sel == nil {
		return nil
	}
	return w.loadTransactions(ctx, sel.ID)
}

// loadTransactions fetches under the key of id. A result arriving after the
// selection moved on is still stored under that key.
func (w *Wallet) loadTransactions(ctx context.Context, id string) error {
	key := TransactionsKey(id)
	_, err := w.txs.Fetch(ctx, key, func(ctx context.Context) ([]core.Transaction, error) {
		return w.api.ListTransactions(ctx, id)
	})
	if err != nil {
		w.logger.WarnContext(ctx, "Loading transactions failed", log.FieldCacheKey, key, log.FieldError, err)
	}
	w.changed()
	return err
}

// Transactions returns the history for the current selection only.
func (w *Wallet) Transactions() TransactionsState {
	sel := w.Selected()
	if sel == nil {
		return TransactionsState{}
	}
	st := w.txs.State(TransactionsKey(sel.ID))
	return TransactionsState{
		Active:       true,
		Loading:      st.Loading && !st.HasData,
		Err:          st.Err,
		Transactions: st.Data,
	}
}

// OpenAddCard opens the add-card dialog.
func (w *Wallet) OpenAddCard() {
	w.mu.Lock()
	w.addOpen = true
	w.mu.Unlock()
	w.changed()
}

func (w *Wallet) CloseAddCard() {
	w.mu.Lock()
	w.addOpen = false
	w.mu.Unlock()
	w.changed()
}

func (w *Wallet) AddCardOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addOpen
}

// AddCard validates the form and, when valid, submits the card. Invalid
// input returns core.FieldErrors and sends nothing. Only the last four
// digits of the card number leave the client.
func (w *Wallet) AddCard(ctx context.Context, form core.AddCardForm) (<-chan Result[core.CardRecord], error) {
	if fe := form.Validate(); len(fe) > 0 {
		return nil, fe
	}
	card, err := form.ToNewCard()
	if err != nil {
		return nil, err
	}
	return w.create.Mutate(ctx, card), nil
}

func (w *Wallet) cardAdded(ctx context.Context, _ core.NewCard, rec core.CardRecord) {
	w.invalidateCards(ctx)
	w.notifier.Success("Card added", "Your gift card has been added to your wallet.")
	w.CloseAddCard()
	w.logger.InfoContext(ctx, "Card added", log.FieldCardID, rec.ID, log.FieldLastFour, rec.LastFourDigits)
}

// RemoveCard closes the details panel immediately and deletes the card.
// A failed delete leaves the panel closed and only shows an error toast.
func (w *Wallet) RemoveCard(ctx context.Context, id string) <-chan Result[struct{}] {
	w.CloseDetails()
	return w.remove.Mutate(ctx, id)
}

func (w *Wallet) cardRemoved(ctx context.Context, id string, _ struct{}) {
	w.invalidateCards(ctx)
	w.mu.Lock()
	w.selected = nil
	w.mu.Unlock()
	w.txs.Remove(TransactionsKey(id))
	w.notifier.Success("Card removed", "The gift card has been removed from your wallet.")
	w.logger.InfoContext(ctx, "Card removed", log.FieldCardID, id)
}

// Pending reports whether a create or delete is in flight.
func (w *Wallet) Pending() bool {
	return w.create.Pending() || w.remove.Pending()
}

// Wait blocks until background loads and mutations have finished.
func (w *Wallet) Wait() {
	w.bg.Wait()
	w.create.Wait()
	w.remove.Wait()
}
