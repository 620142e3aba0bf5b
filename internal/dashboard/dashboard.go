// Package dashboard owns the data plane of the price comparison view: the
// session coin universe, the user's asset selection, the reference-date
// epoch cache and the sequential fetch orchestration against the market
// provider. All mutable state lives behind one mutex; network calls never
// run while it is held.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"hindsight-api/pkg/journal"
	"hindsight-api/pkg/market"
)

const (
	// maxPinned bounds the number of reference (baseline) assets.
	maxPinned = 4

	defaultStepDelay     = 6 * time.Second
	defaultErrorCooldown = 60 * time.Second
	defaultLookback      = 30 * 24 * time.Hour
)

var (
	ErrCoinsNotLoaded = errors.New("dashboard: coin list not loaded")
	ErrUnknownCoin    = errors.New("dashboard: unknown coin id")
	ErrDuplicateAsset = errors.New("dashboard: asset already selected")
	ErrPinnedLimit    = errors.New("dashboard: pinned asset limit reached")
	ErrNotSelected    = errors.New("dashboard: asset not selected")
	ErrFutureDate     = errors.New("dashboard: reference date must be in the past")
)

// ChartMode selects which series feeds the chart.
type ChartMode string

const (
	ChartModePrice     ChartMode = "price"
	ChartModeMarketCap ChartMode = "marketcap"
)

// ChartDisplay selects raw values or index-100 normalization.
type ChartDisplay string

const (
	ChartDisplayRaw        ChartDisplay = "raw"
	ChartDisplayNormalized ChartDisplay = "normalized"
)

// SelectedAsset is one tracked asset. Visible is the only field mutated in
// place; everything else is replaced wholesale when data arrives.
type SelectedAsset struct {
	Coin            market.Coin `json:"coin"`
	Pinned          bool        `json:"pinned"`
	Color           string      `json:"color"`
	Visible         bool        `json:"visible"`
	HistoricalPrice *float64    `json:"historicalPrice,omitempty"`
}

// Status reports the orchestrator's externally observable state.
type Status struct {
	State         string            `json:"state"` // idle | fetching
	Epoch         uint64            `json:"epoch"`
	ReferenceDate string            `json:"referenceDate"`
	Fetched       int               `json:"fetched"`
	Pending       int               `json:"pending"`
	Outcomes      map[string]string `json:"outcomes"`
}

// Dashboard is the single-writer arbiter for all dashboard state.
type Dashboard struct {
	provider      market.Provider
	journal       *journal.Writer
	stepDelay     time.Duration
	errorCooldown time.Duration
	lookback      time.Duration
	nowFn         func() time.Time

	mu            sync.Mutex
	coins         []market.Coin
	coinsByID     map[string]market.Coin
	selection     []*SelectedAsset
	insertions    int
	referenceDate time.Time
	epoch         uint64
	cache         *priceCache
	fetched       map[string]assetOutcome
	activeRun     *fetchRun
	sortState     SortState
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithStepDelay overrides the fixed delay between orchestrated fetch steps.
func WithStepDelay(d time.Duration) Option {
	return func(db *Dashboard) {
		if d >= 0 {
			db.stepDelay = d
		}
	}
}

// WithErrorCooldown overrides the extended pause after a failed asset fetch.
func WithErrorCooldown(d time.Duration) Option {
	return func(db *Dashboard) {
		if d >= 0 {
			db.errorCooldown = d
		}
	}
}

// WithJournal attaches a fetch-run journal writer.
func WithJournal(w *journal.Writer) Option {
	return func(db *Dashboard) {
		db.journal = w
	}
}

// WithLookback overrides how far before now the default reference date sits.
func WithLookback(d time.Duration) Option {
	return func(db *Dashboard) {
		if d > 0 {
			db.lookback = d
		}
	}
}

// WithClock injects a custom time source for tests.
func WithClock(now func() time.Time) Option {
	return func(db *Dashboard) {
		if now != nil {
			db.nowFn = now
		}
	}
}

// New constructs a Dashboard around the given market provider. The reference
// date defaults to 30 days ago.
func New(provider market.Provider, opts ...Option) *Dashboard {
	db := &Dashboard{
		provider:      provider,
		stepDelay:     defaultStepDelay,
		errorCooldown: defaultErrorCooldown,
		lookback:      defaultLookback,
		nowFn:         time.Now,
		coinsByID:     make(map[string]market.Coin),
		cache:         newPriceCache(),
		fetched:       make(map[string]assetOutcome),
		sortState:     SortState{Field: SortByName, Ascending: true},
	}
	for _, opt := range opts {
		opt(db)
	}
	db.referenceDate = midnightUTC(db.nowFn().Add(-db.lookback))
	return db
}

// LoadCoins fetches the session coin universe once. Subsequent calls return
// the cached listing. A failure here is fatal to the whole view; callers
// surface it as a full error state.
func (d *Dashboard) LoadCoins(ctx context.Context) ([]market.Coin, error) {
	d.mu.Lock()
	if len(d.coins) > 0 {
		coins := d.coins
		d.mu.Unlock()
		return coins, nil
	}
	d.mu.Unlock()

	// The listing fetch runs outside the lock; it may overlap with
	// per-asset fetches by design.
	coins, err := d.provider.TopCoins(ctx)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.coins) == 0 {
		d.coins = coins
		for _, coin := range coins {
			d.coinsByID[coin.ID] = coin
		}
	}
	return d.coins, nil
}

// SearchCoins returns coins whose id, symbol or name contains the query,
// case-insensitively. An empty query returns the full session listing.
func (d *Dashboard) SearchCoins(query string) []market.Coin {
	d.mu.Lock()
	defer d.mu.Unlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return append([]market.Coin(nil), d.coins...)
	}
	matches := make([]market.Coin, 0, 8)
	for _, coin := range d.coins {
		if strings.Contains(strings.ToLower(coin.ID), query) ||
			strings.Contains(strings.ToLower(coin.Symbol), query) ||
			strings.Contains(strings.ToLower(coin.Name), query) {
			matches = append(matches, coin)
		}
	}
	return matches
}

// AddAsset selects a coin from the session universe. Duplicate ids are
// rejected regardless of pinned state, and at most maxPinned assets may be
// pinned. The new asset receives the next palette color and is immediately
// queued for fetching.
func (d *Dashboard) AddAsset(coinID string, pinned bool) (SelectedAsset, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.coins) == 0 {
		return SelectedAsset{}, ErrCoinsNotLoaded
	}
	coin, ok := d.coinsByID[coinID]
	if !ok {
		return SelectedAsset{}, ErrUnknownCoin
	}
	for _, asset := range d.selection {
		if asset.Coin.ID == coinID {
			return SelectedAsset{}, ErrDuplicateAsset
		}
	}
	if pinned && d.pinnedCountLocked() >= maxPinned {
		return SelectedAsset{}, ErrPinnedLimit
	}

	asset := &SelectedAsset{
		Coin:    coin,
		Pinned:  pinned,
		Color:   colorForIndex(d.insertions),
		Visible: true,
	}
	d.insertions++
	d.selection = append(d.selection, asset)
	d.ensureRunLocked()
	return *asset, nil
}

// RemoveAsset deselects a coin and purges everything cached for it. An
// in-flight fetch for the coin is allowed to complete; its result is
// discarded on arrival.
func (d *Dashboard) RemoveAsset(coinID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, asset := range d.selection {
		if asset.Coin.ID == coinID {
			d.selection = append(d.selection[:i], d.selection[i+1:]...)
			d.cache.remove(coinID)
			delete(d.fetched, coinID)
			return nil
		}
	}
	return ErrNotSelected
}

// SetVisible toggles an asset's chart inclusion.
func (d *Dashboard) SetVisible(coinID string, visible bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, asset := range d.selection {
		if asset.Coin.ID == coinID {
			asset.Visible = visible
			return nil
		}
	}
	return ErrNotSelected
}

// SetReferenceDate switches the comparison date. This invalidates the entire
// epoch: caches are emptied, resolved historical prices reset, any running
// fetch is cancelled and the queue rebuilds from the full selection.
func (d *Dashboard) SetReferenceDate(date time.Time) error {
	date = midnightUTC(date)
	if !date.Before(midnightUTC(d.nowFn().Add(24 * time.Hour))) {
		return ErrFutureDate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if date.Equal(d.referenceDate) {
		return nil
	}
	d.referenceDate = date
	d.invalidateEpochLocked()
	d.ensureRunLocked()
	return nil
}

// ReferenceDate returns the active comparison date.
func (d *Dashboard) ReferenceDate() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.referenceDate
}

// Selection returns a snapshot copy of the current asset list in insertion order.
func (d *Dashboard) Selection() []SelectedAsset {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]SelectedAsset, len(d.selection))
	for i, asset := range d.selection {
		out[i] = *asset
	}
	return out
}

// ClickSort applies a column header click to the server-held sort state and
// returns the resulting state.
func (d *Dashboard) ClickSort(field SortField) SortState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sortState = d.sortState.Click(field)
	return d.sortState
}

// SetSort replaces the sort state outright, bypassing toggle semantics.
func (d *Dashboard) SetSort(state SortState) SortState {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sortState = state
	return d.sortState
}

// SortedSelection returns the selection ordered by the current sort state.
func (d *Dashboard) SortedSelection() ([]SelectedAsset, SortState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sorted := SortAssets(d.selection, d.sortState)
	out := make([]SelectedAsset, len(sorted))
	for i, asset := range sorted {
		out[i] = *asset
	}
	return out, d.sortState
}

// ChartData builds the chart records for the requested mode and display,
// considering visible assets only.
func (d *Dashboard) ChartData(mode ChartMode, display ChartDisplay) []ChartRecord {
	d.mu.Lock()
	visible := make(map[string]struct{}, len(d.selection))
	for _, asset := range d.selection {
		if asset.Visible {
			visible[asset.Coin.ID] = struct{}{}
		}
	}
	series := d.cache.seriesFor(mode, visible)
	referenceTS := d.referenceDate.UnixMilli()
	d.mu.Unlock()

	if display == ChartDisplayNormalized {
		series = Normalize(series, referenceTS)
	}
	return BuildChartRecords(series)
}

// Status reports the orchestration state for the current epoch.
func (d *Dashboard) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	outcomes := make(map[string]string, len(d.fetched))
	for id, outcome := range d.fetched {
		outcomes[id] = string(outcome)
	}
	state := "idle"
	if d.activeRun != nil && d.activeRun.epoch == d.epoch {
		state = "fetching"
	}
	return Status{
		State:         state,
		Epoch:         d.epoch,
		ReferenceDate: d.referenceDate.Format("2006-01-02"),
		Fetched:       len(d.fetched),
		Pending:       len(d.pendingLocked()),
		Outcomes:      outcomes,
	}
}

// HistoricalPriceFor returns the cached reference-date price for a coin. The
// second return reports whether the coin has been resolved this epoch; a
// true result with a nil price means "no data for that date".
func (d *Dashboard) HistoricalPriceFor(coinID string) (*float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	price, ok := d.cache.historical[coinID]
	return price, ok
}

// Stop cancels any in-flight orchestration run.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.activeRun != nil {
		d.activeRun.cancel()
		d.activeRun = nil
	}
}

func (d *Dashboard) pinnedCountLocked() int {
	n := 0
	for _, asset := range d.selection {
		if asset.Pinned {
			n++
		}
	}
	return n
}

// invalidateEpochLocked discards everything tied to the previous reference
// date. A run still executing against the old epoch keeps going until its
// next step, where the epoch check discards its result.
func (d *Dashboard) invalidateEpochLocked() {
	d.epoch++
	d.cache.clear()
	d.fetched = make(map[string]assetOutcome)
	for _, asset := range d.selection {
		asset.HistoricalPrice = nil
	}
	if d.activeRun != nil {
		d.activeRun.cancel()
		d.activeRun = nil
	}
}

func midnightUTC(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
