package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/pkg/journal"
	"hindsight-api/pkg/market"
	"hindsight-api/pkg/throttle"
)

// assetOutcome records how a coin's fetch concluded within an epoch.
type assetOutcome string

const (
	outcomeOK     assetOutcome = "ok"
	outcomeNoData assetOutcome = "no_data"
	outcomeFailed assetOutcome = "failed"
	// outcomeCancelled marks a fetch sequence cut short by run cancellation.
	// It is never written to the epoch cache; the asset stays pending so the
	// next run refetches the whole sequence.
	outcomeCancelled assetOutcome = "cancelled"
)

// fetchRun is one orchestration run. It carries its own epoch id and
// cancellation token; every state write checks the run's epoch against the
// dashboard's current one, so a stale run can never corrupt a newer epoch.
type fetchRun struct {
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// fetchResult is what one asset's sequential fetch produced.
type fetchResult struct {
	outcome    assetOutcome
	historical *float64
	series     *market.RangeSeries
}

// ensureRunLocked starts the fetch worker when there is pending work and no
// run is active for the current epoch. Callers hold d.mu.
func (d *Dashboard) ensureRunLocked() {
	if d.activeRun != nil && d.activeRun.epoch == d.epoch {
		return
	}
	if len(d.pendingLocked()) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	run := &fetchRun{epoch: d.epoch, ctx: ctx, cancel: cancel}
	d.activeRun = run
	go d.fetchLoop(run)
}

// pendingLocked lists selected coins not yet resolved this epoch, in
// selection order. Callers hold d.mu.
func (d *Dashboard) pendingLocked() []string {
	var pending []string
	for _, asset := range d.selection {
		if _, done := d.fetched[asset.Coin.ID]; !done {
			pending = append(pending, asset.Coin.ID)
		}
	}
	return pending
}

// fetchLoop drains the work queue one asset at a time. Exactly one request
// is outstanding at any moment; the loop stops when the queue drains, the
// run's epoch goes stale or its context is cancelled.
func (d *Dashboard) fetchLoop(run *fetchRun) {
	defer run.cancel()

	started := time.Now()
	var outcomes []journal.AssetOutcome
	for {
		coinID, refDate, ok := d.nextPending(run)
		if !ok {
			break
		}
		result := d.fetchAsset(run, coinID, refDate)
		if d.completeAsset(run, coinID, result) {
			outcomes = append(outcomes, journal.AssetOutcome{
				CoinID: coinID,
				Status: string(result.outcome),
			})
		}
	}
	d.finishRun(run)
	d.writeJournal(run, outcomes, time.Since(started))
}

// nextPending picks the next unfetched asset, or reports that the run is
// over because the queue drained, the epoch moved on or the run was cancelled.
func (d *Dashboard) nextPending(run *fetchRun) (string, time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if run.ctx.Err() != nil || d.epoch != run.epoch {
		return "", time.Time{}, false
	}
	pending := d.pendingLocked()
	if len(pending) == 0 {
		return "", time.Time{}, false
	}
	return pending[0], d.referenceDate, true
}

// fetchAsset runs the per-asset sequence: historical point price, fixed
// delay, range series, fixed delay. No lock is held here. Failures follow
// the partial-results policy: "no data" is a valid outcome, a transport or
// rate-limit failure marks the asset failed after an extended cooldown, and
// the loop always proceeds to the next asset.
func (d *Dashboard) fetchAsset(run *fetchRun, coinID string, refDate time.Time) fetchResult {
	result := fetchResult{outcome: outcomeOK}

	price, err := d.provider.HistoricalPrice(run.ctx, coinID, refDate)
	switch {
	case err == nil:
		result.historical = &price
	case errors.Is(err, market.ErrNoData):
		// The coin did not exist on that date. Permanent for this
		// epoch; rendered as a placeholder, never retried.
		result.outcome = outcomeNoData
	case run.ctx.Err() != nil:
		result.outcome = outcomeCancelled
		return result
	default:
		logx.Errorf("dashboard: historical fetch coin=%s epoch=%d err=%v", coinID, run.epoch, err)
		result.outcome = outcomeFailed
		_ = throttle.Sleep(run.ctx, d.errorCooldown)
		return result
	}

	if err := throttle.Sleep(run.ctx, d.stepDelay); err != nil {
		result.outcome = outcomeCancelled
		return result
	}

	series, err := d.provider.Range(run.ctx, coinID, refDate, d.nowFn())
	switch {
	case err == nil:
		result.series = series
	case run.ctx.Err() != nil:
		result.outcome = outcomeCancelled
		return result
	default:
		logx.Errorf("dashboard: range fetch coin=%s epoch=%d err=%v", coinID, run.epoch, err)
		result.outcome = outcomeFailed
		_ = throttle.Sleep(run.ctx, d.errorCooldown)
		return result
	}

	_ = throttle.Sleep(run.ctx, d.stepDelay)
	return result
}

// completeAsset writes a fetch outcome into the epoch cache. The write is
// discarded when the epoch moved on or the asset was deselected while the
// request was in flight. Returns whether the result was kept.
func (d *Dashboard) completeAsset(run *fetchRun, coinID string, result fetchResult) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.epoch != run.epoch {
		return false
	}
	var selected *SelectedAsset
	for _, asset := range d.selection {
		if asset.Coin.ID == coinID {
			selected = asset
			break
		}
	}
	if selected == nil {
		return false
	}
	if result.outcome == outcomeCancelled {
		// A cut-short sequence is never recorded, even when the point
		// price already arrived; the asset stays pending so the next
		// run fetches both the price and the series together.
		return false
	}

	d.cache.setHistorical(coinID, result.historical)
	d.cache.setSeries(coinID, result.series)
	selected.HistoricalPrice = result.historical
	d.fetched[coinID] = result.outcome
	return true
}

// finishRun clears the active-run marker if this run still owns it. Work
// enqueued between the final queue check and this call starts a fresh run so
// nothing is left sitting in the queue.
func (d *Dashboard) finishRun(run *fetchRun) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.activeRun == run {
		d.activeRun = nil
		d.ensureRunLocked()
	}
}

func (d *Dashboard) writeJournal(run *fetchRun, outcomes []journal.AssetOutcome, elapsed time.Duration) {
	if d.journal == nil || len(outcomes) == 0 {
		return
	}
	record := &journal.RunRecord{
		Epoch:         run.epoch,
		ReferenceDate: d.ReferenceDate().Format("2006-01-02"),
		Outcomes:      outcomes,
		DurationMS:    elapsed.Milliseconds(),
		Success:       true,
	}
	for _, outcome := range outcomes {
		if outcome.Status == string(outcomeFailed) {
			record.Success = false
			break
		}
	}
	if _, err := d.journal.WriteRun(record); err != nil {
		logx.Errorf("dashboard: journal write epoch=%d err=%v", run.epoch, err)
	}
}
