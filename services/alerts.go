package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/cases"

	"vehicle-marketplace/models"
	"vehicle-marketplace/utils"
)

// ValidateAlert checks the fields required to create an alert.
func ValidateAlert(a models.Alert) error {
	var missing []string
	if strings.TrimSpace(a.Make) == "" {
		missing = append(missing, "make")
	}
	if a.MinPrice < 0 {
		missing = append(missing, "min_price")
	}
	if a.MaxPrice < 0 || (a.MaxPrice > 0 && a.MaxPrice < a.MinPrice) {
		missing = append(missing, "max_price")
	}
	if len(missing) > 0 {
		return &ValidationError{Step: 1, Missing: missing}
	}
	return nil
}

// AlertMatches reports whether an active alert covers l. Make and model are
// compared case-insensitively; an empty model or a zero price bound matches
// anything.
func AlertMatches(a models.Alert, l models.Listing) bool {
	if !a.ActiveStatus {
		return false
	}
	folder := cases.Fold()
	if folder.String(strings.TrimSpace(a.Make)) != folder.String(l.Make) {
		return false
	}
	if m := strings.TrimSpace(a.Model); m != "" && folder.String(m) != folder.String(l.Model) {
		return false
	}
	if a.MinPrice > 0 && l.Price < a.MinPrice {
		return false
	}
	if a.MaxPrice > 0 && l.Price > a.MaxPrice {
		return false
	}
	return true
}

// AlertMatch pairs an alert with a listing it covers.
type AlertMatch struct {
	Alert   models.Alert
	Listing models.Listing
}

// ListingFetcher returns the current public listings.
type ListingFetcher interface {
	Fetch(ctx context.Context) ([]models.RawListing, error)
}

// AlertLister returns the signed-in user's alerts.
type AlertLister interface {
	ListAlerts(ctx context.Context) ([]models.Alert, error)
}

// AlertWatcher periodically evaluates the user's alerts against the public
// listings and reports each listing at most once per alert.
type AlertWatcher struct {
	cron       *cron.Cron
	spec       string
	listings   ListingFetcher
	alerts     AlertLister
	normalizer *Normalizer
	notify     func(AlertMatch)
	logger     *utils.Logger

	mu      sync.Mutex
	seen    *utils.Seen[matchKey]
	initial sync.WaitGroup
}

// maxRememberedMatches bounds how many reported matches a watcher keeps.
// Past it the oldest are forgotten and may be reported again.
const maxRememberedMatches = 10000

type matchKey struct{ alert, listing string }

// NewAlertWatcher creates a watcher that runs on the cron spec, e.g. "@every 15m".
func NewAlertWatcher(spec string, listings ListingFetcher, alerts AlertLister, n *Normalizer, notify func(AlertMatch), logger *utils.Logger) *AlertWatcher {
	return &AlertWatcher{
		cron:       cron.New(),
		spec:       spec,
		listings:   listings,
		alerts:     alerts,
		normalizer: n,
		notify:     notify,
		logger:     logger,
		seen:       utils.NewSeen[matchKey](maxRememberedMatches),
	}
}

// Start registers the job and starts the scheduler. One check runs
// immediately so matches are reported without waiting for the first tick.
func (w *AlertWatcher) Start(ctx context.Context) error {
	_, err := w.cron.AddFunc(w.spec, func() {
		w.run(ctx)
	})
	if err != nil {
		return fmt.Errorf("alert watcher: schedule %q: %w", w.spec, err)
	}

	w.cron.Start()
	w.logger.Info("alert watcher started", "spec", w.spec)

	w.initial.Add(1)
	go func() {
		defer w.initial.Done()
		w.run(ctx)
	}()
	return nil
}

// Stop halts the scheduler and waits for running checks, including the
// initial one, to finish. No notification is delivered after Stop returns.
func (w *AlertWatcher) Stop() {
	<-w.cron.Stop().Done()
	w.initial.Wait()
	w.logger.Info("alert watcher stopped")
}

func (w *AlertWatcher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := w.RunOnce(ctx)
	if err != nil {
		w.logger.Error("alert check failed", "error", err)
		return
	}
	w.logger.Debug("alert check complete", "new_matches", n, "remembered", w.seen.Len())
}

// RunOnce performs a single check and returns the number of new matches.
func (w *AlertWatcher) RunOnce(ctx context.Context) (int, error) {
	alerts, err := w.alerts.ListAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("load alerts: %w", err)
	}

	active := alerts[:0:0]
	for _, a := range alerts {
		if a.ActiveStatus {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return 0, nil
	}

	raw, err := w.listings.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("load listings: %w", err)
	}
	listings := w.normalizer.NormalizeAll(raw)

	w.mu.Lock()
	defer w.mu.Unlock()

	found := 0
	for _, a := range active {
		for _, l := range listings {
			if !AlertMatches(a, l) {
				continue
			}
			if !w.seen.Record(matchKey{alert: a.ID, listing: l.ID}) {
				continue
			}
			found++
			if w.notify != nil {
				w.notify(AlertMatch{Alert: a, Listing: l})
			}
		}
	}
	return found, nil
}
