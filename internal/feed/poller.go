// Package feed implements the Feed Poller: a perpetual background task
// that fetches realtime GTFS-RT feeds concurrently, derives predictions,
// and writes them through to the arrivals cache.
package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	gtfsrt "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/transitfusion/fusion_core/internal/cache"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/models"
)

// Source is one realtime feed endpoint to poll.
type Source struct {
	URL     string
	Headers map[string]string
}

// Config carries the Feed Poller's tunables.
type Config struct {
	Sources       []Source
	PollInterval  time.Duration
	FetchTimeout  time.Duration
	Backoff       time.Duration
}

// Poller runs the fetch/parse/cache cycle on a ticker until stopped.
type Poller struct {
	cfg    Config
	cache  cache.Cache
	client *http.Client

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewPoller returns a Poller that writes through to arrivalsCache.
func NewPoller(cfg Config, arrivalsCache cache.Cache) *Poller {
	return &Poller{
		cfg:    cfg,
		cache:  arrivalsCache,
		client: &http.Client{},
		stopCh: make(chan struct{}),
	}
}

// Start runs the poll loop in a background goroutine.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()
}

// Stop signals the loop to exit and waits for it to finish. In-flight
// fetches are cancelled via their per-cycle context.
func (p *Poller) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()

	p.runCycle()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.runCycle()
		case <-p.stopCh:
			return
		}
	}
}

// runCycle executes one poll cycle. Errors are logged and absorbed; a
// failed cycle does not stop the loop, but does apply the configured
// backoff before the next tick if the cycle failed entirely.
func (p *Poller) runCycle() {
	t0 := time.Now().Unix()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FetchTimeout)
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	predictions := p.fetchAll(ctx, t0)
	if predictions == nil {
		log.Printf("feed poll cycle at %d: all sources failed, backing off %s", t0, p.cfg.Backoff)
		select {
		case <-time.After(p.cfg.Backoff):
		case <-p.stopCh:
		}
		return
	}

	grouped := groupPredictions(predictions)

	for key, preds := range grouped {
		entry := models.ArrivalsEntry{
			Arrivals: preds,
			AsOfTs:   t0,
			CachedAt: time.Now().Unix(),
		}
		if err := p.cache.Put(ctx, key.baseStopID, key.direction, entry); err != nil {
			log.Printf("feed poll cycle at %d: writing cache entry for %s/%s: %v", t0, key.baseStopID, key.direction, err)
		}
	}

	if err := p.cache.SetFeedUpdate(ctx, t0); err != nil {
		log.Printf("feed poll cycle at %d: recording feed update marker: %v", t0, err)
	}
}

// rawPrediction pairs a derived prediction with its stop_id key pieces,
// before grouping.
type rawPrediction struct {
	baseStopID string
	direction  string
	prediction models.Prediction
}

type groupKey struct {
	baseStopID, direction string
}

func groupPredictions(raws []rawPrediction) map[groupKey][]models.Prediction {
	out := make(map[groupKey][]models.Prediction)
	for _, r := range raws {
		key := groupKey{r.baseStopID, r.direction}
		out[key] = append(out[key], r.prediction)
	}
	return out
}

// fetchAll fetches and decodes every configured source concurrently,
// computing every prediction's eta against the single cycle-start t0.
// Per-feed failures are logged and skipped; returns nil only if every
// source failed.
func (p *Poller) fetchAll(ctx context.Context, t0 int64) []rawPrediction {
	var (
		mu      sync.Mutex
		results []rawPrediction
		wg      sync.WaitGroup
		anyOK   bool
	)

	for _, src := range p.cfg.Sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			preds, err := p.fetchOne(ctx, src, t0)
			if err != nil {
				log.Printf("feed fetch error for %s: %v", src.URL, err)
				return
			}

			mu.Lock()
			results = append(results, preds...)
			anyOK = true
			mu.Unlock()
		}(src)
	}

	wg.Wait()

	if !anyOK {
		return nil
	}
	if results == nil {
		results = []rawPrediction{}
	}
	return results
}

// fetchOne fetches and decodes a single feed, emitting predictions for
// every stop_time_update of every trip_update entity.
func (p *Poller) fetchOne(ctx context.Context, src Source, t0 int64) ([]rawPrediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range src.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	msg := &gtfsrt.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		return nil, err
	}

	var out []rawPrediction
	for _, entity := range msg.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		routeID := tu.GetTrip().GetRouteId()
		headsign := deriveHeadsign(tu)

		for _, stu := range tu.GetStopTimeUpdate() {
			stopID := stu.GetStopId()
			direction := gtfsstatic.Direction(stopID)
			if direction == "" {
				continue
			}
			baseStopID := gtfsstatic.BaseStopID(stopID)

			predictedEpoch, ok := predictedEpoch(stu)
			if !ok {
				continue
			}

			eta := int(predictedEpoch - t0)
			if eta < 0 || eta > 3600 {
				continue
			}

			out = append(out, rawPrediction{
				baseStopID: baseStopID,
				direction:  direction,
				prediction: models.Prediction{
					RouteID:    routeID,
					Headsign:   headsign,
					EtaSeconds: eta,
				},
			})
		}
	}

	return out, nil
}

// predictedEpoch prefers arrival.time, falling back to departure.time.
// Returns false if neither is present.
func predictedEpoch(stu *gtfsrt.TripUpdate_StopTimeUpdate) (int64, bool) {
	if arr := stu.GetArrival(); arr != nil && arr.Time != nil {
		return arr.GetTime(), true
	}
	if dep := stu.GetDeparture(); dep != nil && dep.Time != nil {
		return dep.GetTime(), true
	}
	return 0, false
}

// deriveHeadsign is an opaque, deterministic function of the trip;
// any trip field consistently available across updates satisfies the
// contract. Trip id is used since it's always present.
func deriveHeadsign(tu *gtfsrt.TripUpdate) string {
	return tu.GetTrip().GetTripId()
}
