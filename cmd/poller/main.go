// Command poller runs the Feed Poller as a long-lived process, polling
// every configured realtime feed on a fixed interval until terminated.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/transitfusion/fusion_core/internal/cache"
	"github.com/transitfusion/fusion_core/internal/config"
	"github.com/transitfusion/fusion_core/internal/feed"
)

func main() {
	cfg := config.Load()

	if len(cfg.FeedURLs) == 0 {
		log.Fatal("no feed urls configured; set FEED_URLS")
	}

	redisCfg := cache.LoadRedisConfigFromEnv()
	arrivalsCache := cache.NewRedisCache(redisCfg)
	defer arrivalsCache.Close()

	sources := make([]feed.Source, 0, len(cfg.FeedURLs))
	for _, url := range cfg.FeedURLs {
		sources = append(sources, feed.Source{URL: url, Headers: cfg.FeedHeaders})
	}

	poller := feed.NewPoller(feed.Config{
		Sources:      sources,
		PollInterval: cfg.FeedPollInterval,
		FetchTimeout: cfg.FeedFetchTimeout,
		Backoff:      cfg.PollerBackoff,
	}, arrivalsCache)

	log.Printf("starting feed poller: %d sources, interval %s", len(sources), cfg.FeedPollInterval)
	poller.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down feed poller")
	poller.Stop()
}
