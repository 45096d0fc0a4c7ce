package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/feedcache"
	"github.com/kbraden/ocwatch/internal/feeds"
	"github.com/kbraden/ocwatch/internal/torn"
)

func runBackfill() {
	fs := flag.NewFlagSet("backfill", flag.ExitOnError)
	feedName := fs.String("feed", "all", "Feed to backfill: armory, funds or all")
	maxCount := fs.Int("max", 0, "Target item count (0 = config default)")
	delay := fs.Int("delay", -1, "Seconds between page fetches (-1 = config default)")
	rpm := fs.Int("rpm", 0, "Request budget per minute (0 = config default)")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	faction := requireFaction(cfg)
	client := newClient(cfg)
	store := openStore(cfg)
	defer store.Close()
	cache := feedcache.New(store)

	opts := backfill.Options{
		MaxCount:          cfg.Backfill.MaxCount,
		Delay:             cfg.Backfill.Delay(),
		RequestsPerMinute: cfg.Backfill.RequestsPerMinute,
	}
	if *maxCount > 0 {
		opts.MaxCount = *maxCount
	}
	if *delay >= 0 {
		opts.Delay = time.Duration(*delay) * time.Second
	}
	if *rpm > 0 {
		opts.RequestsPerMinute = *rpm
	}

	var selected []feeds.Feed
	if *feedName == "all" {
		selected = feeds.All()
	} else {
		f, err := feeds.ByName(*feedName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		selected = []feeds.Feed{f}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Printf("Backfilling faction %s (target %d items per feed)\n", faction, opts.MaxCount)
	fmt.Println("Ctrl+C to stop; persisted progress survives and re-running resumes from cache.")
	fmt.Println()

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range selected {
		g.Go(func() error {
			e := backfill.New(f.Name, feeds.FetchFunc(client, cache, f), f.Parser, store)
			e.OnProgress(func(p backfill.Progress) {
				fmt.Printf("%s: %d/%d items (%d requests)\n", f.Name, p.Current, p.Max, p.Requests)
			})
			items, err := e.Run(ctx, faction, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
			fmt.Printf("%s: done, %d items persisted\n", f.Name, len(items))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Println(warnStyle.Render("interrupted; partial progress saved"))
		case errors.Is(err, torn.ErrAccessDenied):
			fmt.Fprintln(os.Stderr, warnStyle.Render(err.Error()))
			fmt.Fprintln(os.Stderr, "  the configured API key cannot read this feed")
			os.Exit(1)
		default:
			log.Fatalf("backfill failed: %v", err)
		}
	}
}
