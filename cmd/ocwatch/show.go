package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/feedcache"
	"github.com/kbraden/ocwatch/internal/feeds"
)

func runShow() {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	feedName := fs.String("feed", "armory", "Feed to show: armory or funds")
	limit := fs.Int("limit", 25, "Maximum rows to print")
	offline := fs.Bool("offline", false, "Skip the live fetch, show persisted history only")
	fs.Parse(os.Args[1:])

	f, err := feeds.ByName(*feedName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	historical, err := backfill.LoadHistory(store, f.Name)
	if err != nil {
		log.Fatalf("failed to load history: %v", err)
	}

	var live []backfill.Item
	if !*offline {
		faction := requireFaction(cfg)
		client := newClient(cfg)
		cache := feedcache.New(store)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		fetch := feeds.FetchFunc(client, cache, f)
		page, err := fetch(ctx, faction, nil, true)
		if err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render("live fetch failed, showing persisted history only: "+err.Error()))
		} else {
			live = f.Parser.ParsePage(page)
		}
	}

	merged := backfill.Merge(historical, live)
	backfill.SortDesc(merged)
	if len(merged) > *limit {
		merged = merged[:*limit]
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%d of %d entries, live %d)", f.Name, len(merged), len(historical)+len(live), len(live))))
	for _, it := range merged {
		fmt.Printf("%s  %s\n", dimStyle.Render(formatTime(it.Timestamp)), truncate(describe(f, it), 100))
	}
	if len(merged) == 0 {
		fmt.Println(dimStyle.Render("no entries; run 'ocwatch backfill' first"))
	}
}
