package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/feeds"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()

	fmt.Printf("Database: %s\n\n", cfg.DBPath)
	fmt.Println(headerStyle.Render("feed histories"))
	for _, f := range feeds.All() {
		items, err := backfill.LoadHistory(store, f.Name)
		if err != nil {
			log.Fatalf("failed to load %s history: %v", f.Name, err)
		}
		if len(items) == 0 {
			fmt.Printf("  %-8s empty\n", f.Name)
			continue
		}
		backfill.SortDesc(items)
		newest := items[0].Timestamp
		oldest := items[len(items)-1].Timestamp
		span := time.Unix(newest, 0).Sub(time.Unix(oldest, 0))
		fmt.Printf("  %-8s %5d items, %s to %s (%.1f days)\n",
			f.Name, len(items), formatTime(oldest), formatTime(newest), span.Hours()/24)
	}

	keys, err := store.Keys()
	if err != nil {
		log.Fatalf("failed to list keys: %v", err)
	}
	cached := 0
	for _, k := range keys {
		if strings.HasPrefix(k, "api_cache_") {
			cached++
		}
	}
	fmt.Printf("\nCached pages: %d\n", cached)
}
