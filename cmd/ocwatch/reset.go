package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/feedcache"
	"github.com/kbraden/ocwatch/internal/feeds"
)

func runReset() {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	feedName := fs.String("feed", "", "Feed to reset: armory or funds")
	all := fs.Bool("all", false, "Reset every feed and the whole response cache")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.Parse(os.Args[1:])

	if *feedName == "" && !*all {
		fmt.Fprintln(os.Stderr, "error: pass --feed <name> or --all")
		os.Exit(1)
	}

	cfg := loadConfig()
	store := openStore(cfg)
	defer store.Close()
	cache := feedcache.New(store)

	what := "feed " + *feedName
	if *all {
		what = "all feeds and the response cache"
	}
	if !*yes {
		fmt.Printf("Delete persisted history for %s? [y/N] ", what)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	if *all {
		for _, f := range feeds.All() {
			if err := backfill.ClearHistory(store, f.Name); err != nil {
				log.Fatalf("failed to clear %s history: %v", f.Name, err)
			}
		}
		if err := cache.ClearAll(); err != nil {
			log.Fatalf("failed to clear response cache: %v", err)
		}
		fmt.Println("All feed history and cached pages deleted.")
		return
	}

	f, err := feeds.ByName(*feedName)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := backfill.ClearHistory(store, f.Name); err != nil {
		log.Fatalf("failed to clear history: %v", err)
	}
	if err := cache.ClearCategory(f.Name); err != nil {
		log.Fatalf("failed to clear cached pages: %v", err)
	}
	fmt.Printf("History and cached pages for %s deleted.\n", f.Name)
}
