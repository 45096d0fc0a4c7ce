package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
)

func runMembers() {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	faction := requireFaction(cfg)
	client := newClient(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	members, err := client.Members(ctx, faction)
	if err != nil {
		log.Fatalf("failed to fetch roster: %v", err)
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return members[ids[i]].Name < members[ids[j]].Name
	})

	fmt.Println(headerStyle.Render(fmt.Sprintf("faction %s — %d members", faction, len(members))))
	fmt.Printf("%-20s %5s  %-16s %5s  %-12s %s\n", "NAME", "LVL", "POSITION", "DAYS", "LAST SEEN", "STATUS")
	for _, id := range ids {
		m := members[id]
		fmt.Printf("%-20s %5d  %-16s %5d  %-12s %s\n",
			truncate(m.Name, 20), m.Level, truncate(m.Position, 16), m.DaysInFaction,
			truncate(m.LastAction.Relative, 12), truncate(m.Status.Description, 40))
	}
}
