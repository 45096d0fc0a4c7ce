// Command ocwatch backfills and inspects Torn faction news feeds.
//
// Usage:
//
//	ocwatch                 Show help
//	ocwatch backfill        Walk a news feed backward and persist its history
//	ocwatch show            Render persisted history merged with the live page
//	ocwatch members         Live faction roster
//	ocwatch reset           Delete persisted history and cached pages
//	ocwatch stats           Per-feed history counts and age span
package main

import (
	"fmt"
	"os"

	"github.com/kbraden/ocwatch/internal/logging"
)

const usage = `ocwatch — Torn faction log watcher

Usage:
  ocwatch <command> [flags]

Commands:
  backfill    Walk a faction news feed backward and persist its history
  show        Render persisted history merged with the live latest page
  members     Live faction roster
  reset       Delete persisted history and cached pages
  stats       Per-feed history counts and age span

Environment:
  OCWATCH_API_KEY / TORN_API_KEY   Torn API key
  OCWATCH_FACTION_ID               Faction to watch
  OCWATCH_DB                       SQLite path (default ~/.ocwatch/ocwatch.db)

Run 'ocwatch <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	if err := logging.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
	}
	defer logging.Close()

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "backfill":
		runBackfill()
	case "show":
		runShow()
	case "members":
		runMembers()
	case "reset":
		runReset()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "ocwatch: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
