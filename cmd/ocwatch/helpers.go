package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/config"
	"github.com/kbraden/ocwatch/internal/feeds"
	"github.com/kbraden/ocwatch/internal/kv"
	"github.com/kbraden/ocwatch/internal/parse"
	"github.com/kbraden/ocwatch/internal/torn"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// loadConfig loads the configuration or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// openStore opens the sqlite kv store or fatals.
func openStore(cfg *config.Config) *kv.SQLite {
	store, err := kv.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database %s: %v", cfg.DBPath, err)
	}
	return store
}

// newClient builds an API client or fatals when no key is configured.
func newClient(cfg *config.Config) *torn.Client {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "error: no API key configured")
		fmt.Fprintln(os.Stderr, "  set OCWATCH_API_KEY or TORN_API_KEY, or add api_key to "+config.ConfigPath())
		os.Exit(1)
	}
	return torn.NewClient(cfg.APIKey)
}

// requireFaction returns the configured faction ID or fatals.
func requireFaction(cfg *config.Config) string {
	if cfg.FactionID == "" {
		fmt.Fprintln(os.Stderr, "error: no faction configured")
		fmt.Fprintln(os.Stderr, "  set OCWATCH_FACTION_ID or add faction_id to "+config.ConfigPath())
		os.Exit(1)
	}
	return cfg.FactionID
}

// formatTime renders a unix timestamp for table output.
func formatTime(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04")
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// comma renders n with thousands separators.
func comma(n int64) string {
	s := fmt.Sprintf("%d", n)
	out := ""
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += ","
		}
		out += string(r)
	}
	return out
}

// describe renders one parsed item as a single display line.
func describe(f feeds.Feed, it backfill.Item) string {
	switch f.Name {
	case "armory":
		ev, err := parse.DecodeArmoryEvent(it)
		if err != nil {
			return it.ID
		}
		s := fmt.Sprintf("%s %s %dx %s", ev.User.Name, ev.Action, ev.Item.Quantity, ev.Item.Name)
		if ev.Target != nil {
			s += " to " + ev.Target.Name
		}
		return s
	case "funds":
		ev, err := parse.DecodeFundsEvent(it)
		if err != nil {
			return it.ID
		}
		s := fmt.Sprintf("%s %s $%s", ev.User.Name, ev.Action, comma(ev.Money))
		if ev.Target != nil {
			s += " (" + ev.Target.Name + ")"
		}
		if ev.CrimeScenario != nil {
			s += fmt.Sprintf(" [%s, %s %.1f%%]", ev.CrimeScenario.Scenario, ev.CrimeScenario.Role, ev.CrimeScenario.Percentage)
		}
		return s
	default:
		return it.ID
	}
}
