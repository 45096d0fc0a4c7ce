package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/logging"
)

// FundsEvent is the canonical payload for one faction funds log entry.
type FundsEvent struct {
	User   Actor  `json:"user"`
	Action string `json:"action"` // deposited, gave, crime_cut, increased, decreased, paid
	Target *Actor `json:"target,omitempty"`
	Money  int64  `json:"money"`
	// Balances are only present for balance-adjustment entries
	OldBalance *int64 `json:"old_balance,omitempty"`
	NewBalance *int64 `json:"new_balance,omitempty"`
	// CrimeScenario is only present for organized-crime cut payouts
	CrimeScenario *CrimeScenario `json:"crime_scenario,omitempty"`
	News          string         `json:"news"`
}

// CrimeScenario is the reward-breakdown attached to a crime cut entry.
type CrimeScenario struct {
	CrimeID    int     `json:"crime_id"`
	Scenario   string  `json:"scenario"`
	Role       string  `json:"role"`
	Percentage float64 `json:"percentage"`
}

var (
	fundsDeposit = regexp.MustCompile(`(?i)` + userLink + `\s+deposited\s+\$([0-9,]+)`)
	fundsGiven   = regexp.MustCompile(`(?i)` + userLink + `\s+was given\s+\$([0-9,]+)\s+by\s+` + userLink)
	fundsCrimeCut = regexp.MustCompile(`(?is)` + userLink + `\s+increased\s+` + userLink +
		`.*?money balance\s+by\s+\$([0-9,]+)\s+from\s+\$([0-9,\-–]+)\s+to\s+\$([0-9,\-–]+)\s+as\s+their\s+([\d\.]+)%\s+cut\s+for\s+their\s+role\s+as\s+([^<]+?)\s+in\s+the\s+faction's\s+([^<]+?)\s+scenario.*?crimeId=(\d+)`)
	fundsIncreased = regexp.MustCompile(`(?is)` + userLink + `\s+increased\s+` + userLink +
		`.*?money balance\s+by\s+\$([0-9,]+)\s+from\s+\$([0-9,\-–]+)\s+to\s+\$([0-9,\-–]+)`)
	fundsDecreased = regexp.MustCompile(`(?is)` + userLink + `\s+decreased\s+` + userLink +
		`.*?money balance\s+by\s+\$([0-9,]+)\s+from\s+\$([0-9,\-–]+)\s+to\s+\$([0-9,\-–]+)`)
	fundsPaid = regexp.MustCompile(`(?i)` + userLink + `\s+was paid\s+\$([0-9,]+)\s+for a total of\s+\$([0-9,]+)\s+from the faction by\s+` + userLink)
)

// NewFundsParser builds the parser for the faction funds news feed.
// Pattern priority matters: the crime-cut pattern is a stricter form of the
// generic increase and must be tried first.
func NewFundsParser() *Ruleset {
	return &Ruleset{
		feed: "funds",
		rules: []rule{
			{
				name: "deposited",
				re:   fundsDeposit,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return fundsItem(id, rec, FundsEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "deposited",
						Money:  cleanMoney(m[3]),
					})
				},
			},
			{
				name: "gave",
				re:   fundsGiven,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					// "A was given $x by B": B is the acting user
					return fundsItem(id, rec, FundsEvent{
						User:   Actor{ID: atoi(m[4]), Name: m[5]},
						Action: "gave",
						Target: &Actor{ID: atoi(m[1]), Name: m[2]},
						Money:  cleanMoney(m[3]),
					})
				},
			},
			{
				name: "crime_cut",
				re:   fundsCrimeCut,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					oldBal, newBal := cleanMoney(m[6]), cleanMoney(m[7])
					return fundsItem(id, rec, FundsEvent{
						User:       Actor{ID: atoi(m[1]), Name: m[2]},
						Action:     "crime_cut",
						Target:     &Actor{ID: atoi(m[3]), Name: m[4]},
						Money:      cleanMoney(m[5]),
						OldBalance: &oldBal,
						NewBalance: &newBal,
						CrimeScenario: &CrimeScenario{
							CrimeID:    atoi(m[11]),
							Scenario:   strings.TrimSpace(m[10]),
							Role:       strings.TrimSpace(m[9]),
							Percentage: atof(m[8]),
						},
					})
				},
			},
			{
				name: "increased",
				re:   fundsIncreased,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					oldBal, newBal := cleanMoney(m[6]), cleanMoney(m[7])
					return fundsItem(id, rec, FundsEvent{
						User:       Actor{ID: atoi(m[1]), Name: m[2]},
						Action:     "increased",
						Target:     &Actor{ID: atoi(m[3]), Name: m[4]},
						Money:      cleanMoney(m[5]),
						OldBalance: &oldBal,
						NewBalance: &newBal,
					})
				},
			},
			{
				name: "decreased",
				re:   fundsDecreased,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					oldBal, newBal := cleanMoney(m[6]), cleanMoney(m[7])
					return fundsItem(id, rec, FundsEvent{
						User:       Actor{ID: atoi(m[1]), Name: m[2]},
						Action:     "decreased",
						Target:     &Actor{ID: atoi(m[3]), Name: m[4]},
						Money:      cleanMoney(m[5]),
						OldBalance: &oldBal,
						NewBalance: &newBal,
					})
				},
			},
			{
				name: "paid",
				re:   fundsPaid,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					newBal := cleanMoney(m[4])
					// "A was paid $x ... by B": B is the acting user
					return fundsItem(id, rec, FundsEvent{
						User:       Actor{ID: atoi(m[5]), Name: m[6]},
						Action:     "paid",
						Target:     &Actor{ID: atoi(m[1]), Name: m[2]},
						Money:      cleanMoney(m[3]),
						NewBalance: &newBal,
					})
				},
			},
		},
	}
}

func fundsItem(id string, rec backfill.RawRecord, ev FundsEvent) backfill.Item {
	ev.News = rec.Text
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Warn("funds payload marshal failed", "id", id, "error", err)
	}
	return backfill.Item{ID: id, Timestamp: rec.Timestamp, Payload: payload}
}

// DecodeFundsEvent unmarshals an item payload produced by the funds parser.
func DecodeFundsEvent(item backfill.Item) (FundsEvent, error) {
	var ev FundsEvent
	err := json.Unmarshal(item.Payload, &ev)
	return ev, err
}
