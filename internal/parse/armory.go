package parse

import (
	"encoding/json"
	"regexp"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/logging"
)

// ArmoryEvent is the canonical payload for one faction armoury log entry.
type ArmoryEvent struct {
	User   Actor   `json:"user"`
	Action string  `json:"action"` // used, deposited, took, gave, loaned, returned, filled
	Item   ItemRef `json:"item"`
	Target *Actor  `json:"target,omitempty"`
	News   string  `json:"news"`
}

// ItemRef names an armoury item and how many of it the entry covers.
type ItemRef struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

var (
	armoryUsed      = regexp.MustCompile(`(?i)` + userLink + `\s+used one of the faction's\s+(.+?)\s+items`)
	armoryFilled    = regexp.MustCompile(`(?i)` + userLink + `\s+filled one of the faction's\s+(.+?)\s+items`)
	armoryGave      = regexp.MustCompile(`(?i)` + userLink + `\s+gave\s+([0-9,]+)x?\s+(.+?)\s+to\s+` + userLink)
	armoryDeposited = regexp.MustCompile(`(?i)` + userLink + `\s+deposited\s+([0-9,]+)x?\s+(.+?)(?:\s+in(?:to)? the (?:faction )?armou?ry)?\.?$`)
	armoryTook      = regexp.MustCompile(`(?i)` + userLink + `\s+took\s+([0-9,]+)x?\s+(.+?)(?:\s+from the (?:faction )?armou?ry)?\.?$`)
	armoryLoaned    = regexp.MustCompile(`(?i)` + userLink + `\s+loaned\s+([0-9,]+)x?\s+(.+?)\s+to\s+` + userLink)
	armoryReturned  = regexp.MustCompile(`(?i)` + userLink + `\s+returned\s+([0-9,]+)x?\s+(.+?)(?:\s+to the (?:faction )?armou?ry)?\.?$`)
)

// NewArmoryParser builds the parser for the faction armoury news feed.
// Single-item "used"/"filled" forms come first; the give/loan forms carry a
// trailing recipient link and must precede the bare take/deposit forms.
func NewArmoryParser() *Ruleset {
	return &Ruleset{
		feed: "armory",
		rules: []rule{
			{
				name: "used",
				re:   armoryUsed,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "used",
						Item:   ItemRef{Name: m[3], Quantity: 1},
					})
				},
			},
			{
				name: "filled",
				re:   armoryFilled,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "filled",
						Item:   ItemRef{Name: m[3], Quantity: 1},
					})
				},
			},
			{
				name: "gave",
				re:   armoryGave,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "gave",
						Item:   ItemRef{Name: m[4], Quantity: int(cleanMoney(m[3]))},
						Target: &Actor{ID: atoi(m[5]), Name: m[6]},
					})
				},
			},
			{
				name: "loaned",
				re:   armoryLoaned,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "loaned",
						Item:   ItemRef{Name: m[4], Quantity: int(cleanMoney(m[3]))},
						Target: &Actor{ID: atoi(m[5]), Name: m[6]},
					})
				},
			},
			{
				name: "deposited",
				re:   armoryDeposited,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "deposited",
						Item:   ItemRef{Name: m[4], Quantity: int(cleanMoney(m[3]))},
					})
				},
			},
			{
				name: "took",
				re:   armoryTook,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "took",
						Item:   ItemRef{Name: m[4], Quantity: int(cleanMoney(m[3]))},
					})
				},
			},
			{
				name: "returned",
				re:   armoryReturned,
				build: func(id string, rec backfill.RawRecord, m []string) backfill.Item {
					return armoryItem(id, rec, ArmoryEvent{
						User:   Actor{ID: atoi(m[1]), Name: m[2]},
						Action: "returned",
						Item:   ItemRef{Name: m[4], Quantity: int(cleanMoney(m[3]))},
					})
				},
			},
		},
	}
}

func armoryItem(id string, rec backfill.RawRecord, ev ArmoryEvent) backfill.Item {
	ev.News = rec.Text
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Warn("armory payload marshal failed", "id", id, "error", err)
	}
	return backfill.Item{ID: id, Timestamp: rec.Timestamp, Payload: payload}
}

// DecodeArmoryEvent unmarshals an item payload produced by the armory parser.
func DecodeArmoryEvent(item backfill.Item) (ArmoryEvent, error) {
	var ev ArmoryEvent
	err := json.Unmarshal(item.Payload, &ev)
	return ev, err
}
