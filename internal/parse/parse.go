// Package parse converts raw feed pages into canonical items.
//
// Each feed category supplies an ordered set of pattern matchers over the
// upstream's marked-up log text; the first matching pattern wins. Records
// matching no pattern are reported as unmatched and skipped — they never
// abort a page.
package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kbraden/ocwatch/internal/backfill"
	"github.com/kbraden/ocwatch/internal/logging"
)

// Result is the outcome of parsing one raw record: either a canonical item
// or the unmatched raw text kept for diagnostics.
type Result struct {
	Matched bool
	Item    backfill.Item
	Raw     string
}

// Matched wraps a successfully parsed item.
func Matched(item backfill.Item) Result {
	return Result{Matched: true, Item: item}
}

// Unmatched records text that no pattern recognized.
func Unmatched(raw string) Result {
	return Result{Raw: raw}
}

// rule is one pattern matcher. build receives the record identity and the
// regexp submatches and returns the canonical item.
type rule struct {
	name  string
	re    *regexp.Regexp
	build func(id string, rec backfill.RawRecord, m []string) backfill.Item
}

// Ruleset is a feed parser backed by an ordered rule list.
type Ruleset struct {
	feed  string
	rules []rule
}

// ParseRecord tries each rule in priority order against one record.
func (rs *Ruleset) ParseRecord(id string, rec backfill.RawRecord) Result {
	for _, r := range rs.rules {
		if m := r.re.FindStringSubmatch(rec.Text); m != nil {
			return Matched(r.build(id, rec, m))
		}
	}
	return Unmatched(rec.Text)
}

// ParsePage implements backfill.Parser. Unmatched records are logged and
// dropped.
func (rs *Ruleset) ParsePage(p backfill.Page) []backfill.Item {
	items := make([]backfill.Item, 0, len(p))
	for id, rec := range p {
		res := rs.ParseRecord(id, rec)
		if !res.Matched {
			logging.Debug("unparsed record", "feed", rs.feed, "id", id, "text", res.Raw)
			continue
		}
		items = append(items, res.Item)
	}
	return items
}

// Actor is a player reference extracted from a profile link.
type Actor struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// userLink matches the profile anchors embedded in log text; group 1 is the
// player ID, group 2 the display name.
const userLink = `<a[^>]*XID=(\d+)[^>]*>([^<]+)</a>`

// cleanMoney strips currency symbols, thousands separators and a leading
// minus before numeric parsing. The action verb carries directionality, not
// the sign. The en dash shows up in negative balance renderings.
func cleanMoney(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.TrimLeft(s, "-–")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
