package parse

import (
	"fmt"
	"testing"

	"github.com/kbraden/ocwatch/internal/backfill"
)

func link(id int, name string) string {
	return fmt.Sprintf(`<a href = "http://www.torn.com/profiles.php?XID=%d">%s</a>`, id, name)
}

func record(text string) backfill.RawRecord {
	return backfill.RawRecord{Text: text, Timestamp: 1700000000}
}

func TestCleanMoney(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1,000,000", 1000000},
		{"$2,500", 2500},
		{"-1,000", 1000},
		{"–500", 500},
		{"0", 0},
		{"garbage", 0},
	}
	for _, c := range cases {
		if got := cleanMoney(c.in); got != c.want {
			t.Errorf("cleanMoney(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestFundsDeposit(t *testing.T) {
	rs := NewFundsParser()
	res := rs.ParseRecord("n1", record(link(123, "Alice")+" deposited $1,000,000."))
	if !res.Matched {
		t.Fatalf("deposit did not match")
	}
	ev, err := DecodeFundsEvent(res.Item)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ev.Action != "deposited" || ev.User.ID != 123 || ev.User.Name != "Alice" || ev.Money != 1000000 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.Target != nil {
		t.Errorf("deposit should have no target: %+v", ev.Target)
	}
}

func TestFundsGivenActingUserIsGiver(t *testing.T) {
	rs := NewFundsParser()
	text := link(5, "Bob") + " was given $500,000 by " + link(123, "Alice") + "."
	res := rs.ParseRecord("n2", record(text))
	if !res.Matched {
		t.Fatalf("given did not match")
	}
	ev, _ := DecodeFundsEvent(res.Item)
	if ev.Action != "gave" {
		t.Errorf("unexpected action: %s", ev.Action)
	}
	// The sentence leads with the recipient; the giver is the acting user
	if ev.User.ID != 123 || ev.User.Name != "Alice" {
		t.Errorf("acting user should be the giver: %+v", ev.User)
	}
	if ev.Target == nil || ev.Target.ID != 5 || ev.Target.Name != "Bob" {
		t.Errorf("target should be the recipient: %+v", ev.Target)
	}
	if ev.Money != 500000 {
		t.Errorf("unexpected money: %d", ev.Money)
	}
}

func TestFundsCrimeCutBeatsGenericIncrease(t *testing.T) {
	rs := NewFundsParser()
	text := link(7, "Boss") + " increased " + link(9, "Carl") +
		"'s money balance by $2,500,000 from $100 to $2,500,100 as their 22.50% cut " +
		"for their role as Muscle in the faction's Break The Bank scenario. " +
		`<a href = "https://www.torn.com/factions.php?step=your#/tab=crimes&crimeId=4821">View crime</a>`
	res := rs.ParseRecord("n3", record(text))
	if !res.Matched {
		t.Fatalf("crime cut did not match")
	}
	ev, _ := DecodeFundsEvent(res.Item)
	if ev.Action != "crime_cut" {
		t.Fatalf("generic increase matched before crime cut: %s", ev.Action)
	}
	if ev.Money != 2500000 {
		t.Errorf("unexpected money: %d", ev.Money)
	}
	if ev.OldBalance == nil || *ev.OldBalance != 100 || ev.NewBalance == nil || *ev.NewBalance != 2500100 {
		t.Errorf("unexpected balances: %+v", ev)
	}
	cs := ev.CrimeScenario
	if cs == nil {
		t.Fatal("crime scenario missing")
	}
	if cs.CrimeID != 4821 || cs.Scenario != "Break The Bank" || cs.Role != "Muscle" || cs.Percentage != 22.5 {
		t.Errorf("unexpected scenario: %+v", cs)
	}
}

func TestFundsBalanceAdjustments(t *testing.T) {
	rs := NewFundsParser()

	inc := link(7, "Boss") + " increased " + link(9, "Carl") + "'s money balance by $1,000 from $0 to $1,000."
	res := rs.ParseRecord("n4", record(inc))
	if !res.Matched {
		t.Fatalf("increase did not match")
	}
	ev, _ := DecodeFundsEvent(res.Item)
	if ev.Action != "increased" || ev.User.ID != 7 || ev.Target.ID != 9 {
		t.Errorf("unexpected increase event: %+v", ev)
	}

	dec := link(7, "Boss") + " decreased " + link(9, "Carl") + "'s money balance by $250 from $1,000 to $750."
	res = rs.ParseRecord("n5", record(dec))
	if !res.Matched {
		t.Fatalf("decrease did not match")
	}
	ev, _ = DecodeFundsEvent(res.Item)
	if ev.Action != "decreased" || ev.Money != 250 {
		t.Errorf("unexpected decrease event: %+v", ev)
	}
	if *ev.OldBalance != 1000 || *ev.NewBalance != 750 {
		t.Errorf("unexpected balances: %d -> %d", *ev.OldBalance, *ev.NewBalance)
	}
}

func TestFundsPaid(t *testing.T) {
	rs := NewFundsParser()
	text := link(9, "Carl") + " was paid $100,000 for a total of $350,000 from the faction by " + link(7, "Boss") + "."
	res := rs.ParseRecord("n6", record(text))
	if !res.Matched {
		t.Fatalf("paid did not match")
	}
	ev, _ := DecodeFundsEvent(res.Item)
	if ev.Action != "paid" || ev.User.ID != 7 || ev.Target.ID != 9 {
		t.Errorf("unexpected paid event: %+v", ev)
	}
	if ev.Money != 100000 || ev.NewBalance == nil || *ev.NewBalance != 350000 {
		t.Errorf("unexpected amounts: %+v", ev)
	}
}

func TestFundsUnmatchedKeepsRaw(t *testing.T) {
	rs := NewFundsParser()
	res := rs.ParseRecord("n7", record("something the patterns have never seen"))
	if res.Matched {
		t.Fatal("garbage text matched a pattern")
	}
	if res.Raw != "something the patterns have never seen" {
		t.Errorf("raw text not preserved: %q", res.Raw)
	}
}

func TestArmoryActions(t *testing.T) {
	rs := NewArmoryParser()
	cases := []struct {
		text     string
		action   string
		item     string
		quantity int
		target   int
	}{
		{link(1, "Alice") + " used one of the faction's Morphine items.", "used", "Morphine", 1, 0},
		{link(1, "Alice") + " filled one of the faction's Empty Blood Bag items.", "filled", "Empty Blood Bag", 1, 0},
		{link(1, "Alice") + " deposited 5x Xanax in the faction armoury.", "deposited", "Xanax", 5, 0},
		{link(2, "Bob") + " took 2x First Aid Kit from the faction armoury.", "took", "First Aid Kit", 2, 0},
		{link(1, "Alice") + " gave 3x Flak Vest to " + link(2, "Bob") + ".", "gave", "Flak Vest", 3, 2},
		{link(1, "Alice") + " loaned 1x Dual Samurai Swords to " + link(2, "Bob") + ".", "loaned", "Dual Samurai Swords", 1, 2},
		{link(2, "Bob") + " returned 1x Dual Samurai Swords to the faction armoury.", "returned", "Dual Samurai Swords", 1, 0},
	}
	for _, c := range cases {
		res := rs.ParseRecord("a1", record(c.text))
		if !res.Matched {
			t.Errorf("%s: did not match %q", c.action, c.text)
			continue
		}
		ev, err := DecodeArmoryEvent(res.Item)
		if err != nil {
			t.Errorf("%s: decode failed: %v", c.action, err)
			continue
		}
		if ev.Action != c.action {
			t.Errorf("expected action %s, got %s for %q", c.action, ev.Action, c.text)
		}
		if ev.Item.Name != c.item || ev.Item.Quantity != c.quantity {
			t.Errorf("%s: unexpected item %+v", c.action, ev.Item)
		}
		if c.target == 0 && ev.Target != nil {
			t.Errorf("%s: unexpected target %+v", c.action, ev.Target)
		}
		if c.target != 0 && (ev.Target == nil || ev.Target.ID != c.target) {
			t.Errorf("%s: missing or wrong target: %+v", c.action, ev.Target)
		}
	}
}

func TestArmoryQuantityWithSeparators(t *testing.T) {
	rs := NewArmoryParser()
	res := rs.ParseRecord("a2", record(link(1, "Alice")+" deposited 1,500x Bottle of Beer in the faction armoury."))
	if !res.Matched {
		t.Fatal("large deposit did not match")
	}
	ev, _ := DecodeArmoryEvent(res.Item)
	if ev.Item.Quantity != 1500 || ev.Item.Name != "Bottle of Beer" {
		t.Errorf("unexpected item: %+v", ev.Item)
	}
}

func TestParsePageDropsUnmatched(t *testing.T) {
	rs := NewFundsParser()
	page := backfill.Page{
		"good": {Text: link(1, "Alice") + " deposited $100.", Timestamp: 10},
		"junk": {Text: "no pattern recognizes this", Timestamp: 11},
	}
	items := rs.ParsePage(page)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ID != "good" || items[0].Timestamp != 10 {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestParsedItemKeepsRecordIdentity(t *testing.T) {
	rs := NewArmoryParser()
	rec := backfill.RawRecord{Text: link(1, "Alice") + " used one of the faction's Morphine items.", Timestamp: 1699999999}
	res := rs.ParseRecord("news-abc", rec)
	if !res.Matched {
		t.Fatal("did not match")
	}
	if res.Item.ID != "news-abc" || res.Item.Timestamp != 1699999999 {
		t.Errorf("identity not carried: %+v", res.Item)
	}
	ev, _ := DecodeArmoryEvent(res.Item)
	if ev.News != rec.Text {
		t.Errorf("original text not embedded in payload")
	}
}
