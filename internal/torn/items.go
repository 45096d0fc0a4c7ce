package torn

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbraden/ocwatch/internal/logging"
)

const itemsTTL = 24 * time.Hour

// ItemInfo describes one catalog item.
type ItemInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// fallbackItems covers the items that show up constantly in armoury logs,
// so log rendering degrades gracefully when the catalog call fails.
var fallbackItems = map[string]ItemInfo{
	"66":   {Name: "Morphine", Type: "Medical"},
	"67":   {Name: "First Aid Kit", Type: "Medical"},
	"68":   {Name: "Small First Aid Kit", Type: "Medical"},
	"180":  {Name: "Bottle of Beer", Type: "Alcohol"},
	"206":  {Name: "Xanax", Type: "Drug"},
	"365":  {Name: "Empty Blood Bag", Type: "Medical"},
	"1012": {Name: "Flak Vest", Type: "Defensive"},
}

// Items returns the Torn item catalog keyed by item ID. The result is held
// for a day; on upstream failure a static subset is returned instead of an
// error so callers can keep rendering.
func (c *Client) Items(ctx context.Context) (map[string]ItemInfo, error) {
	c.itemsMu.Lock()
	if c.items != nil && c.now().Sub(c.itemsFetched) < itemsTTL {
		items := c.items
		c.itemsMu.Unlock()
		return items, nil
	}
	c.itemsMu.Unlock()

	body, err := c.get(ctx, fmt.Sprintf("%s/torn/?selections=items&comment=ocwatch_items", c.base))
	if err != nil {
		logging.Warn("item catalog fetch failed, using fallback table", "error", err)
		return fallbackItems, nil
	}

	envelope := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("torn: failed to parse items response: %w", err)
	}
	if raw, ok := envelope["error"]; ok {
		if err := decodeError(raw, "items"); err != nil {
			logging.Warn("item catalog denied, using fallback table", "error", err)
			return fallbackItems, nil
		}
	}

	items := make(map[string]ItemInfo)
	if raw, ok := envelope["items"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("torn: failed to parse item catalog: %w", err)
		}
	}

	c.itemsMu.Lock()
	c.items = items
	c.itemsFetched = c.now()
	c.itemsMu.Unlock()
	return items, nil
}
