package torn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const membersTTL = 5 * time.Minute

// Member is one faction roster entry.
type Member struct {
	Name          string       `json:"name"`
	Level         int          `json:"level"`
	Position      string       `json:"position"`
	DaysInFaction int          `json:"days_in_faction"`
	LastAction    LastAction   `json:"last_action"`
	Status        MemberStatus `json:"status"`
}

// LastAction describes when a member was last seen.
type LastAction struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Relative  string `json:"relative"`
}

// MemberStatus is the member's current in-game state.
type MemberStatus struct {
	Description string `json:"description"`
	State       string `json:"state"`
	Until       int64  `json:"until"`
}

type memberEntry struct {
	fetched time.Time
	members map[string]Member
}

// Members returns the faction roster keyed by player ID, refreshing at most
// once per TTL window per faction.
func (c *Client) Members(ctx context.Context, factionID string) (map[string]Member, error) {
	c.membersMu.Lock()
	if e, ok := c.members[factionID]; ok && c.now().Sub(e.fetched) < membersTTL {
		c.membersMu.Unlock()
		return e.members, nil
	}
	c.membersMu.Unlock()

	q := url.Values{}
	q.Set("selections", "basic")
	q.Set("comment", "ocwatch_members")

	body, err := c.get(ctx, fmt.Sprintf("%s/faction/%s?%s", c.base, url.PathEscape(factionID), q.Encode()))
	if err != nil {
		return nil, err
	}

	envelope := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("torn: failed to parse members response: %w", err)
	}
	if raw, ok := envelope["error"]; ok {
		return nil, decodeError(raw, "basic")
	}

	members := make(map[string]Member)
	if raw, ok := envelope["members"]; ok {
		if err := json.Unmarshal(raw, &members); err != nil {
			return nil, fmt.Errorf("torn: failed to parse member list: %w", err)
		}
	}

	c.membersMu.Lock()
	c.members[factionID] = memberEntry{fetched: c.now(), members: members}
	c.membersMu.Unlock()
	return members, nil
}
