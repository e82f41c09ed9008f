package ws

import (
	"log/slog"
	"sync"
)

// Hub is the group registry: an in-memory mapping from group key to the set
// of live connections joined to it. One instance per process, injected into
// every handler. Membership changes and send snapshots are serialized by a
// single lock, so a send started after a join always observes the new member.
type Hub struct {
	mu          sync.RWMutex
	groups      map[string]map[*Client]struct{}
	memberships map[*Client]map[string]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		groups:      make(map[string]map[*Client]struct{}),
		memberships: make(map[*Client]map[string]struct{}),
	}
}

// Join adds a connection to a group. Idempotent; a connection may belong to
// any number of groups.
func (h *Hub) Join(groupKey string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[groupKey]; !ok {
		h.groups[groupKey] = make(map[*Client]struct{})
	}
	h.groups[groupKey][client] = struct{}{}
	if _, ok := h.memberships[client]; !ok {
		h.memberships[client] = make(map[string]struct{})
	}
	h.memberships[client][groupKey] = struct{}{}
}

// Leave removes a connection from a group. Removing a non-member is a no-op.
func (h *Hub) Leave(groupKey string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(groupKey, client)
}

// DisconnectAll removes a connection from every group it is in. Idempotent;
// called during connection teardown and when a delivery fails.
func (h *Hub) DisconnectAll(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for groupKey := range h.memberships[client] {
		h.removeLocked(groupKey, client)
	}
}

func (h *Hub) removeLocked(groupKey string, client *Client) {
	if members, ok := h.groups[groupKey]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.groups, groupKey)
		}
	}
	if joined, ok := h.memberships[client]; ok {
		delete(joined, groupKey)
		if len(joined) == 0 {
			delete(h.memberships, client)
		}
	}
}

// Send delivers payload to every connection currently in the group,
// best-effort per connection. A member whose outbound queue is full is
// dropped and evicted from every group, as if it had disconnected; the other
// members still get the payload.
func (h *Hub) Send(groupKey string, payload []byte) (delivered, dropped int) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.groups[groupKey]))
	for client := range h.groups[groupKey] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	var failed []*Client
	for _, client := range members {
		select {
		case <-client.done:
			dropped++
		default:
			select {
			case client.send <- payload:
				delivered++
			default:
				dropped++
				failed = append(failed, client)
			}
		}
	}

	for _, client := range failed {
		slog.Warn("websocket delivery failed, evicting connection",
			"group", groupKey, "conn_id", client.info.ConnID, "user_id", client.info.UserID)
		h.DisconnectAll(client)
		client.shutdown()
	}
	return delivered, dropped
}

// GroupSize reports current membership; used by handlers for logging and by
// tests.
func (h *Hub) GroupSize(groupKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupKey])
}
