package core

// Registry maps identity IDs to their active connection. It is owned and
// mutated exclusively by the hub's run goroutine; no locking here.
type Registry struct {
	clients map[int64]*Client
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[int64]*Client)}
}

// Register inserts or replaces the entry for the client's identity.
// The displaced connection, if any, is returned; it is not closed here.
func (r *Registry) Register(c *Client) (replaced *Client) {
	replaced = r.clients[c.Identity.ID]
	r.clients[c.Identity.ID] = c
	return replaced
}

// Unregister removes the entry only if it still belongs to this exact
// connection. A stale connection whose identity has since re-registered
// leaves the fresh entry untouched. Returns true if an entry was removed.
func (r *Registry) Unregister(c *Client) bool {
	current, ok := r.clients[c.Identity.ID]
	if !ok || current != c {
		return false
	}
	delete(r.clients, c.Identity.ID)
	return true
}

// Lookup returns the active connection for an identity, if any.
func (r *Registry) Lookup(identityID int64) (*Client, bool) {
	c, ok := r.clients[identityID]
	return c, ok
}

// Snapshot returns a stable copy of all active connections.
func (r *Registry) Snapshot() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len reports how many identities are connected.
func (r *Registry) Len() int {
	return len(r.clients)
}
