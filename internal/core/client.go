package core

// Identity is the validated account a connection acts as. It is supplied
// by the auth layer at connect time and stays immutable for the life of
// the connection.
type Identity struct {
	ID     int64
	Name   string
	Avatar string
}

// Client is one live connection as seen by the core layer.
type Client struct {
	// ConnID identifies this particular transport connection, not the
	// account; reconnects get a fresh ConnID.
	ConnID   string
	Identity Identity
	Commands chan *Command
	Events   chan *Event
}

// NewClient constructs a client with initialized channels.
func NewClient(connID string, identity Identity) *Client {
	return &Client{
		ConnID:   connID,
		Identity: identity,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 8),
	}
}

// send delivers an event without blocking the hub loop.
func (c *Client) send(event *Event) {
	select {
	case c.Events <- event:
	default:
		// Drop if slow consumer.
	}
}
