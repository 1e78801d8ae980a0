package core

const (
	commandBuffer = 16
	eventBuffer   = 64
)

// Client is one live duplex channel as seen by the core layer.
// ClientID is the optional identifier supplied during the handshake.
type Client struct {
	ID       string
	ClientID string
	Commands chan *Command
	Events   chan *Event

	done chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, clientID string) *Client {
	return &Client{
		ID:       id,
		ClientID: clientID,
		Commands: make(chan *Command, commandBuffer),
		Events:   make(chan *Event, eventBuffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the hub has unregistered the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
