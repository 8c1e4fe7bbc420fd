package chathub

// Client is the interface for any live connection the hub can push to.
// It abstracts the transport so the hub manages connections uniformly.
type Client interface {
	// GetID returns the unique identifier of this connection.
	GetID() string

	// GetSendChannel returns the channel the hub writes encoded events to.
	// It is a send-only channel.
	GetSendChannel() chan<- []byte

	// Close shuts the connection down. It must be safe to call more than once.
	Close()
}
