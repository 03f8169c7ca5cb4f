package publisher

// Publisher represents a service for publishing newly discovered records to
// downstream consumers
type Publisher interface {
	// Publish publishes a message under the source's key
	Publish(source string, message []byte) error

	// Close closes the publisher connection
	Close() error
}
