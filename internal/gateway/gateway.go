package gateway

// Messenger defines the interface for session transports (WebSocket,
// or any other bidirectional message channel).
type Messenger interface {
	// Start begins the session listening loop
	Start() error
	// Stop gracefully shuts down the gateway
	Stop() error
}
