package models

type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// ConnectionStatus pairs the current transport state with the last error
// surfaced to the consumer, if any.
type ConnectionStatus struct {
	State     ConnectionState `json:"state"`
	LastError string          `json:"last_error,omitempty"`
}
