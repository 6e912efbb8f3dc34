package ledfx

// MessageType is the type of a websocket message.
type MessageType string

const (
	// MessagePress is sent by the client to press a button.
	MessagePress MessageType = "press"
	// MessageGetState is sent by the client to ask for the current state.
	MessageGetState MessageType = "get_state"
	// MessageFrame is sent by the server for every frame written to the
	// LEDs.
	MessageFrame MessageType = "frame"
	// MessageState is sent by the server when asked for the state and
	// whenever the state changes.
	MessageState MessageType = "state"
	// MessageError is sent by the server right before it closes the
	// connection.
	MessageError MessageType = "error"
)

// ClientMessage is a message from a websocket client.
type ClientMessage struct {
	Type   MessageType `json:"type"`
	Button Button      `json:"button"`
}

// ServerMessage is a message to a websocket client.
type ServerMessage struct {
	Type MessageType `json:"type"`
	// LEDs are the colors of a frame, packed with xcolor.RGB.ToUint.
	LEDs  []uint32 `json:"leds,omitempty"`
	State *State   `json:"state,omitempty"`
	Error *string  `json:"error,omitempty"`
}
