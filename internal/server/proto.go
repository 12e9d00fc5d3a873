package server

// Binary frames carry a one-byte stream tag followed by raw payload bytes.
const (
	frameAudio byte = 0x01
	frameVideo byte = 0x02
)

// Text message type discriminators.
const (
	msgResponding    = "responding"
	msgChat          = "chat"
	msgRespondingAck = "responding_ack"
)

// clientMessage is an inbound JSON control message from the candidate client.
type clientMessage struct {
	Type string `json:"type"`

	// Listening toggles the answer window for "responding" messages.
	Listening bool `json:"listening"`
}

// chatMessage is an outbound interviewer utterance.
type chatMessage struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	Role           string `json:"role"`
	InterviewEnded bool   `json:"interview_ended"`

	// Audio is base64-encoded synthesized speech, omitted for text-only
	// delivery.
	Audio string `json:"audio,omitempty"`
}

// respondingAckMessage confirms a listening-state change to the client.
type respondingAckMessage struct {
	Type      string `json:"type"`
	Listening bool   `json:"listening"`

	// Reason is set when the change was not the candidate's own doing: the
	// silence threshold expired, or a redundant toggle was rejected.
	Reason string `json:"reason,omitempty"`
}
