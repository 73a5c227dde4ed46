package neural

import (
	"fmt"
	"time"
)

// MessageType classifies neural traffic between organisms.
type MessageType string

const (
	MessageConsciousness MessageType = "consciousness"
	MessageStimulus      MessageType = "stimulus"
	MessageResponse      MessageType = "response"
	MessageEvolution     MessageType = "evolution"
	MessageCollective    MessageType = "collective"
	MessageReproduction  MessageType = "reproduction"
	MessageApoptosis     MessageType = "apoptosis"
	MessageLearning      MessageType = "learning"
	MessageMemory        MessageType = "memory"
	MessageEmotion       MessageType = "emotion"
	MessageSocial        MessageType = "social"
	MessageWarning       MessageType = "warning"
	MessageResource      MessageType = "resource"
	MessageMaintenance   MessageType = "maintenance"
)

// ConsciousnessBoost returns how much awareness receiving a message of
// this type confers on the receiving organism.
func (t MessageType) ConsciousnessBoost() float64 {
	switch t {
	case MessageConsciousness:
		return 0.1
	case MessageLearning:
		return 0.05
	case MessageEmotion:
		return 0.04
	case MessageCollective:
		return 0.03
	case MessageSocial:
		return 0.02
	default:
		return 0.01
	}
}

const (
	// DefaultTTL bounds how long an undelivered message stays valid.
	DefaultTTL = 300 * time.Second
	// MaxPayloadSize caps a single message payload at 1 MiB.
	MaxPayloadSize = 1 << 20
)

// Message is one signed packet of neural traffic between two organisms.
type Message struct {
	MessageID  string
	SenderID   string
	ReceiverID string
	Type       MessageType
	Payload    []byte
	Timestamp  int64 // unix nanoseconds at send time
	TTL        time.Duration
	Signature  []byte
	Urgency    float64
	Priority   uint8
}

// Validate checks structural fields and expiry against now. A zero TTL
// falls back to DefaultTTL.
func (m Message) Validate(now time.Time) error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return fmt.Errorf("%w: sender and receiver are required", ErrInvalidMessage)
	}
	if len(m.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: payload %d bytes exceeds %d", ErrInvalidMessage, len(m.Payload), MaxPayloadSize)
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if m.Timestamp > 0 {
		if age := now.Sub(time.Unix(0, m.Timestamp)); age > ttl {
			return fmt.Errorf("%w: sent %s ago, ttl %s", ErrMessageExpired, age.Round(time.Millisecond), ttl)
		}
	}
	return nil
}
