package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KindJDAnalysis marks a background job-description analysis run.
const KindJDAnalysis = "jd_analysis"

// Message is the payload sent to downstream queue consumers.
type Message struct {
	Kind          string `json:"kind"`
	ApplicationID int64  `json:"applicationId"`
	UserID        string `json:"userId"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// NewJDAnalysis builds the message for one queued analysis of an owned
// application.
func NewJDAnalysis(applicationID int64, userID string) Message {
	return Message{
		Kind:          KindJDAnalysis,
		ApplicationID: applicationID,
		UserID:        userID,
		RequestID:     uuid.NewString(),
		EnqueuedAt:    time.Now().UTC().Format(time.RFC3339),
		Version:       1,
	}
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
