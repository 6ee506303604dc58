package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types carried on the sync queue.
const (
	TypeTransactionSync   = "transaction_sync"
	TypeTransactionDelete = "transaction_delete"
)

// TransactionSyncMessage asks the worker to export one transaction to the
// backup spreadsheet. Only ID and version travel on the wire; the worker
// fetches the full row from the database.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// TransactionDeleteMessage asks the worker to clear an exported row. The
// sheets reference is captured before the local delete, since the row is
// gone by the time the worker runs.
type TransactionDeleteMessage struct {
	ID        int64     `json:"id"`
	SheetsRef string    `json:"sheets_ref"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope wraps a typed payload so one queue can carry both message kinds.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func NewTransactionSyncMessage(id, version int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewTransactionDeleteMessage(id int64, sheetsRef string) *TransactionDeleteMessage {
	return &TransactionDeleteMessage{
		ID:        id,
		SheetsRef: sheetsRef,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return marshalEnvelope(TypeTransactionSync, m)
}

func (m *TransactionDeleteMessage) ToJSON() ([]byte, error) {
	return marshalEnvelope(TypeTransactionDelete, m)
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: body})
}

// EnvelopeFromJSON decodes the outer envelope without touching the payload.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case TypeTransactionSync, TypeTransactionDelete:
		return &env, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", env.Type)
	}
}

// SyncMessage decodes the payload as a sync message.
func (e *Envelope) SyncMessage() (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage decodes the payload as a delete message.
func (e *Envelope) DeleteMessage() (*TransactionDeleteMessage, error) {
	var msg TransactionDeleteMessage
	if err := json.Unmarshal(e.Payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
