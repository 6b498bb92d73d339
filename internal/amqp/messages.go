// Package amqp publishes and consumes dataset-change events over RabbitMQ.
package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Dataset-change reasons.
const (
	ReasonImport = "import"
	ReasonEdit   = "edit"
)

// DatasetEvent tells consumers the ledger changed. It carries no row data;
// the worker re-reads the dataset from storage when it mirrors.
type DatasetEvent struct {
	BatchID   string    `json:"batch_id"`
	Reason    string    `json:"reason"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewDatasetEvent creates an event with a fresh batch id.
func NewDatasetEvent(reason string, rows int) *DatasetEvent {
	return &DatasetEvent{
		BatchID:   uuid.NewString(),
		Reason:    reason,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes.
func (e *DatasetEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// DatasetEventFromJSON parses an event from JSON bytes.
func DatasetEventFromJSON(data []byte) (*DatasetEvent, error) {
	var e DatasetEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
