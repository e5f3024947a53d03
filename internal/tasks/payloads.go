package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants shared between queue producers and consumers.
const (
	TypeCVParse = "cv:parse"
)

// CVParsePayload carries the minimum information needed to parse an
// uploaded CV.
type CVParsePayload struct {
	CVRecordID    uint   `json:"cv_record_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCVParseTask builds a parse task for an uploaded CV. Failures are
// terminal per attempt: the record ends up failed and the owner
// resubmits, so retries stay disabled.
func NewCVParseTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CVParsePayload{
		CVRecordID:    id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCVParse, payload, asynq.MaxRetry(0)), nil
}
