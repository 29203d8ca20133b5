package model

// EntryStatus is the lifecycle state of one in-flight batch upload.
type EntryStatus string

const (
	StatusWaiting    EntryStatus = "waiting"
	StatusProcessing EntryStatus = "processing"
	StatusCompleted  EntryStatus = "completed"
	StatusFailed     EntryStatus = "failed"
	StatusCancelled  EntryStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal entries never
// transition again.
func (s EntryStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// QueueEntry tracks one upload through a batch. The queue preserves
// submission order; only Status, Progress and Result mutate.
type QueueEntry struct {
	Name     string      `json:"name"`
	Status   EntryStatus `json:"status"`
	Progress int         `json:"progress"`
	Result   *LineItem   `json:"result,omitempty"`
}
