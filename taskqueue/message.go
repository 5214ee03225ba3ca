package taskqueue

import (
	"encoding/json"
	"time"
)

// Task result statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Control commands.
const (
	CommandActive = "active"
	CommandPing   = "ping"
)

// TaskMessage is the queued representation of a task.
type TaskMessage struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Queue      string          `json:"queue"`
	Args       json.RawMessage `json:"args,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// TaskResult is stored under <ns>:result:<id> once a task finishes.
type TaskResult struct {
	ID         string          `json:"id"`
	Task       string          `json:"task"`
	Status     string          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Worker     string          `json:"worker"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// TaskInfo describes a task currently executing on a worker.
type TaskInfo struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	Queue     string    `json:"queue"`
	StartedAt time.Time `json:"started_at"`
}

type controlRequest struct {
	Command string `json:"command"`
	ReplyTo string `json:"reply_to"`
}

type controlReply struct {
	Worker string     `json:"worker"`
	Active []TaskInfo `json:"active,omitempty"`
	Pong   string     `json:"pong,omitempty"`
}
