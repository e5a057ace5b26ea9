package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Task struct {
	TaskNumber   int
	Title        string
	Description  string
	RewardPoints int
	RewardTokens decimal.Decimal
	IsActive     bool
	CreatedAt    time.Time
}

// TaskStatus is the closed set of workflow states. Transitions only ever
// move forward: pending -> started -> submitted -> approved.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskStarted   TaskStatus = "started"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskPending:   {TaskStarted},
	TaskStarted:   {TaskStarted, TaskSubmitted},
	TaskSubmitted: {TaskApproved},
	TaskApproved:  {},
}

func (s TaskStatus) Valid() bool {
	_, ok := taskTransitions[s]
	return ok
}

func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type UserTask struct {
	UserID         int64
	TaskNumber     int
	Status         TaskStatus
	SubmittedProof *string
	SubmittedAt    *time.Time
	ApprovedAt     *time.Time
	CreatedAt      time.Time
}

// TaskSubmission is the payload handed to the admin notification channel
// when a proof comes in. Delivery is the notifier's problem, not the engine's.
type TaskSubmission struct {
	UserID      int64
	Username    string
	TaskNumber  int
	TaskTitle   string
	Proof       string
	SubmittedAt time.Time
}

type PendingApproval struct {
	UserID         int64
	Username       string
	FirstName      string
	TaskNumber     int
	TaskTitle      string
	SubmittedProof string
	SubmittedAt    time.Time
}
