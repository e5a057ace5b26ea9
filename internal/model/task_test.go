package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    TaskStatus
		to      TaskStatus
		allowed bool
	}{
		{name: "Pending to started", from: TaskPending, to: TaskStarted, allowed: true},
		{name: "Started to submitted", from: TaskStarted, to: TaskSubmitted, allowed: true},
		{name: "Restart while started", from: TaskStarted, to: TaskStarted, allowed: true},
		{name: "Submitted to approved", from: TaskSubmitted, to: TaskApproved, allowed: true},
		{name: "Pending straight to submitted", from: TaskPending, to: TaskSubmitted, allowed: false},
		{name: "Pending straight to approved", from: TaskPending, to: TaskApproved, allowed: false},
		{name: "Approved is terminal", from: TaskApproved, to: TaskStarted, allowed: false},
		{name: "No going back to pending", from: TaskSubmitted, to: TaskPending, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTaskStatusValid(t *testing.T) {
	for _, s := range []TaskStatus{TaskPending, TaskStarted, TaskSubmitted, TaskApproved} {
		assert.True(t, s.Valid(), "%s", s)
	}
	assert.False(t, TaskStatus("rejected").Valid())
}

func TestLevelForStudents(t *testing.T) {
	tests := []struct {
		students int
		level    int
	}{
		{0, 1},
		{2, 1},
		{3, 2},
		{9, 2},
		{10, 3},
		{25, 4},
		{49, 4},
		{50, 5},
		{500, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForStudents(tt.students), "students=%d", tt.students)
	}
}
