package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"
)

const (
	minProofVisibleChars = 10
	maxProofLength       = 2000
)

type TaskService struct {
	repo       TaskRepository
	notifier   SubmissionNotifier
	dispatcher *PayoutDispatcher
}

func NewTaskService(repo TaskRepository, notifier SubmissionNotifier, dispatcher *PayoutDispatcher) *TaskService {
	return &TaskService{
		repo:       repo,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.repo.ListActiveTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Start moves the (user, task) workflow to started. Re-starting an already
// started task is allowed and changes nothing.
func (s *TaskService) Start(ctx context.Context, userID int64, taskNumber int) error {
	task, err := s.repo.GetTaskByNumber(ctx, taskNumber)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrInvalidTask
		}
		return fmt.Errorf("failed to get task: %w", err)
	}
	if !task.IsActive {
		return ErrInvalidTask
	}

	if err := s.repo.StartTask(ctx, userID, taskNumber); err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}

	return nil
}

// Submit stores the proof and returns the payload for the admin channel.
// The notification itself is best effort; the transition is already durable
// by the time it goes out.
func (s *TaskService) Submit(ctx context.Context, userID int64, taskNumber int, proof string) (*model.TaskSubmission, error) {
	if err := validateProof(proof); err != nil {
		return nil, err
	}

	task, err := s.repo.GetTaskByNumber(ctx, taskNumber)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrInvalidTask
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !task.IsActive {
		return nil, ErrInvalidTask
	}

	if err := s.repo.SubmitTask(ctx, userID, taskNumber, proof); err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotStarted),
			errors.Is(err, repository.ErrTaskNotSubmitted),
			errors.Is(err, repository.ErrAlreadyApproved):
			return nil, ErrInvalidState
		default:
			return nil, fmt.Errorf("failed to submit task: %w", err)
		}
	}

	username := ""
	if user, err := s.repo.GetUserByID(ctx, userID); err == nil {
		username = user.Username
	}

	submission := &model.TaskSubmission{
		UserID:      userID,
		Username:    username,
		TaskNumber:  taskNumber,
		TaskTitle:   task.Title,
		Proof:       proof,
		SubmittedAt: time.Now().UTC(),
	}

	if s.notifier != nil {
		s.notifier.NotifySubmission(submission)
	}

	return submission, nil
}

// Approve settles the reward for a submitted task. Exactly one of several
// concurrent approvals wins; the rest report the precise precondition
// failure. The token payout is dispatched after the transaction commits.
func (s *TaskService) Approve(ctx context.Context, userID int64, taskNumber int) (*model.LedgerEntry, error) {
	task, err := s.repo.GetTaskByNumber(ctx, taskNumber)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrInvalidTask
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	entry, payout, err := s.repo.ApproveTask(ctx, userID, task)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyApproved):
			return nil, ErrAlreadyApproved
		case errors.Is(err, repository.ErrTaskNotSubmitted),
			errors.Is(err, repository.ErrTaskNotStarted),
			errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotSubmitted
		default:
			return nil, fmt.Errorf("failed to approve task: %w", err)
		}
	}

	if payout != nil && s.dispatcher != nil {
		s.dispatcher.Wake()
	}

	return entry, nil
}

// validateProof enforces the minimal quality gate on submitted proofs:
// at least 10 visible characters, no control characters and no markup.
func validateProof(proof string) error {
	if len(proof) > maxProofLength {
		return ErrInvalidProof
	}

	visible := 0
	for _, r := range proof {
		switch {
		case r == '\n' || r == '\t':
			continue
		case unicode.IsControl(r):
			return ErrInvalidProof
		case strings.ContainsRune("<>", r):
			return ErrInvalidProof
		case !unicode.IsSpace(r):
			visible++
		}
	}

	if visible < minProofVisibleChars {
		return ErrInvalidProof
	}

	return nil
}
