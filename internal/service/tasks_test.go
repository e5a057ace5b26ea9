package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"rewards_academy/internal/model"
	"rewards_academy/internal/repository"
	"rewards_academy/internal/service/mocks"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func activeTask(number int, points int, tokens string) *model.Task {
	return &model.Task{
		TaskNumber:   number,
		Title:        "Invite your first friend",
		RewardPoints: points,
		RewardTokens: decimal.RequireFromString(tokens),
		IsActive:     true,
	}
}

func TestTaskService_Start(t *testing.T) {
	tests := []struct {
		name          string
		userID        int64
		taskNumber    int
		mockSetup     func(repo *mocks.MockTaskRepository)
		expectedError error
	}{
		{
			name:       "Unknown task",
			userID:     100,
			taskNumber: 99,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 99).
					Return(nil, repository.ErrTaskNotFound)
			},
			expectedError: ErrInvalidTask,
		},
		{
			name:       "Inactive task",
			userID:     100,
			taskNumber: 4,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				task := activeTask(4, 10, "20")
				task.IsActive = false
				repo.On("GetTaskByNumber", mock.Anything, 4).Return(task, nil)
			},
			expectedError: ErrInvalidTask,
		},
		{
			name:       "Start succeeds",
			userID:     100,
			taskNumber: 3,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).
					Return(activeTask(3, 15, "30"), nil)
				repo.On("StartTask", mock.Anything, int64(100), 3).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:       "Restart is a no-op",
			userID:     100,
			taskNumber: 3,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).
					Return(activeTask(3, 15, "30"), nil)
				repo.On("StartTask", mock.Anything, int64(100), 3).Return(nil)
			},
			expectedError: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTaskRepository{}
			tt.mockSetup(mockRepo)

			svc := NewTaskService(mockRepo, nil, nil)
			err := svc.Start(context.Background(), tt.userID, tt.taskNumber)

			assert.ErrorIs(t, err, tt.expectedError)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_Submit(t *testing.T) {
	proof := "I invited my friend @alice, she joined today"

	tests := []struct {
		name          string
		userID        int64
		taskNumber    int
		proof         string
		mockSetup     func(repo *mocks.MockTaskRepository)
		expectedError error
	}{
		{
			name:          "Proof too short",
			userID:        100,
			taskNumber:    3,
			proof:         "done",
			mockSetup:     func(repo *mocks.MockTaskRepository) {},
			expectedError: ErrInvalidProof,
		},
		{
			name:          "Proof with markup",
			userID:        100,
			taskNumber:    3,
			proof:         "<script>alert('proof')</script>",
			mockSetup:     func(repo *mocks.MockTaskRepository) {},
			expectedError: ErrInvalidProof,
		},
		{
			name:          "Proof too long",
			userID:        100,
			taskNumber:    3,
			proof:         strings.Repeat("a", 2001),
			mockSetup:     func(repo *mocks.MockTaskRepository) {},
			expectedError: ErrInvalidProof,
		},
		{
			name:       "Task never started",
			userID:     100,
			taskNumber: 3,
			proof:      proof,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).
					Return(activeTask(3, 15, "30"), nil)
				repo.On("SubmitTask", mock.Anything, int64(100), 3, proof).
					Return(repository.ErrTaskNotStarted)
			},
			expectedError: ErrInvalidState,
		},
		{
			name:       "Already approved",
			userID:     100,
			taskNumber: 3,
			proof:      proof,
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).
					Return(activeTask(3, 15, "30"), nil)
				repo.On("SubmitTask", mock.Anything, int64(100), 3, proof).
					Return(repository.ErrAlreadyApproved)
			},
			expectedError: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTaskRepository{}
			tt.mockSetup(mockRepo)

			svc := NewTaskService(mockRepo, nil, nil)
			submission, err := svc.Submit(context.Background(), tt.userID, tt.taskNumber, tt.proof)

			assert.ErrorIs(t, err, tt.expectedError)
			assert.Nil(t, submission)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_SubmitNotifiesAdmins(t *testing.T) {
	proof := "Screenshot attached, invited @bob on Monday"

	mockRepo := &mocks.MockTaskRepository{}
	mockRepo.On("GetTaskByNumber", mock.Anything, 3).
		Return(activeTask(3, 15, "30"), nil)
	mockRepo.On("SubmitTask", mock.Anything, int64(100), 3, proof).Return(nil)
	mockRepo.On("GetUserByID", mock.Anything, int64(100)).
		Return(&model.User{ID: 100, Username: "carol"}, nil)

	mockNotifier := &mocks.MockSubmissionNotifier{}
	mockNotifier.On("NotifySubmission", mock.MatchedBy(func(s *model.TaskSubmission) bool {
		return s.UserID == 100 && s.TaskNumber == 3 && s.Username == "carol"
	})).Return()

	svc := NewTaskService(mockRepo, mockNotifier, nil)
	submission, err := svc.Submit(context.Background(), 100, 3, proof)

	assert.NoError(t, err)
	assert.NotNil(t, submission)
	assert.Equal(t, "Invite your first friend", submission.TaskTitle)
	assert.Equal(t, proof, submission.Proof)
	mockRepo.AssertExpectations(t)
	mockNotifier.AssertExpectations(t)
}

func TestTaskService_Approve(t *testing.T) {
	task := activeTask(3, 15, "30")

	tests := []struct {
		name          string
		mockSetup     func(repo *mocks.MockTaskRepository)
		expectedError error
		checkEntry    func(*testing.T, *model.LedgerEntry)
	}{
		{
			name: "Approval settles points and tokens in one entry",
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).Return(task, nil)
				repo.On("ApproveTask", mock.Anything, int64(100), task).
					Return(&model.LedgerEntry{
						Type:      model.EntryTaskReward,
						ToAccount: 100,
						Points:    15,
						Tokens:    decimal.RequireFromString("30"),
					}, &model.Payout{UserID: 100, TokenAmount: decimal.RequireFromString("30")}, nil)
			},
			checkEntry: func(t *testing.T, entry *model.LedgerEntry) {
				assert.Equal(t, model.EntryTaskReward, entry.Type)
				assert.Equal(t, 15, entry.Points)
				assert.True(t, entry.Tokens.Equal(decimal.RequireFromString("30")))
			},
		},
		{
			name: "Second approval loses",
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).Return(task, nil)
				repo.On("ApproveTask", mock.Anything, int64(100), task).
					Return(nil, nil, repository.ErrAlreadyApproved)
			},
			expectedError: ErrAlreadyApproved,
		},
		{
			name: "Nothing submitted yet",
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).Return(task, nil)
				repo.On("ApproveTask", mock.Anything, int64(100), task).
					Return(nil, nil, repository.ErrTaskNotSubmitted)
			},
			expectedError: ErrNotSubmitted,
		},
		{
			name: "Workflow row does not exist",
			mockSetup: func(repo *mocks.MockTaskRepository) {
				repo.On("GetTaskByNumber", mock.Anything, 3).Return(task, nil)
				repo.On("ApproveTask", mock.Anything, int64(100), task).
					Return(nil, nil, repository.ErrNotFound)
			},
			expectedError: ErrNotSubmitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockTaskRepository{}
			tt.mockSetup(mockRepo)

			svc := NewTaskService(mockRepo, nil, nil)
			entry, err := svc.Approve(context.Background(), 100, 3)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, entry)
			} else {
				assert.NoError(t, err)
				tt.checkEntry(t, entry)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_ApproveWakesDispatcher(t *testing.T) {
	task := activeTask(3, 15, "30")

	mockRepo := &mocks.MockTaskRepository{}
	mockRepo.On("GetTaskByNumber", mock.Anything, 3).Return(task, nil)
	mockRepo.On("ApproveTask", mock.Anything, int64(100), task).
		Return(&model.LedgerEntry{Type: model.EntryTaskReward, ToAccount: 100},
			&model.Payout{UserID: 100, TokenAmount: decimal.RequireFromString("30")}, nil)

	dispatcher := NewPayoutDispatcher(&mocks.MockPayoutRepository{}, &mocks.MockWalletClient{}, nil,
		time.Second, time.Minute)

	svc := NewTaskService(mockRepo, nil, dispatcher)
	_, err := svc.Approve(context.Background(), 100, 3)

	assert.NoError(t, err)
	select {
	case <-dispatcher.wake:
	default:
		t.Fatal("expected a pending wake signal after approval with a payout")
	}
}

func TestValidateProof(t *testing.T) {
	tests := []struct {
		name    string
		proof   string
		wantErr bool
	}{
		{name: "Plain sentence", proof: "I completed the lesson and shared the link", wantErr: false},
		{name: "Multiline with tabs", proof: "step one\n\tstep two done today", wantErr: false},
		{name: "Exactly at length limit", proof: strings.Repeat("a", 2000), wantErr: false},
		{name: "Too short", proof: "ok", wantErr: true},
		{name: "Whitespace padding does not count", proof: "  a b c    ", wantErr: true},
		{name: "Angle brackets rejected", proof: "see <a href=x>here</a> for proof", wantErr: true},
		{name: "Control characters rejected", proof: "proof\x00with a hidden byte", wantErr: true},
		{name: "Over length limit", proof: strings.Repeat("a", 2001), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProof(tt.proof)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProof)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
