package repos

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/types"
)

func TestAttemptCreate_NumbersSequentially(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t), newTestLogger(t))
	ctx := context.Background()

	mk := func(userID, questionID string) *types.UserAttempt {
		return &types.UserAttempt{
			UserID:       userID,
			VideoID:      "vid1",
			QuestionID:   questionID,
			QuestionType: types.QuestionTypeFlashcard,
		}
	}

	first, err := repo.Create(ctx, nil, mk("user1", "q1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.AttemptNumber != 1 {
		t.Fatalf("first attempt should be 1, got %d", first.AttemptNumber)
	}

	second, err := repo.Create(ctx, nil, mk("user1", "q1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.AttemptNumber != 2 {
		t.Fatalf("second attempt should be 2, got %d", second.AttemptNumber)
	}

	// Numbering is per (user, question), not global.
	otherQuestion, _ := repo.Create(ctx, nil, mk("user1", "q2"))
	if otherQuestion.AttemptNumber != 1 {
		t.Fatalf("different question should restart at 1, got %d", otherQuestion.AttemptNumber)
	}
	otherUser, _ := repo.Create(ctx, nil, mk("user2", "q1"))
	if otherUser.AttemptNumber != 1 {
		t.Fatalf("different user should restart at 1, got %d", otherUser.AttemptNumber)
	}
}

func TestAttemptCreate_CountsInsideCallerTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttemptRepo(db, newTestLogger(t))
	ctx := context.Background()

	// Both inserts run in one transaction; the second must see the
	// first's uncommitted row when numbering itself.
	err := db.Transaction(func(tx *gorm.DB) error {
		for want := 1; want <= 2; want++ {
			a, err := repo.Create(ctx, tx, &types.UserAttempt{
				UserID:       "user1",
				VideoID:      "vid1",
				QuestionID:   "q1",
				QuestionType: types.QuestionTypeFlashcard,
			})
			if err != nil {
				return err
			}
			if a.AttemptNumber != want {
				t.Fatalf("attempt %d numbered %d", want, a.AttemptNumber)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	after, err := repo.GetByUserVideo(ctx, nil, "user1", "vid1")
	if err != nil || len(after) != 2 {
		t.Fatalf("expected both attempts committed: %v %#v", err, after)
	}
}

func TestAttemptGetByUserVideoType(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t), newTestLogger(t))
	ctx := context.Background()

	for _, a := range []*types.UserAttempt{
		{UserID: "user1", VideoID: "vid1", QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard},
		{UserID: "user1", VideoID: "vid1", QuestionID: "q2", QuestionType: types.QuestionTypeQuiz},
		{UserID: "user1", VideoID: "vid2", QuestionID: "q3", QuestionType: types.QuestionTypeQuiz},
	} {
		if _, err := repo.Create(ctx, nil, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	quiz, err := repo.GetByUserVideoType(ctx, nil, "user1", "vid1", types.QuestionTypeQuiz)
	if err != nil {
		t.Fatalf("GetByUserVideoType: %v", err)
	}
	if len(quiz) != 1 || quiz[0].QuestionID != "q2" {
		t.Fatalf("unexpected result: %#v", quiz)
	}

	all, err := repo.GetByUserVideo(ctx, nil, "user1", "vid1")
	if err != nil {
		t.Fatalf("GetByUserVideo: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 attempts on vid1, got %d", len(all))
	}
}

func TestAttemptDeleteByVideoID(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t), newTestLogger(t))
	ctx := context.Background()

	for _, videoID := range []string{"vid1", "vid1", "vid2"} {
		if _, err := repo.Create(ctx, nil, &types.UserAttempt{
			UserID: "user1", VideoID: videoID, QuestionID: "q1", QuestionType: types.QuestionTypeFlashcard,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if err := repo.DeleteByVideoID(ctx, nil, "vid1"); err != nil {
		t.Fatalf("DeleteByVideoID: %v", err)
	}
	remaining, err := repo.GetByUserVideo(ctx, nil, "user1", "vid2")
	if err != nil || len(remaining) != 1 {
		t.Fatalf("other video attempts must survive: %v %#v", err, remaining)
	}
	gone, _ := repo.GetByUserVideo(ctx, nil, "user1", "vid1")
	if len(gone) != 0 {
		t.Fatalf("vid1 attempts should be gone: %#v", gone)
	}
}
