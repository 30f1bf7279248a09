package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/recapio/recapio-backend/internal/apierr"
	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/types"
)

// QuizCreditCost is the flat notes-credit price of one quiz generation.
const QuizCreditCost = 5

// notesCharsPerCredit sets notes pricing: one credit per started block
// of transcript characters.
const notesCharsPerCredit = 50000

// NotesCost prices notes generation by transcript length, minimum 1.
func NotesCost(transcriptChars int) int {
	cost := int(math.Ceil(float64(transcriptChars) / notesCharsPerCredit))
	if cost < 1 {
		cost = 1
	}
	return cost
}

// CreditLedger owns the two balances and their audit trail. Deductions
// are atomic: the balance write and the history row commit together or
// not at all.
type CreditLedger interface {
	GetUser(ctx context.Context, userID string) (*types.User, error)
	HasCredits(ctx context.Context, userID, creditType string, required int) (bool, int, error)
	Deduct(ctx context.Context, userID, creditType string, amount int, videoID *string, description string, metadata map[string]any) error
	Add(ctx context.Context, userID, creditType string, amount int, description string) error
	AlreadyDeducted(ctx context.Context, userID, videoID, creditType string) (bool, error)
}

type creditLedger struct {
	db      *gorm.DB
	log     *logger.Logger
	users   repos.UserRepo
	history repos.CreditHistoryRepo
}

func NewCreditLedger(db *gorm.DB, log *logger.Logger, users repos.UserRepo, history repos.CreditHistoryRepo) CreditLedger {
	return &creditLedger{
		db:      db,
		log:     log.With("service", "CreditLedger"),
		users:   users,
		history: history,
	}
}

func (l *creditLedger) GetUser(ctx context.Context, userID string) (*types.User, error) {
	user, err := l.users.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, apierr.DependencyFailure(err)
	}
	if user == nil {
		return nil, apierr.NotFound(fmt.Sprintf("user %s", userID))
	}
	return user, nil
}

func (l *creditLedger) HasCredits(ctx context.Context, userID, creditType string, required int) (bool, int, error) {
	user, err := l.GetUser(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if user.HasUnlimited() {
		return true, math.MaxInt32, nil
	}
	available := balanceOf(user, creditType)
	return available >= required, available, nil
}

// Deduct requires amount > 0; a zero deduction would write a misleading
// audit row. The user row is locked for the read-check-write.
func (l *creditLedger) Deduct(ctx context.Context, userID, creditType string, amount int, videoID *string, description string, metadata map[string]any) error {
	if amount <= 0 {
		return fmt.Errorf("deduct amount must be positive, got %d", amount)
	}
	if creditType != types.CreditTypeTranscription && creditType != types.CreditTypeNotes {
		return fmt.Errorf("unknown credit type %q", creditType)
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := l.users.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apierr.NotFound(fmt.Sprintf("user %s", userID))
		}
		if user.HasUnlimited() {
			return nil
		}

		before := balanceOf(user, creditType)
		if before < amount {
			return apierr.InsufficientCredits(amount, before)
		}
		after := before - amount

		if err := l.users.UpdateFields(ctx, tx, userID, map[string]any{
			columnOf(creditType): after,
		}); err != nil {
			return err
		}

		entry := &types.CreditHistory{
			UserID:        userID,
			VideoID:       videoID,
			CreditType:    creditType,
			Amount:        amount,
			Operation:     types.CreditOpDeduct,
			BalanceBefore: before,
			BalanceAfter:  after,
			Description:   description,
		}
		if metadata != nil {
			raw, err := json.Marshal(metadata)
			if err != nil {
				return err
			}
			entry.Metadata = datatypes.JSON(raw)
		}
		if _, err := l.history.Create(ctx, tx, entry); err != nil {
			return err
		}

		l.log.Info("credits deducted",
			"user_id", userID,
			"credit_type", creditType,
			"amount", amount,
			"balance_after", after,
		)
		return nil
	})
}

func (l *creditLedger) Add(ctx context.Context, userID, creditType string, amount int, description string) error {
	if amount <= 0 {
		return fmt.Errorf("add amount must be positive, got %d", amount)
	}
	if creditType != types.CreditTypeTranscription && creditType != types.CreditTypeNotes {
		return fmt.Errorf("unknown credit type %q", creditType)
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := l.users.GetByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return apierr.NotFound(fmt.Sprintf("user %s", userID))
		}

		before := balanceOf(user, creditType)
		after := before + amount

		if err := l.users.UpdateFields(ctx, tx, userID, map[string]any{
			columnOf(creditType): after,
		}); err != nil {
			return err
		}

		entry := &types.CreditHistory{
			UserID:        userID,
			CreditType:    creditType,
			Amount:        amount,
			Operation:     types.CreditOpAdd,
			BalanceBefore: before,
			BalanceAfter:  after,
			Description:   description,
		}
		_, err = l.history.Create(ctx, tx, entry)
		return err
	})
}

func (l *creditLedger) AlreadyDeducted(ctx context.Context, userID, videoID, creditType string) (bool, error) {
	return l.history.DeductionExists(ctx, nil, userID, videoID, creditType)
}

func balanceOf(user *types.User, creditType string) int {
	if creditType == types.CreditTypeNotes {
		return user.NotesCredits
	}
	return user.TranscriptionCredits
}

func columnOf(creditType string) string {
	if creditType == types.CreditTypeNotes {
		return "notes_credits"
	}
	return "transcription_credits"
}

// IsInsufficientCredits reports whether err is a credit shortfall.
func IsInsufficientCredits(err error) bool {
	var ce *apierr.CreditsError
	return errors.As(err, &ce)
}
