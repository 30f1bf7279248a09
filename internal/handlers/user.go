package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recapio/recapio-backend/internal/logger"
	"github.com/recapio/recapio-backend/internal/repos"
	"github.com/recapio/recapio-backend/internal/services"
)

type UserHandler struct {
	log     *logger.Logger
	ledger  services.CreditLedger
	history repos.CreditHistoryRepo
}

func NewUserHandler(log *logger.Logger, ledger services.CreditLedger, history repos.CreditHistoryRepo) *UserHandler {
	return &UserHandler{
		log:     log.With("handler", "UserHandler"),
		ledger:  ledger,
		history: history,
	}
}

// GET /api/users/:user_id/credits
// Developers report effectively-infinite balances.
func (h *UserHandler) GetCredits(c *gin.Context) {
	user, err := h.ledger.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	transcription := user.TranscriptionCredits
	notes := user.NotesCredits
	if user.HasUnlimited() {
		transcription = math.MaxInt32
		notes = math.MaxInt32
	}

	RespondOK(c, gin.H{
		"transcription_credits": transcription,
		"notes_credits":         notes,
		"role":                  user.Role,
		"has_unlimited":         user.HasUnlimited(),
	})
}

// GET /api/users/:user_id/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.ledger.GetUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"id":                    user.ID,
		"role":                  user.Role,
		"transcription_credits": user.TranscriptionCredits,
		"notes_credits":         user.NotesCredits,
		"company":               user.Company,
		"country":               user.Country,
		"currency":              user.Currency,
		"created_at":            user.CreatedAt,
		"updated_at":            user.UpdatedAt,
		"has_unlimited":         user.HasUnlimited(),
	})
}

const creditHistoryLimit = 100

// GET /api/users/:user_id/credits/history
// Newest first, capped.
func (h *UserHandler) GetCreditHistory(c *gin.Context) {
	userID := c.Param("user_id")

	entries, err := h.history.GetByUser(c.Request.Context(), nil, userID, creditHistoryLimit)
	if err != nil {
		RespondAPIError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"history": entries,
	})
}
