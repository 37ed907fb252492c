package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/calc"
	"github.com/afoapp/bookkeeper/internal/currency"
	"github.com/afoapp/bookkeeper/internal/domain/models"
	"github.com/afoapp/bookkeeper/internal/repository"
	"github.com/afoapp/bookkeeper/internal/service/session"
)

// SheetHandler exposes the sheet repository and form sessions over HTTP.
type SheetHandler struct {
	repo   repository.SheetRepository
	pref   *currency.Preference
	logger *zap.Logger
}

// NewSheetHandler constructs the HTTP handler adapter.
func NewSheetHandler(repo repository.SheetRepository, pref *currency.Preference, logger *zap.Logger) *SheetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SheetHandler{repo: repo, pref: pref, logger: logger}
}

// saveResponse is returned by Create and Update: the persisted snapshot plus
// the presentation-only classification and stock advisories.
type saveResponse struct {
	ID             string                 `json:"id"`
	TotalIncome    float64                `json:"totalIncome"`
	TotalExpenses  float64                `json:"totalExpenses"`
	ProfitOrLoss   float64                `json:"profitOrLoss"`
	Classification classificationResponse `json:"classification"`
	Advisories     []models.StockAdvisory `json:"advisories,omitempty"`
}

type classificationResponse struct {
	Outcome calc.Outcome `json:"outcome"`
	Amount  float64      `json:"amount"`
	Message string       `json:"message"`
}

// List returns summaries of every stored sheet in insertion order.
func (h *SheetHandler) List(c *gin.Context) {
	sheets, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing sheets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sheets"})
		return
	}

	summaries := make([]models.Summary, 0, len(sheets))
	for i := range sheets {
		summaries = append(summaries, sheets[i].Summarize())
	}
	c.JSON(http.StatusOK, gin.H{"sheets": summaries})
}

// Get returns one full sheet record.
func (h *SheetHandler) Get(c *gin.Context) {
	id := c.Param("id")

	sheet, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrCorrupt) {
			if errors.Is(err, repository.ErrCorrupt) {
				h.logger.Warn("corrupt sheet requested", zap.String("id", id), zap.Error(err))
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "sheet not found"})
			return
		}
		h.logger.Error("failed reading sheet", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sheet"})
		return
	}

	c.JSON(http.StatusOK, sheet)
}

// Defaults returns the blank form state for a new sheet of the given type,
// with its default line items and dated title.
func (h *SheetHandler) Defaults(c *gin.Context) {
	sheetType, err := models.ParseSheetType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := session.New(h.repo, sheetType, h.pref.Symbol(c.Request.Context()), h.logger)
	c.JSON(http.StatusOK, s.Draft())
}

// Create saves a submitted draft as a new sheet.
func (h *SheetHandler) Create(c *gin.Context) {
	var draft models.SheetDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.logger.Warn("invalid sheet payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := session.FromDraft(h.repo, draft, h.pref.Symbol(c.Request.Context()), h.logger)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.save(c, s, http.StatusCreated)
}

// Update saves a submitted draft over an existing sheet.
func (h *SheetHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var draft models.SheetDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.logger.Warn("invalid sheet payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := session.Load(c.Request.Context(), h.repo, id, h.pref.Symbol(c.Request.Context()), h.logger)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "sheet not found"})
			return
		}
		h.logger.Error("failed loading sheet", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sheet"})
		return
	}

	if err := s.ReplaceDraft(draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.save(c, s, http.StatusOK)
}

func (h *SheetHandler) save(c *gin.Context, s *session.Session, successStatus int) {
	advisories := s.StockAdvisories()

	id, cls, err := s.Save(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to save sheet"})
		return
	}

	snapshot := s.Totals()
	c.JSON(successStatus, saveResponse{
		ID:            id,
		TotalIncome:   snapshot.TotalIncome.InexactFloat64(),
		TotalExpenses: snapshot.TotalExpenses.InexactFloat64(),
		ProfitOrLoss:  snapshot.ProfitOrLoss.InexactFloat64(),
		Classification: classificationResponse{
			Outcome: cls.Outcome,
			Amount:  cls.Amount.InexactFloat64(),
			Message: classificationMessage(s.Draft().Type, s.CurrencySymbol(), cls),
		},
		Advisories: advisories,
	})
}

// Delete removes one sheet. Deleting an unknown id succeeds.
func (h *SheetHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed deleting sheet", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sheet"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear removes every sheet.
func (h *SheetHandler) Clear(c *gin.Context) {
	if err := h.repo.ClearAll(c.Request.Context()); err != nil {
		h.logger.Error("failed clearing sheets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear sheets"})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCurrency returns the stored display currency.
func (h *SheetHandler) GetCurrency(c *gin.Context) {
	code := h.pref.Code(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"code": code, "symbol": currency.Symbol(code)})
}

// PutCurrency stores a new display currency.
func (h *SheetHandler) PutCurrency(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.pref.SetCode(c.Request.Context(), req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": req.Code, "symbol": currency.Symbol(req.Code)})
}

// classificationMessage renders the outcome the way the sheet forms phrase
// it; the wording differs for salary sheets where the difference is a
// remaining balance rather than trading profit.
func classificationMessage(sheetType models.SheetType, symbol string, cls calc.Classification) string {
	amount := cls.Amount.StringFixed(2)

	if sheetType == models.SheetSalary {
		switch cls.Outcome {
		case calc.Profit:
			return fmt.Sprintf("Congratulations, you have %s%s remaining after expenses!", symbol, amount)
		case calc.Loss:
			return fmt.Sprintf("Your expenses exceed your salary by %s%s. Consider reviewing your spending.", symbol, amount)
		default:
			return "You broke even! No extra cash, no deficit."
		}
	}

	switch cls.Outcome {
	case calc.Profit:
		return fmt.Sprintf("Congratulations, you made %s%s profit!", symbol, amount)
	case calc.Loss:
		return fmt.Sprintf("Sorry, you made a loss of %s%s. Next time can be better.", symbol, amount)
	default:
		return "You broke even! No profit, no loss."
	}
}
