package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"budgetfriendly/internal/core"
	"budgetfriendly/internal/voice"
)

type voiceRequest struct {
	Utterance string `json:"utterance"`
	// When set and the utterance parses to a complete add command, the
	// transaction is created in this budget.
	BudgetID string `json:"budget_id,omitempty"`
}

type voiceResponse struct {
	Action      string               `json:"action"`
	Category    string               `json:"category,omitempty"`
	Description string               `json:"description,omitempty"`
	AmountCents int64                `json:"amount_cents,omitempty"`
	Confidence  float64              `json:"confidence"`
	Created     *transactionResponse `json:"created,omitempty"`
}

// handleVoice parses a transcribed utterance into a structured command. The
// parsing is heuristic; callers should treat low-confidence results as a
// draft to confirm, not a fact.
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	var req voiceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if sanitizeInput(req.Utterance) == "" {
		writeBadRequest(w, "utterance is required")
		return
	}

	cmd, err := s.voiceParser.Parse(req.Utterance)
	if err != nil {
		if errors.Is(err, voice.ErrNoCommand) {
			writeUnprocessable(w, err)
			return
		}
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Voice command parsed",
		"action", string(cmd.Action),
		"category", cmd.Category,
		"confidence", cmd.Confidence)

	resp := voiceResponse{
		Action:      string(cmd.Action),
		Category:    cmd.Category,
		Description: cmd.Description,
		AmountCents: cmd.Amount.Cents,
		Confidence:  cmd.Confidence,
	}

	if req.BudgetID != "" && cmd.Action == voice.ActionAdd && cmd.Amount.Cents != 0 {
		tx := core.Transaction{
			BudgetID:    req.BudgetID,
			Date:        core.Date{Time: time.Now().UTC()},
			Description: cmd.Description,
			Amount:      cmd.Amount,
			Category:    cmd.Category,
		}
		if tx.Description == "" {
			tx.Description = req.Utterance
		}
		if tx.Category == "" {
			tx.Category = core.CategoryWants
		}

		created, err := s.store.CreateTransaction(r.Context(), uid, tx)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateDerived(uid)

		cr := toTransactionResponse(created)
		resp.Created = &cr
	}

	writeJSON(w, http.StatusOK, resp)
}
