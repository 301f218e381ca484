package http

import (
	"kakeibo/internal/core"
	"kakeibo/internal/report"
)

// Wire forms of the ledger records. Amounts are minor units.
type (
	transactionRequest struct {
		Date       core.Date `json:"date"`
		Amount     int64     `json:"amount"`
		CategoryID string    `json:"category_id"`
		Kind       core.Kind `json:"kind"`
		Memo       string    `json:"memo"`
		UserID     string    `json:"user_id,omitempty"`
	}

	transactionResponse struct {
		ID              string    `json:"id"`
		Date            core.Date `json:"date"`
		Amount          int64     `json:"amount"`
		CategoryID      string    `json:"category_id"`
		Kind            core.Kind `json:"kind"`
		Memo            string    `json:"memo,omitempty"`
		UserID          string    `json:"user_id"`
		CreatorID       string    `json:"creator_id"`
		InvolvedUserIDs []string  `json:"involved_user_ids"`
	}

	fixedCostRequest struct {
		Kind       core.Kind      `json:"kind"`
		CategoryID string         `json:"category_id"`
		Amount     int64          `json:"amount"`
		Date       core.Date      `json:"date"`
		Frequency  core.Frequency `json:"frequency"`
		UserID     string         `json:"user_id,omitempty"`
		// ReflectDate, on update, appends a revision effective from that day.
		ReflectDate core.Date `json:"reflect_date"`
	}

	revisionResponse struct {
		ReflectDate core.Date `json:"reflect_date"`
		Amount      int64     `json:"amount"`
	}

	fixedCostResponse struct {
		ID              string             `json:"id"`
		Kind            core.Kind          `json:"kind"`
		CategoryID      string             `json:"category_id"`
		Amount          int64              `json:"amount"`
		Date            core.Date          `json:"date"`
		Frequency       core.Frequency     `json:"frequency"`
		UserID          string             `json:"user_id"`
		CreatorID       string             `json:"creator_id"`
		InvolvedUserIDs []string           `json:"involved_user_ids"`
		Revisions       []revisionResponse `json:"revisions"`
	}

	occurrenceResponse struct {
		Date   core.Date `json:"date"`
		Amount int64     `json:"amount"`
	}

	categoryRequest struct {
		Name   string    `json:"name"`
		Kind   core.Kind `json:"kind"`
		Ratio  string    `json:"ratio"`
		UserID string    `json:"user_id,omitempty"`
	}

	categoryResponse struct {
		ID       string    `json:"id"`
		Name     string    `json:"name"`
		Kind     core.Kind `json:"kind"`
		Ratio    string    `json:"ratio"`
		UserID   string    `json:"user_id,omitempty"`
		Position int       `json:"position"`
	}

	orderRequest struct {
		IDs []string `json:"ids"`
	}

	detailsResponse struct {
		Period   report.Period `json:"period"`
		Category string        `json:"category"`
		Items    []report.Item `json:"items"`
	}
)

func (t transactionRequest) toCore(id string) core.Transaction {
	return core.Transaction{
		ID:         id,
		Date:       t.Date,
		Amount:     core.Money{Minor: t.Amount},
		CategoryID: sanitizeInput(t.CategoryID),
		Kind:       t.Kind,
		Memo:       sanitizeInput(t.Memo),
		UserID:     sanitizeInput(t.UserID),
	}
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID,
		Date:            t.Date,
		Amount:          t.Amount.Minor,
		CategoryID:      t.CategoryID,
		Kind:            t.Kind,
		Memo:            t.Memo,
		UserID:          t.UserID,
		CreatorID:       t.Author(),
		InvolvedUserIDs: nonNil(t.InvolvedUserIDs),
	}
}

func (f fixedCostRequest) toCore() core.FixedCost {
	return core.FixedCost{
		Kind:       f.Kind,
		CategoryID: sanitizeInput(f.CategoryID),
		Amount:     core.Money{Minor: f.Amount},
		Date:       f.Date,
		Frequency:  f.Frequency,
		UserID:     sanitizeInput(f.UserID),
	}
}

func newFixedCostResponse(fc core.FixedCost) fixedCostResponse {
	resp := fixedCostResponse{
		ID:              fc.ID,
		Kind:            fc.Kind,
		CategoryID:      fc.CategoryID,
		Amount:          fc.Amount.Minor,
		Date:            fc.Date,
		Frequency:       fc.Frequency,
		UserID:          fc.UserID,
		CreatorID:       fc.CreatorID,
		InvolvedUserIDs: nonNil(fc.InvolvedUserIDs),
		Revisions:       make([]revisionResponse, 0, len(fc.Revisions)),
	}
	for _, r := range fc.Revisions {
		resp.Revisions = append(resp.Revisions, revisionResponse{ReflectDate: r.ReflectDate, Amount: r.Amount.Minor})
	}
	return resp
}

func (c categoryRequest) toCore(id string) core.Category {
	return core.Category{
		ID:     id,
		Name:   sanitizeInput(c.Name),
		Kind:   c.Kind,
		Ratio:  sanitizeInput(c.Ratio),
		UserID: sanitizeInput(c.UserID),
	}
}

func newCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Kind:     c.Kind,
		Ratio:    c.Ratio,
		UserID:   c.UserID,
		Position: c.Position,
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
