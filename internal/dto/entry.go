package dto

import (
	"time"

	"github.com/openledger-app/openledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest is one prospective journal line. Exactly one of
// debit/credit must be positive; the service validates that beyond binding.
type CreateLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	Memo         string          `json:"memo"`
}

// CreateEntryRequest creates a draft journal entry.
type CreateEntryRequest struct {
	Date        time.Time           `json:"date" binding:"required"`
	Kind        domain.EntryKind    `json:"kind" binding:"required,entrykind"`
	Description string              `json:"description" binding:"required"`
	Lines       []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateDraftRequest replaces a draft's lines wholesale and optionally its
// header fields. Nil fields are left untouched.
type UpdateDraftRequest struct {
	Date        *time.Time          `json:"date"`
	Description *string             `json:"description"`
	Lines       []CreateLineRequest `json:"lines" binding:"omitempty,min=2,dive"`
}

// ListEntriesParams holds query parameters for listing entries.
type ListEntriesParams struct {
	Limit        int     `form:"limit"`
	NextToken    *string `form:"nextToken"`
	Status       *string `form:"status"`
	Kind         *string `form:"kind"`
	IncludeLines bool    `form:"includeLines"`
}

// LineResponse is the API shape of a journal line.
type LineResponse struct {
	LineID       string          `json:"lineID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	CurrencyCode string          `json:"currencyCode"`
	ExchangeRate decimal.Decimal `json:"exchangeRate"`
	BaseDebit    decimal.Decimal `json:"baseDebit"`
	BaseCredit   decimal.Decimal `json:"baseCredit"`
	Memo         string          `json:"memo,omitempty"`
}

// EntryResponse is the API shape of a journal entry.
type EntryResponse struct {
	EntryID          string         `json:"entryID"`
	OrgID            string         `json:"orgID"`
	PeriodID         string         `json:"periodID"`
	EntryNumber      *string        `json:"entryNumber,omitempty"`
	Date             time.Time      `json:"date"`
	Kind             string         `json:"kind"`
	Status           string         `json:"status"`
	Description      string         `json:"description"`
	ReversedEntryID  *string        `json:"reversedEntryID,omitempty"`
	ReversingEntryID *string        `json:"reversingEntryID,omitempty"`
	CorrectedEntryID *string        `json:"correctedEntryID,omitempty"`
	AutoReverseDate  *time.Time     `json:"autoReverseDate,omitempty"`
	PostedAt         *time.Time     `json:"postedAt,omitempty"`
	Lines            []LineResponse `json:"lines,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	CreatedBy        string         `json:"createdBy"`
}

// ListEntriesResponse wraps a page of entries with the next-page token.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain.JournalLine to its API shape.
func ToLineResponse(l domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:       l.LineID,
		LineNo:       l.LineNo,
		AccountID:    l.AccountID,
		Debit:        l.Debit,
		Credit:       l.Credit,
		CurrencyCode: l.CurrencyCode,
		ExchangeRate: l.ExchangeRate,
		BaseDebit:    l.BaseDebit,
		BaseCredit:   l.BaseCredit,
		Memo:         l.Memo,
	}
}

// ToEntryResponse converts a domain.JournalEntry to its API shape.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:          e.EntryID,
		OrgID:            e.OrgID,
		PeriodID:         e.PeriodID,
		EntryNumber:      e.EntryNumber,
		Date:             e.EntryDate,
		Kind:             string(e.Kind),
		Status:           string(e.Status),
		Description:      e.Description,
		ReversedEntryID:  e.ReversedEntryID,
		ReversingEntryID: e.ReversingEntryID,
		CorrectedEntryID: e.CorrectedEntryID,
		AutoReverseDate:  e.AutoReverseDate,
		PostedAt:         e.PostedAt,
		CreatedAt:        e.CreatedAt,
		CreatedBy:        e.CreatedBy,
	}
	if len(e.Lines) > 0 {
		resp.Lines = make([]LineResponse, len(e.Lines))
		for i, l := range e.Lines {
			resp.Lines[i] = ToLineResponse(l)
		}
	}
	return resp
}
