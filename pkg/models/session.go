package models

import (
	"errors"
	"fmt"
)

// Stage is the position of a user inside the entry wizard.
type Stage string

const (
	StageNone        Stage = ""
	StageAmount      Stage = "amount"
	StageCurrency    Stage = "currency"
	StageCategory    Stage = "category"
	StageDescription Stage = "description"
)

// ErrIncompleteDraft is returned when a persisted draft lacks a field its stage requires.
var ErrIncompleteDraft = errors.New("draft is missing fields required by its stage")

// Draft is the persisted form of a partially captured entry.
type Draft struct {
	Type        EntryType `json:"type" dynamodbav:"type"`
	Amount      *int64    `json:"amount" dynamodbav:"amount,omitempty"`
	Currency    *string   `json:"currency" dynamodbav:"currency,omitempty"`
	Category    *string   `json:"category" dynamodbav:"category,omitempty"`
	Description *string   `json:"description" dynamodbav:"description,omitempty"`
}

// SessionRecord is what the session store keeps per user.
type SessionRecord struct {
	Stage Stage `json:"stage" dynamodbav:"stage"`
	Draft Draft `json:"draft" dynamodbav:"draft"`
}

// Session is the in-memory wizard state. Each variant carries only the
// fields captured so far; a nil Session means the user has no active wizard.
type Session interface {
	Stage() Stage
	EntryType() EntryType
	isSession()
}

// AmountStep waits for the amount.
type AmountStep struct {
	Type EntryType
}

// CurrencyStep waits for the currency.
type CurrencyStep struct {
	Type   EntryType
	Amount int64
}

// CategoryStep waits for the category.
type CategoryStep struct {
	Type     EntryType
	Amount   int64
	Currency string
}

// DescriptionStep waits for the free-text description.
type DescriptionStep struct {
	Type     EntryType
	Amount   int64
	Currency string
	Category string
}

func (AmountStep) Stage() Stage      { return StageAmount }
func (CurrencyStep) Stage() Stage    { return StageCurrency }
func (CategoryStep) Stage() Stage    { return StageCategory }
func (DescriptionStep) Stage() Stage { return StageDescription }

func (s AmountStep) EntryType() EntryType      { return s.Type }
func (s CurrencyStep) EntryType() EntryType    { return s.Type }
func (s CategoryStep) EntryType() EntryType    { return s.Type }
func (s DescriptionStep) EntryType() EntryType { return s.Type }

func (AmountStep) isSession()      {}
func (CurrencyStep) isSession()    {}
func (CategoryStep) isSession()    {}
func (DescriptionStep) isSession() {}

// WithAmount moves the session to the currency step.
func (s AmountStep) WithAmount(amount int64) CurrencyStep {
	return CurrencyStep{Type: s.Type, Amount: amount}
}

// WithCurrency moves the session to the category step.
func (s CurrencyStep) WithCurrency(currency string) CategoryStep {
	return CategoryStep{Type: s.Type, Amount: s.Amount, Currency: currency}
}

// WithCategory moves the session to the description step.
func (s CategoryStep) WithCategory(category string) DescriptionStep {
	return DescriptionStep{Type: s.Type, Amount: s.Amount, Currency: s.Currency, Category: category}
}

// EncodeSession flattens a session into its persisted form.
// A nil session encodes to a record with StageNone.
func EncodeSession(s Session) SessionRecord {
	switch v := s.(type) {
	case AmountStep:
		return SessionRecord{Stage: StageAmount, Draft: Draft{Type: v.Type}}
	case CurrencyStep:
		return SessionRecord{Stage: StageCurrency, Draft: Draft{Type: v.Type, Amount: &v.Amount}}
	case CategoryStep:
		return SessionRecord{Stage: StageCategory, Draft: Draft{Type: v.Type, Amount: &v.Amount, Currency: &v.Currency}}
	case DescriptionStep:
		return SessionRecord{Stage: StageDescription, Draft: Draft{Type: v.Type, Amount: &v.Amount, Currency: &v.Currency, Category: &v.Category}}
	default:
		return SessionRecord{}
	}
}

// DecodeSession rebuilds the session variant from a persisted record.
// A record with StageNone decodes to nil.
func DecodeSession(rec SessionRecord) (Session, error) {
	entryType := rec.Draft.Type
	if entryType == "" {
		entryType = EXPENSE
	}

	switch rec.Stage {
	case StageNone:
		return nil, nil
	case StageAmount:
		return AmountStep{Type: entryType}, nil
	case StageCurrency:
		if rec.Draft.Amount == nil {
			return nil, fmt.Errorf("stage %s: %w", rec.Stage, ErrIncompleteDraft)
		}
		return CurrencyStep{Type: entryType, Amount: *rec.Draft.Amount}, nil
	case StageCategory:
		if rec.Draft.Amount == nil || rec.Draft.Currency == nil {
			return nil, fmt.Errorf("stage %s: %w", rec.Stage, ErrIncompleteDraft)
		}
		return CategoryStep{Type: entryType, Amount: *rec.Draft.Amount, Currency: *rec.Draft.Currency}, nil
	case StageDescription:
		if rec.Draft.Amount == nil || rec.Draft.Currency == nil || rec.Draft.Category == nil {
			return nil, fmt.Errorf("stage %s: %w", rec.Stage, ErrIncompleteDraft)
		}
		return DescriptionStep{
			Type:     entryType,
			Amount:   *rec.Draft.Amount,
			Currency: *rec.Draft.Currency,
			Category: *rec.Draft.Category,
		}, nil
	default:
		return nil, fmt.Errorf("unknown session stage %q", rec.Stage)
	}
}
