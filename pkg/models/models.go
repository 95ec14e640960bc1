package models

import (
	"fmt"
	"strings"
)

// EntryType defines whether a ledger entry takes money out or brings it in.
type EntryType string

const (
	EXPENSE EntryType = "expense"
	INCOME  EntryType = "income"
)

// User is the chat identity that sent a message.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName returns @username when available, otherwise the full name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Message is an inbound text message as delivered by the transport.
type Message struct {
	ID   int64  `json:"message_id"`
	Chat Chat   `json:"chat"`
	From User   `json:"from"`
	Text string `json:"text"`
	Date int64  `json:"date"`
}

// Update is one element of a long-poll batch. Message is nil for update
// kinds the bot does not handle.
type Update struct {
	ID      int64    `json:"update_id"`
	Message *Message `json:"message,omitempty"`
}

// LedgerEntry is an immutable expense or income record.
// The pair (ChatID, MessageID) is unique across all stored entries.
type LedgerEntry struct {
	ChatID        int64  `json:"chat_id" dynamodbav:"chat_id"`
	MessageID     int64  `json:"message_id" dynamodbav:"message_id"`
	UserID        int64  `json:"user_id" dynamodbav:"user_id"`
	Timestamp     int64  `json:"ts" dynamodbav:"ts"`
	LocalDateTime string `json:"date_iso" dynamodbav:"date_iso"`
	Amount        int64  `json:"amount" dynamodbav:"amount"`
	Currency      string `json:"currency" dynamodbav:"currency"`
	Category      string `json:"category" dynamodbav:"category"`
	Description   string `json:"description" dynamodbav:"description"`
	Payee         string `json:"payee" dynamodbav:"payee"`
}

// Key returns the idempotency key of the entry.
func (e LedgerEntry) Key() EntryKey {
	return EntryKey{ChatID: e.ChatID, MessageID: e.MessageID}
}

// LocalDate returns the calendar date part of LocalDateTime.
func (e LedgerEntry) LocalDate() string {
	date, _, _ := strings.Cut(e.LocalDateTime, " ")
	return date
}

// EntryKey is the (chat_id, message_id) idempotency key.
type EntryKey struct {
	ChatID    int64
	MessageID int64
}

func (k EntryKey) String() string {
	return fmt.Sprintf("%d:%d", k.ChatID, k.MessageID)
}
