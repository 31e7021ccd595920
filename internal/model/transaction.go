package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates whether money left or entered the account.
type Direction string

// Direction constants.
const (
	DirectionDebit   Direction = "debit"
	DirectionCredit  Direction = "credit"
	DirectionUnknown Direction = "unknown"
)

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionDebit, DirectionCredit, DirectionUnknown:
		return true
	}
	return false
}

// Payment method values detected in message bodies.
const (
	PaymentUPI        = "UPI"
	PaymentIMPS       = "IMPS"
	PaymentNEFT       = "NEFT"
	PaymentRTGS       = "RTGS"
	PaymentATM        = "ATM"
	PaymentCard       = "CARD"
	PaymentNetBanking = "NETBANKING"
	PaymentCheque     = "CHEQUE"
	PaymentAutoDebit  = "AUTODEBIT"
)

// Transaction is a structured financial event extracted from one bank SMS.
// Optional string fields are empty when the message did not carry them.
type Transaction struct {
	Timestamp       time.Time
	BalanceAfter    *decimal.Decimal
	ExternalID      string
	Direction       Direction
	Merchant        string
	AccountSuffix   string
	ReferenceNumber string
	UPIID           string
	Location        string
	PaymentMethod   string
	SenderIdentity  string
	Bank            string // Canonical bank name, empty when the sender is unknown
	RawText         string // Original message body, kept verbatim
	Amount          decimal.Decimal
}

// HasReference reports whether the transaction carries a bank reference number.
func (t *Transaction) HasReference() bool {
	return t.ReferenceNumber != ""
}

// Description returns the best human-facing label for the transaction.
func (t *Transaction) Description() string {
	switch {
	case t.Merchant != "":
		return t.Merchant
	case t.UPIID != "":
		return t.UPIID
	case t.Bank != "":
		return t.Bank
	}
	return t.SenderIdentity
}
