package models

import "errors"

// ErrInsufficientBalance rejects a USE/CONVERT that would take a member's
// balance below zero. The ledger is left unchanged.
var ErrInsufficientBalance = errors.New("insufficient seed balance")

// ErrDuplicateTransaction signals that a ledger row already exists for the
// same (member, transaction reference) pair. Not a failure: callers return
// the prior result.
var ErrDuplicateTransaction = errors.New("transaction already processed")
