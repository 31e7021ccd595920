package extract

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/smsledger/internal/model"
)

// RejectedMessage records one message of a batch that produced no transaction.
type RejectedMessage struct {
	Err    *Rejection
	Sender string
	Index  int // Position in the input batch
}

// BatchResult holds the accepted transactions and the rejections of one batch.
// Transactions keep the input order.
type BatchResult struct {
	Transactions []model.Transaction
	Rejections   []RejectedMessage
}

// Rejected returns the number of rejected messages.
func (r *BatchResult) Rejected() int {
	return len(r.Rejections)
}

// RejectionsByReason counts rejections per reason sentinel.
func (r *BatchResult) RejectionsByReason() map[error]int {
	counts := make(map[error]int)
	for _, rej := range r.Rejections {
		reason := rejectionReason(rej.Err)
		counts[reason]++
	}
	return counts
}

func rejectionReason(err error) error {
	for _, sentinel := range []error{ErrEmptyBody, ErrNoAmount, ErrMalformedAmount, ErrNonPositiveAmount} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return err
}

// ExtractBatch extracts every message. A rejected message never aborts the batch;
// only context cancellation does.
func (e *Extractor) ExtractBatch(ctx context.Context, messages []model.RawMessage) (BatchResult, error) {
	result := BatchResult{
		Transactions: make([]model.Transaction, 0, len(messages)),
	}

	for i, msg := range messages {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		txn, err := e.Extract(msg)
		if err != nil {
			var rej *Rejection
			if !errors.As(err, &rej) {
				rej = &Rejection{Reason: err, Sender: msg.Sender}
			}
			slog.Debug("Rejected message", "index", i, "sender", msg.Sender, "reason", rej.Reason)
			result.Rejections = append(result.Rejections, RejectedMessage{
				Index:  i,
				Sender: msg.Sender,
				Err:    rej,
			})
			continue
		}

		result.Transactions = append(result.Transactions, txn)
	}

	return result, nil
}
