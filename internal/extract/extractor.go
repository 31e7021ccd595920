// Package extract turns raw bank SMS messages into structured transactions.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/smsledger/internal/bank"
	"github.com/Veraticus/smsledger/internal/model"
)

// Rejection reasons.
var (
	ErrEmptyBody         = errors.New("empty message body")
	ErrNoAmount          = errors.New("no amount found")
	ErrMalformedAmount   = errors.New("malformed amount")
	ErrNonPositiveAmount = errors.New("amount is not positive")
)

// Namespace for name-based ids of messages that arrive without a source id.
var messageIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("smsledger:sms"))

const (
	maxRejectionSnippet  = 60
	externalIDSeparator  = "\x1f"
	externalIDTimeFormat = time.RFC3339Nano
)

// Rejection reports why a message produced no transaction. Most inbox content is not
// a bank transaction at all, so callers are expected to count these, not fail on them.
type Rejection struct {
	Reason  error
	Sender  string
	Snippet string
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return fmt.Sprintf("message from %q rejected: %v", r.Sender, r.Reason)
}

// Unwrap exposes the rejection reason to errors.Is.
func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Resolver maps a sender identity to its institution and rules.
type Resolver interface {
	Resolve(sender string) bank.Resolution
}

// Extractor applies a registry's rules to raw messages. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	resolver   Resolver
	strategies []MerchantStrategy
}

// New creates an extractor backed by the given resolver.
func New(resolver Resolver) *Extractor {
	return &Extractor{
		resolver:   resolver,
		strategies: DefaultMerchantStrategies(),
	}
}

// Extract turns one raw message into a transaction. Every failure is a *Rejection.
func (e *Extractor) Extract(msg model.RawMessage) (model.Transaction, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return model.Transaction{}, reject(msg, ErrEmptyBody)
	}

	res := e.resolver.Resolve(msg.Sender)
	rules := bank.Effective(res.Rules)
	text := strings.Join(strings.Fields(msg.Body), " ")

	balance, balanceSpans := findBalance(rules, text)

	amount, err := findAmount(rules, text, balanceSpans)
	if err != nil {
		return model.Transaction{}, reject(msg, err)
	}

	txn := model.Transaction{
		ExternalID:      externalID(msg),
		Amount:          amount,
		Direction:       ClassifyDirection(text),
		Merchant:        e.merchant(rules, text),
		AccountSuffix:   findAccountSuffix(text),
		ReferenceNumber: findReference(rules, text),
		UPIID:           findUPIID(text),
		Location:        findLocation(text),
		PaymentMethod:   DetectPaymentMethod(text),
		BalanceAfter:    balance,
		Timestamp:       msg.Timestamp,
		SenderIdentity:  msg.Sender,
		RawText:         msg.Body,
	}
	if res.Known {
		txn.Bank = res.Bank.CanonicalName
	}

	return txn, nil
}

func (e *Extractor) merchant(rules *bank.Rules, text string) string {
	if len(rules.Merchant) == 0 {
		return FirstMerchant(e.strategies, text)
	}

	strategies := make([]MerchantStrategy, 0, len(rules.Merchant)+len(e.strategies))
	for _, re := range rules.Merchant {
		strategies = append(strategies, PatternStrategy("bank", re))
	}
	strategies = append(strategies, e.strategies...)
	return FirstMerchant(strategies, text)
}

func externalID(msg model.RawMessage) string {
	if id := strings.TrimSpace(msg.ID); id != "" {
		return id
	}

	name := strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(msg.Sender)),
		msg.Timestamp.UTC().Format(externalIDTimeFormat),
		msg.Body,
	}, externalIDSeparator)
	return uuid.NewSHA1(messageIDNamespace, []byte(name)).String()
}

func reject(msg model.RawMessage, reason error) *Rejection {
	snippet := []rune(strings.Join(strings.Fields(msg.Body), " "))
	if len(snippet) > maxRejectionSnippet {
		snippet = append(snippet[:maxRejectionSnippet], '…')
	}
	return &Rejection{
		Reason:  reason,
		Sender:  msg.Sender,
		Snippet: string(snippet),
	}
}
