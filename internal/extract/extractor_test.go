package extract

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/bank"
	"github.com/Veraticus/smsledger/internal/model"
)

var testTime = time.Date(2026, 1, 3, 10, 15, 0, 0, time.UTC)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	registry, err := bank.NewDefaultRegistry()
	require.NoError(t, err)
	return New(registry)
}

func msg(sender, body string) model.RawMessage {
	return model.RawMessage{Sender: sender, Body: body, Timestamp: testTime}
}

func TestExtract_DebitWithBalanceAndReference(t *testing.T) {
	e := newTestExtractor(t)
	body := "Rs.500.00 debited from A/c XX1234 on 03-01-26. Avl Bal Rs.10000.00. Ref No 123456789012"

	txn, err := e.Extract(msg("VM-HDFCBK", body))
	require.NoError(t, err)

	assert.Equal(t, "500.00", txn.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionDebit, txn.Direction)
	assert.Equal(t, "1234", txn.AccountSuffix)
	assert.Equal(t, "123456789012", txn.ReferenceNumber)
	require.NotNil(t, txn.BalanceAfter)
	assert.Equal(t, "10000.00", txn.BalanceAfter.StringFixed(2))
	assert.Empty(t, txn.Merchant)
	assert.Equal(t, "HDFC", txn.Bank)
	assert.Equal(t, "VM-HDFCBK", txn.SenderIdentity)
	assert.Equal(t, body, txn.RawText)
	assert.Equal(t, testTime, txn.Timestamp)
	assert.NotEmpty(t, txn.ExternalID)
}

func TestExtract_Rejections(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		want error
		name string
		body string
	}{
		{name: "otp", body: "Your OTP is 482910", want: ErrNoAmount},
		{name: "promotion", body: "Get 20% cashback on your next order!", want: ErrNoAmount},
		{name: "empty", body: "   ", want: ErrEmptyBody},
		{name: "zero amount", body: "Rs.0.00 debited from A/c XX1234", want: ErrNonPositiveAmount},
		{name: "negative amount", body: "Rs.-500.00 debited from A/c XX1234", want: ErrNonPositiveAmount},
		{name: "only a balance", body: "Avl Bal Rs.10000.00 as of today", want: ErrNoAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(msg("HDFCBK", tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var rej *Rejection
			require.True(t, errors.As(err, &rej))
			assert.Equal(t, "HDFCBK", rej.Sender)
		})
	}
}

func TestExtract_MalformedFields(t *testing.T) {
	registry, err := bank.NewRegistry([]bank.Definition{
		{
			CanonicalName: "ODD",
			Aliases:       []string{"ODDBNK"},
			Rules: &bank.RuleSet{
				Amount:  `amt\s*([0-9a-z.]+)`,
				Balance: `bal\s*:\s*([a-z0-9./]+)`,
			},
		},
	})
	require.NoError(t, err)
	e := New(registry)

	_, err = e.Extract(msg("ODDBNK", "amt 12x4 debited"))
	assert.ErrorIs(t, err, ErrMalformedAmount)

	txn, err := e.Extract(msg("ODDBNK", "amt 100 debited. Bal: n/a"))
	require.NoError(t, err)
	assert.Equal(t, "100.00", txn.Amount.StringFixed(2))
	assert.Nil(t, txn.BalanceAfter, "unparseable balance is absent, not a rejection")
}

func TestExtract_ATMWithdrawal(t *testing.T) {
	e := newTestExtractor(t)

	txn, err := e.Extract(msg("VM-HDFCBK", "Rs. 1,234 withdrawn at ATM in Mumbai. Avl Bal Rs 5,000"))
	require.NoError(t, err)
	assert.Equal(t, "1234.00", txn.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionDebit, txn.Direction)
	assert.Empty(t, txn.Merchant, "the machine is not a merchant")
	assert.Equal(t, "Mumbai", txn.Location)
	assert.Equal(t, model.PaymentATM, txn.PaymentMethod)
}

func TestExtract_GarbledLiterals(t *testing.T) {
	e := newTestExtractor(t)

	rejected := []string{
		"Rs 5O0.00 debited from a/c XX1234",
		"Rs 12x4 debited from a/c XX1234",
		"INR 1,2a3.00 spent on card XX5678",
	}
	for _, body := range rejected {
		t.Run(body, func(t *testing.T) {
			_, err := e.Extract(msg("VM-HDFCBK", body))
			assert.ErrorIs(t, err, ErrMalformedAmount)
		})
	}

	txn, err := e.Extract(msg("VM-HDFCBK", "Rs 500 debited. Avl Bal: Rs 1,2a3"))
	require.NoError(t, err)
	assert.Equal(t, "500.00", txn.Amount.StringFixed(2))
	assert.Nil(t, txn.BalanceAfter)

	txn, err = e.Extract(msg("VM-HDFCBK", "Rs.750.00.Avl Bal Rs.9,250.00."))
	require.NoError(t, err)
	assert.Equal(t, "750.00", txn.Amount.StringFixed(2))
	require.NotNil(t, txn.BalanceAfter)
	assert.Equal(t, "9250.00", txn.BalanceAfter.StringFixed(2))
}

func TestExtract_BankFormats(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name      string
		sender    string
		body      string
		amount    string
		direction model.Direction
		merchant  string
		account   string
		reference string
		upi       string
		method    string
		bank      string
		balance   string
	}{
		{
			name:      "hdfc upi sent",
			sender:    "AD-HDFCBK",
			body:      "Sent Rs.500.00 From HDFC Bank A/C *1234 To SWIGGY On 03/01/26 Ref 123456789012 Not You? Call 18002586161",
			amount:    "500.00",
			direction: model.DirectionDebit,
			merchant:  "SWIGGY",
			account:   "1234",
			reference: "123456789012",
			bank:      "HDFC",
		},
		{
			name:      "sbi upi without currency marker",
			sender:    "VM-SBIUPI",
			body:      "Dear UPI user A/C X1234 debited by 500.0 on date 03Jan26 trf to SWIGGY Refno 123456789012. If not u? call 1800111109. -SBI",
			amount:    "500.00",
			direction: model.DirectionDebit,
			merchant:  "SWIGGY",
			account:   "1234",
			reference: "123456789012",
			method:    model.PaymentUPI,
			bank:      "SBI",
		},
		{
			name:      "icici payee before credited",
			sender:    "AD-ICICIB",
			body:      "ICICI Bank Acct XX123 debited for Rs 500.00 on 03-Jan-26; SWIGGY credited. UPI:123456789012. Call 18002662 for dispute.",
			amount:    "500.00",
			direction: model.DirectionDebit,
			merchant:  "SWIGGY",
			account:   "123",
			reference: "123456789012",
			method:    model.PaymentUPI,
			bank:      "ICICI",
		},
		{
			name:      "axis card with available limit",
			sender:    "AXISBK",
			body:      "Spent INR 1,234.00 Axis Bank Card no. XX5678 03-01-26 14:22:10 IST SWIGGY Avl Lmt: INR 50,000.00 Not you? SMS BLOCK 5678 to 919951860002",
			amount:    "1234.00",
			direction: model.DirectionDebit,
			merchant:  "SWIGGY",
			account:   "5678",
			method:    model.PaymentCard,
			bank:      "AXIS",
			balance:   "50000.00",
		},
		{
			name:      "credit from vpa",
			sender:    "HDFCBK",
			body:      "Rs.1,000.00 credited to A/c XX1234 from VPA john.doe@okaxis on 05-01-26. UPI Ref 987654321098",
			amount:    "1000.00",
			direction: model.DirectionCredit,
			merchant:  "john doe",
			account:   "1234",
			reference: "987654321098",
			upi:       "john.doe@okaxis",
			method:    model.PaymentUPI,
			bank:      "HDFC",
		},
		{
			name:      "unknown sender uses generic rules",
			sender:    "+919876543210",
			body:      "Paid Rs.199 to NETFLIX via NEFT",
			amount:    "199.00",
			direction: model.DirectionDebit,
			merchant:  "NETFLIX",
			method:    model.PaymentNEFT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn, err := e.Extract(msg(tt.sender, tt.body))
			require.NoError(t, err)

			assert.Equal(t, tt.amount, txn.Amount.StringFixed(2))
			assert.Equal(t, tt.direction, txn.Direction)
			assert.Equal(t, tt.merchant, txn.Merchant)
			assert.Equal(t, tt.account, txn.AccountSuffix)
			assert.Equal(t, tt.reference, txn.ReferenceNumber)
			assert.Equal(t, tt.upi, txn.UPIID)
			assert.Equal(t, tt.bank, txn.Bank)
			if tt.method != "" {
				assert.Equal(t, tt.method, txn.PaymentMethod)
			}
			if tt.balance != "" {
				require.NotNil(t, txn.BalanceAfter)
				assert.Equal(t, tt.balance, txn.BalanceAfter.StringFixed(2))
			}
		})
	}
}

func TestExtract_Location(t *testing.T) {
	e := newTestExtractor(t)

	txn, err := e.Extract(msg("KOTAKB", "Rs.450 spent on card XX4321 at CAFE COFFEE DAY in BENGALURU on 03-01-26"))
	require.NoError(t, err)
	assert.Equal(t, "CAFE COFFEE DAY", txn.Merchant)
	assert.Equal(t, "BENGALURU", txn.Location)
	assert.Equal(t, "4321", txn.AccountSuffix)
}

func TestExtract_ExternalID(t *testing.T) {
	e := newTestExtractor(t)
	m := msg("HDFCBK", "Rs.500.00 debited from A/c XX1234")

	first, err := e.Extract(m)
	require.NoError(t, err)
	second, err := e.Extract(m)
	require.NoError(t, err)
	assert.Equal(t, first.ExternalID, second.ExternalID, "same message yields the same id")

	m.Timestamp = m.Timestamp.Add(time.Second)
	third, err := e.Extract(m)
	require.NoError(t, err)
	assert.NotEqual(t, first.ExternalID, third.ExternalID)

	m.ID = "sms-42"
	withID, err := e.Extract(m)
	require.NoError(t, err)
	assert.Equal(t, "sms-42", withID.ExternalID)
}

func TestExtract_Concurrent(t *testing.T) {
	e := newTestExtractor(t)
	body := "Rs.500.00 debited from A/c XX1234 on 03-01-26. Avl Bal Rs.10000.00. Ref No 123456789012"

	var wg sync.WaitGroup
	results := make([]model.Transaction, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			txn, err := e.Extract(msg("HDFCBK", body))
			assert.NoError(t, err)
			results[i] = txn
		}(i)
	}
	wg.Wait()

	for _, txn := range results {
		assert.Equal(t, results[0].ExternalID, txn.ExternalID)
		assert.True(t, results[0].Amount.Equal(txn.Amount))
	}
}

func TestAmountInvariant(t *testing.T) {
	e := newTestExtractor(t)
	bodies := []string{
		"Rs.500.00 debited from A/c XX1234",
		"INR 0.004 debited from A/c XX1234",
		"₹ 12,34,567.891 credited to A/c XX1234",
		"Rs.-1 debited",
		"Rs. 0 credited",
	}

	for _, body := range bodies {
		txn, err := e.Extract(msg("HDFCBK", body))
		if err != nil {
			continue
		}
		assert.True(t, txn.Amount.IsPositive(), "body %q", body)
	}
}
