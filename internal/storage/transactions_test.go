package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStorage_SaveTransactions(t *testing.T) {
	tests := []struct {
		setup        func(*testing.T, *SQLiteStorage)
		validate     func(*testing.T, *SQLiteStorage)
		name         string
		transactions []model.Transaction
		wantInserted int
		wantErr      error
	}{
		{
			name:         "save new transactions",
			transactions: createTestTransactions(3),
			wantInserted: 3,
			validate: func(t *testing.T, s *SQLiteStorage) {
				t.Helper()
				txns, err := s.GetTransactions(context.Background(), service.TransactionFilter{})
				require.NoError(t, err)
				assert.Len(t, txns, 3)
			},
		},
		{
			name:         "already stored ids are ignored",
			transactions: createTestTransactions(3),
			setup: func(t *testing.T, s *SQLiteStorage) {
				t.Helper()
				mustSave(t, s, createTestTransactions(2)...)
			},
			wantInserted: 1,
			validate: func(t *testing.T, s *SQLiteStorage) {
				t.Helper()
				txns, err := s.GetTransactions(context.Background(), service.TransactionFilter{})
				require.NoError(t, err)
				assert.Len(t, txns, 3)
			},
		},
		{
			name:         "empty batch saves nothing",
			transactions: []model.Transaction{},
			wantInserted: 0,
		},
		{
			name:         "nil batch is rejected",
			transactions: nil,
			wantErr:      ErrNilParameter,
		},
		{
			name: "non-positive amount is rejected",
			transactions: func() []model.Transaction {
				txns := createTestTransactions(1)
				txns[0].Amount = decimal.Zero
				return txns
			}(),
			wantErr: ErrInvalidTransaction,
		},
		{
			name: "missing external id is rejected",
			transactions: func() []model.Transaction {
				txns := createTestTransactions(1)
				txns[0].ExternalID = ""
				return txns
			}(),
			wantErr: ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup := createTestStorage(t)
			defer cleanup()

			if tt.setup != nil {
				tt.setup(t, store)
			}

			inserted, err := store.SaveTransactions(context.Background(), tt.transactions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInserted, inserted)

			if tt.validate != nil {
				tt.validate(t, store)
			}
		})
	}
}

func TestSQLiteStorage_GetTransactionByID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	balance := decimal.RequireFromString("12345.67")
	want := model.Transaction{
		ExternalID:      "sms-1",
		Amount:          decimal.RequireFromString("500.5"),
		Direction:       model.DirectionCredit,
		Merchant:        "swiggy",
		AccountSuffix:   "4321",
		ReferenceNumber: "412345678901",
		UPIID:           "swiggy@icici",
		BalanceAfter:    &balance,
		Location:        "BANGALORE",
		PaymentMethod:   model.PaymentUPI,
		SenderIdentity:  "AD-ICICIB",
		Bank:            "ICICI",
		RawText:         "INR 500.50 credited to A/c XX4321",
		Timestamp:       time.Date(2024, 3, 15, 16, 0, 0, 123456789, time.FixedZone("IST", 5*3600+1800)),
	}
	mustSave(t, store, want)

	got, err := store.GetTransactionByID(ctx, "sms-1")
	require.NoError(t, err)

	assert.True(t, want.Amount.Equal(got.Amount), "amount %s", got.Amount)
	require.NotNil(t, got.BalanceAfter)
	assert.True(t, balance.Equal(*got.BalanceAfter))
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
	assert.Equal(t, want.Direction, got.Direction)
	assert.Equal(t, want.Merchant, got.Merchant)
	assert.Equal(t, want.AccountSuffix, got.AccountSuffix)
	assert.Equal(t, want.ReferenceNumber, got.ReferenceNumber)
	assert.Equal(t, want.UPIID, got.UPIID)
	assert.Equal(t, want.Location, got.Location)
	assert.Equal(t, want.PaymentMethod, got.PaymentMethod)
	assert.Equal(t, want.SenderIdentity, got.SenderIdentity)
	assert.Equal(t, want.Bank, got.Bank)
	assert.Equal(t, want.RawText, got.RawText)

	_, err = store.GetTransactionByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetTransactionByID(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestSQLiteStorage_GetTransactionByID_NoBalance(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	txn := createTestTransactions(1)[0]
	mustSave(t, store, txn)

	got, err := store.GetTransactionByID(context.Background(), txn.ExternalID)
	require.NoError(t, err)
	assert.Nil(t, got.BalanceAfter)
}

func TestSQLiteStorage_GetTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	txns := createTestTransactions(5)
	txns[4].Bank = "SBI"
	mustSave(t, store, txns...)

	since := testBaseTime.Add(time.Minute)
	until := testBaseTime.Add(3 * time.Minute)

	tests := []struct {
		name    string
		filter  service.TransactionFilter
		wantIDs []string
		wantErr error
	}{
		{
			name:    "no filter returns everything in time order",
			wantIDs: []string{"txn-001", "txn-002", "txn-003", "txn-004", "txn-005"},
		},
		{
			name:    "since and until are inclusive",
			filter:  service.TransactionFilter{Since: &since, Until: &until},
			wantIDs: []string{"txn-002", "txn-003", "txn-004"},
		},
		{
			name:    "bank filter ignores case",
			filter:  service.TransactionFilter{Bank: "sbi"},
			wantIDs: []string{"txn-005"},
		},
		{
			name:    "limit",
			filter:  service.TransactionFilter{Limit: 2},
			wantIDs: []string{"txn-001", "txn-002"},
		},
		{
			name:    "inverted range",
			filter:  service.TransactionFilter{Since: &until, Until: &since},
			wantErr: ErrInvalidDateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.GetTransactions(context.Background(), tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, externalIDs(got))
		})
	}
}

func TestSQLiteStorage_GetUncategorizedTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(4)
	mustSave(t, store, txns...)

	food, err := store.GetCategoryByName(ctx, "food")
	require.NoError(t, err)
	require.NoError(t, store.SaveCategorization(ctx, &model.Categorization{
		Transaction: txns[1],
		CategoryID:  food.ID,
		Confidence:  1,
		Source:      model.SourceUser,
	}))

	got, err := store.GetUncategorizedTransactions(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"txn-001", "txn-003", "txn-004"}, externalIDs(got))

	limited, err := store.GetUncategorizedTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"txn-001"}, externalIDs(limited))
}

func TestSQLiteStorage_FindDuplicateCandidates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	// Stored at base, +1m, +2m, +3m, +4m
	mustSave(t, store, createTestTransactions(5)...)

	tests := []struct {
		name      string
		txn       model.Transaction
		tolerance time.Duration
		wantIDs   []string
	}{
		{
			name:      "time window around the candidate",
			txn:       model.Transaction{Timestamp: testBaseTime.Add(2*time.Minute + 10*time.Second)},
			tolerance: 60 * time.Second,
			wantIDs:   []string{"txn-003", "txn-004"},
		},
		{
			name:      "window bounds are inclusive",
			txn:       model.Transaction{Timestamp: testBaseTime.Add(time.Minute)},
			tolerance: 60 * time.Second,
			wantIDs:   []string{"txn-001", "txn-002", "txn-003"},
		},
		{
			name: "reference match outside the window",
			txn: model.Transaction{
				Timestamp:       testBaseTime.Add(24 * time.Hour),
				ReferenceNumber: "REF000005",
			},
			tolerance: 60 * time.Second,
			wantIDs:   []string{"txn-005"},
		},
		{
			name:      "nothing nearby",
			txn:       model.Transaction{Timestamp: testBaseTime.Add(-time.Hour)},
			tolerance: 60 * time.Second,
			wantIDs:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindDuplicateCandidates(context.Background(), tt.txn, tt.tolerance)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, externalIDs(got))
		})
	}
}

func externalIDs(txns []model.Transaction) []string {
	if len(txns) == 0 {
		return nil
	}
	ids := make([]string, len(txns))
	for i, txn := range txns {
		ids[i] = txn.ExternalID
	}
	return ids
}
