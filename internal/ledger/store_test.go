package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-ledger-ingestion-service/internal/models"
	"golang-ledger-ingestion-service/pkg/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAccount(id string) *models.Account {
	return &models.Account{
		AccountID:     id,
		Name:          id,
		Institution:   "TDCanada",
		AmountInitial: decimal.RequireFromString("1000.00"),
		DateStart:     day("2020-01-05"),
	}
}

func testTransaction(id, account, amount, date string) *models.Transaction {
	return &models.Transaction{
		TransactionID:    id,
		TransactionIDRaw: "RAW " + id,
		AccountID:        account,
		Amount:           decimal.RequireFromString(amount),
		Date:             day(date),
	}
}

func TestUpsertAccounts_CreateThenUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, updated, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, updated)

	changed := testAccount("chequing")
	changed.Name = "Main Chequing"
	changed.AmountInitial = decimal.RequireFromString("1234.56")

	created, updated, err = store.UpsertAccounts(ctx, []*models.Account{changed})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)

	got, err := store.GetAccount(ctx, "chequing")
	require.NoError(t, err)
	assert.Equal(t, "Main Chequing", got.Name)
	assert.True(t, got.AmountInitial.Equal(decimal.RequireFromString("1234.56")))
}

func TestGetAccount_Unknown(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetAccount(context.Background(), "nope")
	ledgerErr, ok := errors.AsLedgerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeUnknownAccount, ledgerErr.Code)
}

func TestReconcile_IdempotentDoubleImport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)

	candidates := []*models.Transaction{
		testTransaction("t1", "chequing", "-50.04", "2020-01-01"),
		testTransaction("t2", "chequing", "-13.33", "2020-01-01"),
		testTransaction("t3", "chequing", "100.00", "2020-01-02"),
	}

	engine := NewEngine(store)

	first, err := engine.Reconcile(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, first.Updated)

	second, err := engine.Reconcile(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestReconcile_UpdatesChangedRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)

	engine := NewEngine(store)

	_, err = engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "-50.04", "2020-01-01"),
	})
	require.NoError(t, err)

	// Same id, corrected amount and date at the source.
	result, err := engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "-55.00", "2020-01-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	transactions, err := store.TransactionsBetween(ctx, nil, day("2020-01-01"), day("2020-01-31"))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.True(t, transactions[0].Amount.Equal(decimal.RequireFromString("-55.00")))
	assert.Equal(t, "2020-01-03", transactions[0].Date.Format(models.DateFormat))
}

func TestReconcile_EquivalentAmountIsNotAnUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)

	engine := NewEngine(store)

	_, err = engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "5.1", "2020-01-01"),
	})
	require.NoError(t, err)

	result, err := engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "5.1000", "2020-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
}

func TestReconcile_UnknownAccountFailsBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	engine := NewEngine(store)

	_, err := engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "ghost", "1.00", "2020-01-01"),
	})
	require.Error(t, err)

	ledgerErr, ok := errors.AsLedgerError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeUnknownAccount, ledgerErr.Code)

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "Failed chunk must leave nothing behind")
}

func TestReconcile_ChunkingCoversWholeBatch(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)

	var candidates []*models.Transaction
	for i := 0; i < 7; i++ {
		candidates = append(candidates,
			testTransaction(string(rune('a'+i)), "chequing", "1.00", "2020-01-01"))
	}

	engine := NewEngine(store, WithChunkSize(2))

	result, err := engine.Reconcile(ctx, candidates)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Created)

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestApplyVendorMap(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)

	engine := NewEngine(store)
	_, err = engine.Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "-4.50", "2020-01-01"),
		testTransaction("t2", "chequing", "-4.50", "2020-01-02"),
	})
	require.NoError(t, err)

	stamped, err := store.ApplyVendorMap(ctx, map[string]string{
		"RAW t1": "coffee-shop",
		"RAW t2": "coffee-shop",
		"RAW tX": "never-imported",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stamped)

	vendorMap, err := store.LoadVendorMap(ctx)
	require.NoError(t, err)
	assert.Len(t, vendorMap, 3, "Mapping persists even for raw ids not yet imported")
	assert.Equal(t, "coffee-shop", vendorMap["RAW t1"])
}

func TestDateBounds(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, ok, err := store.DateBounds(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "Empty ledger has no bounds")

	_, _, err = store.UpsertAccounts(ctx, []*models.Account{testAccount("chequing")})
	require.NoError(t, err)
	_, err = NewEngine(store).Reconcile(ctx, []*models.Transaction{
		testTransaction("t1", "chequing", "1.00", "2020-01-03"),
		testTransaction("t2", "chequing", "1.00", "2020-02-14"),
	})
	require.NoError(t, err)

	earliest, latest, ok, err := store.DateBounds(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2020-01-03", earliest.Format(models.DateFormat))
	assert.Equal(t, "2020-02-14", latest.Format(models.DateFormat))
}

func TestTransactionsBetween_FiltersAndOrders(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertAccounts(ctx, []*models.Account{
		testAccount("chequing"), testAccount("savings"),
	})
	require.NoError(t, err)

	_, err = NewEngine(store).Reconcile(ctx, []*models.Transaction{
		testTransaction("t2", "chequing", "2.00", "2020-01-02"),
		testTransaction("t1", "chequing", "1.00", "2020-01-01"),
		testTransaction("t3", "savings", "3.00", "2020-01-03"),
		testTransaction("t4", "chequing", "4.00", "2020-03-01"),
	})
	require.NoError(t, err)

	got, err := store.TransactionsBetween(ctx, []string{"chequing"}, day("2020-01-01"), day("2020-01-31"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TransactionID)
	assert.Equal(t, "t2", got[1].TransactionID)

	all, err := store.TransactionsBetween(ctx, nil, day("2020-01-01"), day("2020-01-31"))
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestChartConfig_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetChartConfig(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.UpsertChartConfig(ctx, &ChartConfig{
		DateFrom: day("2020-01-01"), DateTo: day("2020-06-30"),
	}))
	require.NoError(t, store.UpsertChartConfig(ctx, &ChartConfig{
		DateFrom: day("2020-01-01"), DateTo: day("2020-12-31"),
	}))

	cfg, ok, err := store.GetChartConfig(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2020-12-31", cfg.DateTo.Format(models.DateFormat))
}

func TestRecordImportAudit(t *testing.T) {
	store := openTestStore(t)

	audit := &ImportAudit{
		SourceDir:           "/data/standardized",
		AccountsCreated:     2,
		TransactionsCreated: 40,
	}
	id, err := store.RecordImportAudit(context.Background(), audit)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, audit.ID)
}
