//go:build unit

package bankstream_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantabank/bankstream"
	"github.com/quantabank/bankstream/driver/inmemory"
)

func newTestEngine(t *testing.T, ledger *inmemory.Ledger, directory *inmemory.Directory) (*bankstream.Engine, *capturePublisher) {
	t.Helper()

	publisher := &capturePublisher{}

	failures, err := bankstream.NewFailureRecorder(ledger, publisher, nil)
	require.NoError(t, err)

	engine, err := bankstream.NewEngine(ledger, directory, failures, publisher, nil, nil)
	require.NoError(t, err)

	return engine, publisher
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	ledger, directory := seededStores()
	publisher := &capturePublisher{}
	failures, err := bankstream.NewFailureRecorder(ledger, publisher, nil)
	require.NoError(t, err)

	testCases := []struct {
		expectedError error
		ledger        bankstream.Ledger
		directory     bankstream.CustomerDirectory
		failures      *bankstream.FailureRecorder
		publisher     bankstream.Publisher
	}{
		{bankstream.InvalidArgumentError("ledger"), nil, directory, failures, publisher},
		{bankstream.InvalidArgumentError("customers"), ledger, nil, failures, publisher},
		{bankstream.InvalidArgumentError("failures"), ledger, directory, nil, publisher},
		{bankstream.InvalidArgumentError("publisher"), ledger, directory, failures, nil},
	}

	for _, testCase := range testCases {
		t.Run(string(testCase.expectedError.(bankstream.InvalidArgumentError)), func(t *testing.T) {
			engine, err := bankstream.NewEngine(
				testCase.ledger, testCase.directory, testCase.failures, testCase.publisher, nil, nil,
			)

			assert.Nil(t, engine)
			assert.Equal(t, testCase.expectedError, err)
		})
	}
}

func TestEngine_ProcessTransfer(t *testing.T) {
	ctx := context.Background()

	request := bankstream.TransferRequest{
		FromAccountNumber: "IL100001",
		ToAccountNumber:   "IL100002",
		Amount:            decimal.NewFromInt(100),
		Currency:          bankstream.USD,
		Description:       "rent",
	}

	t.Run("successful transfer", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, publisher := newTestEngine(t, ledger, directory)

		res, err := engine.ProcessTransfer(ctx, request)

		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, bankstream.TransactionCompleted, res.Status)
		assert.Equal(t, bankstream.EventTransaction, res.EventType)
		assert.Regexp(t, transactionIDPattern, res.TransactionID)
		assert.Equal(t, "Alice Cohen", res.FromAccount.CustomerName)
		assert.Equal(t, "Bob Levi", res.ToAccount.CustomerName)

		from, err := ledger.AccountByNumber(ctx, "IL100001")
		require.NoError(t, err)
		to, err := ledger.AccountByNumber(ctx, "IL100002")
		require.NoError(t, err)
		assert.True(t, from.Balance.Equal(decimal.NewFromInt(900)))
		assert.True(t, to.Balance.Equal(decimal.NewFromInt(600)))

		txn, err := ledger.TransactionByID(res.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, bankstream.TransactionCompleted, txn.Status)

		events := publisher.published()
		require.Len(t, events, 1)
		assert.Equal(t, bankstream.EventTransaction, events[0].EventType)
		assert.Equal(t, res.TransactionID, events[0].TransactionID)
		assert.True(t, events[0].FromAccount.BalanceBefore.Equal(decimal.NewFromInt(1000)))
		assert.True(t, events[0].FromAccount.BalanceAfter.Equal(decimal.NewFromInt(900)))
		assert.True(t, events[0].ToAccount.BalanceBefore.Equal(decimal.NewFromInt(500)))
		assert.True(t, events[0].ToAccount.BalanceAfter.Equal(decimal.NewFromInt(600)))
	})

	t.Run("non positive amount is rejected before touching the ledger", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, publisher := newTestEngine(t, ledger, directory)

		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
			invalid := request
			invalid.Amount = amount

			res, err := engine.ProcessTransfer(ctx, invalid)

			assert.Nil(t, res)
			assert.Equal(t, bankstream.InvalidArgumentError("amount"), err)
		}

		assert.Empty(t, publisher.published())
		assert.Empty(t, ledger.Transactions())
	})

	t.Run("unknown source account", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, _ := newTestEngine(t, ledger, directory)

		invalid := request
		invalid.FromAccountNumber = "IL999999"

		res, err := engine.ProcessTransfer(ctx, invalid)

		assert.Nil(t, res)
		var notFound *bankstream.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "account", notFound.Kind)
		assert.Equal(t, "IL999999", notFound.ID)
	})

	t.Run("unknown customer", func(t *testing.T) {
		ledger, _ := seededStores()
		directory := inmemory.NewDirectory()
		engine, publisher := newTestEngine(t, ledger, directory)

		res, err := engine.ProcessTransfer(ctx, request)

		assert.Nil(t, res)
		var notFound *bankstream.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "customer", notFound.Kind)
		assert.Empty(t, publisher.published())
	})

	t.Run("validation failure leaves no trace", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, publisher := newTestEngine(t, ledger, directory)

		invalid := request
		invalid.Amount = decimal.NewFromInt(99999)

		res, err := engine.ProcessTransfer(ctx, invalid)

		assert.Nil(t, res)
		var validationErr *bankstream.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "insufficient balance", validationErr.Reason)

		from, err := ledger.AccountByNumber(ctx, "IL100001")
		require.NoError(t, err)
		assert.True(t, from.Balance.Equal(decimal.NewFromInt(1000)))
		assert.Empty(t, ledger.Transactions())
		assert.Empty(t, publisher.published())
	})

	t.Run("rejected terminal write records a FAILED transaction", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, publisher := newTestEngine(t, ledger, directory)

		storeErr := errors.New("connection reset")
		ledger.FailNextCommit(storeErr)

		res, err := engine.ProcessTransfer(ctx, request)

		assert.Nil(t, res)
		var transferErr *bankstream.TransferError
		require.ErrorAs(t, err, &transferErr)
		assert.Equal(t, storeErr, transferErr.Cause)
		assert.ErrorIs(t, err, storeErr)

		// balances unchanged
		from, err := ledger.AccountByNumber(ctx, "IL100001")
		require.NoError(t, err)
		to, err := ledger.AccountByNumber(ctx, "IL100002")
		require.NoError(t, err)
		assert.True(t, from.Balance.Equal(decimal.NewFromInt(1000)))
		assert.True(t, to.Balance.Equal(decimal.NewFromInt(500)))

		// the failure record survived the rollback
		txn, err := ledger.TransactionByID(transferErr.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, bankstream.TransactionFailed, txn.Status)

		events := publisher.published()
		require.Len(t, events, 1)
		assert.Equal(t, bankstream.EventTransactionFailed, events[0].EventType)
		assert.True(t, events[0].FromAccount.BalanceAfter.Equal(events[0].FromAccount.BalanceBefore))
	})

	t.Run("self transfer is rejected by validation", func(t *testing.T) {
		ledger, directory := seededStores()
		engine, _ := newTestEngine(t, ledger, directory)

		invalid := request
		invalid.ToAccountNumber = invalid.FromAccountNumber

		res, err := engine.ProcessTransfer(ctx, invalid)

		assert.Nil(t, res)
		var validationErr *bankstream.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "cannot transfer to the same account", validationErr.Reason)
	})
}

func TestEngine_ProcessTransfer_ConservesMoney(t *testing.T) {
	ctx := context.Background()
	ledger, directory := seededStores()
	engine, publisher := newTestEngine(t, ledger, directory)

	const workers = 20

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		direction := i%2 == 0
		go func(reverse bool) {
			defer wg.Done()

			request := bankstream.TransferRequest{
				FromAccountNumber: "IL100001",
				ToAccountNumber:   "IL100002",
				Amount:            decimal.NewFromInt(10),
				Currency:          bankstream.USD,
			}
			if reverse {
				request.FromAccountNumber, request.ToAccountNumber = request.ToAccountNumber, request.FromAccountNumber
			}

			_, err := engine.ProcessTransfer(ctx, request)
			assert.NoError(t, err)
		}(direction)
	}
	wg.Wait()

	from, err := ledger.AccountByNumber(ctx, "IL100001")
	require.NoError(t, err)
	to, err := ledger.AccountByNumber(ctx, "IL100002")
	require.NoError(t, err)

	total := from.Balance.Add(to.Balance)
	assert.True(t, total.Equal(decimal.NewFromInt(1500)), "expected 1500 total, got %s", total)
	assert.Len(t, publisher.published(), workers)
	assert.Len(t, ledger.Transactions(), workers)
}
