package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferMovesWholeBalance(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.register(t, "B")
	e.setBalance(t, "A", "10")
	ctx := context.Background()

	bal, err := e.transfer.Transfer(ctx, "A", "B", dec("10"))
	require.NoError(t, err)
	assert.True(t, bal.IsZero())
	assert.True(t, e.balance(t, "A").IsZero())
	assert.True(t, e.balance(t, "B").Equal(dec("35")))

	hist, err := e.transfer.History(ctx, "A", 1)
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, 1, hist.Pages)
	assert.Equal(t, domain.DirectionOut, hist.Items[0].Direction)
	assert.Equal(t, "B", hist.Items[0].Counterpart)
	assert.True(t, hist.Items[0].Amount.Equal(dec("10")))
	assert.Equal(t, "2024-06-01 10:00", hist.Items[0].Date)

	hist, err = e.transfer.History(ctx, "B", 1)
	require.NoError(t, err)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, domain.DirectionIn, hist.Items[0].Direction)
	assert.Equal(t, "A", hist.Items[0].Counterpart)
}

func TestTransferRejections(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.register(t, "B")
	ctx := context.Background()

	tests := []struct {
		name   string
		from   string
		to     string
		amount string
		want   error
	}{
		{"zero", "A", "B", "0", domain.ErrInvalidAmount},
		{"negative", "A", "B", "-1", domain.ErrInvalidAmount},
		{"sub cent", "A", "B", "0.001", domain.ErrInvalidAmount},
		{"missing receiver", "A", "Z", "1", domain.ErrAccountNotFound},
		{"missing sender", "Z", "A", "1", domain.ErrAccountNotFound},
		{"insufficient", "A", "B", "25.01", domain.ErrInsufficientBalance},
		{"self", "A", "A", "1", domain.ErrSelfTransfer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.transfer.Transfer(ctx, tt.from, tt.to, dec(tt.amount))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.True(t, e.balance(t, "A").Equal(dec("25")))
	assert.True(t, e.balance(t, "B").Equal(dec("25")))
	hist, err := e.transfer.History(ctx, "A", 1)
	require.NoError(t, err)
	assert.Empty(t, hist.Items)
	assert.Equal(t, 0, hist.Pages)
}

func TestSelfTransferWhenAllowed(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.transfer.AllowSelfTransfer = true
	ctx := context.Background()

	bal, err := e.transfer.Transfer(ctx, "A", "A", dec("5"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("25")))

	hist, err := e.transfer.History(ctx, "A", 1)
	require.NoError(t, err)
	assert.Len(t, hist.Items, 1)

	_, err = e.transfer.Transfer(ctx, "A", "A", dec("26"))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestHistoryPaging(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.register(t, "B")
	e.setBalance(t, "A", "1000")
	ctx := context.Background()

	for i := 1; i <= 23; i++ {
		_, err := e.transfer.Transfer(ctx, "A", "B", dec("1"))
		require.NoError(t, err)
		e.clock.Advance(time.Minute)
	}

	first, err := e.transfer.History(ctx, "A", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 3, first.Pages)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, "2024-06-01 10:22", first.Items[0].Date)

	last, err := e.transfer.History(ctx, "A", 3)
	require.NoError(t, err)
	assert.Len(t, last.Items, 3)
	assert.Equal(t, "2024-06-01 10:00", last.Items[2].Date)

	beyond, err := e.transfer.History(ctx, "A", 9)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	huge, err := e.transfer.History(ctx, "A", math.MaxInt64/10+1)
	require.NoError(t, err)
	assert.Empty(t, huge.Items)
	assert.Equal(t, 3, huge.Pages)

	_, err = e.transfer.History(ctx, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestOppositeTransfersDoNotLoseMoney(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	e.register(t, "B")
	e.setBalance(t, "A", "100")
	e.setBalance(t, "B", "100")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = e.transfer.Transfer(context.Background(), "A", "B", dec("3"))
		}()
		go func() {
			defer wg.Done()
			_, _ = e.transfer.Transfer(context.Background(), "B", "A", dec("2"))
		}()
	}
	wg.Wait()

	a, b := e.balance(t, "A"), e.balance(t, "B")
	assert.True(t, a.Add(b).Equal(dec("200")))
	assert.False(t, a.IsNegative())
	assert.False(t, b.IsNegative())
}

func TestAddExternalReward(t *testing.T) {
	e := newEnv(t)
	e.register(t, "A")
	ctx := context.Background()

	bal, err := e.transfer.AddExternalReward(ctx, "A", dec("7.5"))
	require.NoError(t, err)
	assert.Equal(t, "32.5", bal.String())

	_, err = e.transfer.AddExternalReward(ctx, "A", dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = e.transfer.AddExternalReward(ctx, "missing", dec("1"))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	logs, err := e.audit.UserLogs(ctx, "A", 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditActionExternalReward, logs[0].Action)
}
