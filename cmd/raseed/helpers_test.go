package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/raseed/internal/common"
	"github.com/Veraticus/raseed/internal/llm"
	"github.com/Veraticus/raseed/internal/model"
	"github.com/Veraticus/raseed/internal/receipt"
	"github.com/Veraticus/raseed/internal/storage"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		want     time.Time
		endOfDay bool
		wantErr  bool
	}{
		{name: "empty", value: ""},
		{name: "start of day", value: "2025-03-30", want: time.Date(2025, 3, 30, 0, 0, 0, 0, time.Local)},
		{name: "end of day", value: "2025-03-30", endOfDay: true, want: time.Date(2025, 3, 30, 23, 59, 59, 999999999, time.Local)},
		{name: "invalid", value: "30/03/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDay(tt.value, tt.endOfDay)
			if tt.wantErr {
				var userErr *common.UserError
				require.ErrorAs(t, err, &userErr)
				assert.Contains(t, userErr.UserMessage, "YYYY-MM-DD")
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestDecodeReceipts(t *testing.T) {
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

	receipts, err := decodeReceipts([]byte(importJSON), now)
	require.NoError(t, err)
	require.Len(t, receipts, 2)

	assert.Equal(t, "r-grocery-1", receipts[0].ID)
	assert.Equal(t, model.SourceManual, receipts[0].Source)
	assert.Equal(t, now, receipts[0].CreatedAt)
	assert.Equal(t, receipts[0].GenerateHash(), receipts[0].Hash)
	assert.NotEmpty(t, receipts[1].ID)
	assert.Equal(t, "Transport", receipts[1].Category)

	t.Run("defaults", func(t *testing.T) {
		receipts, err := decodeReceipts([]byte(`[{"merchant_name": "Shop", "total_amount": 3}]`), now)
		require.NoError(t, err)
		assert.Equal(t, now, receipts[0].Date)
		assert.Equal(t, model.DefaultCategory, receipts[0].Category)
	})

	for name, data := range map[string]string{
		"not json":   "{",
		"not array":  `{"merchant_name": "Shop"}`,
		"empty list": "[]",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decodeReceipts([]byte(data), now)
			var userErr *common.UserError
			assert.ErrorAs(t, err, &userErr)
		})
	}
}

func TestDefaultBackupPath(t *testing.T) {
	now := time.Date(2025, 4, 2, 9, 5, 7, 0, time.Local)
	got := defaultBackupPath("/data/raseed/raseed.db", now)
	assert.Equal(t, filepath.Join("/data/raseed", "backups", "raseed-20250402-090507.db"), got)
}

func TestResolveReceipt(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "raseed.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	day := time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC)
	_, err = store.SaveReceipts(ctx, []model.Receipt{
		{ID: "abc123", MerchantName: "A", TotalAmount: 1, Date: day},
		{ID: "abd456", MerchantName: "B", TotalAmount: 2, Date: day},
	})
	require.NoError(t, err)

	r, err := resolveReceipt(ctx, store, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "A", r.MerchantName)

	r, err = resolveReceipt(ctx, store, "abd")
	require.NoError(t, err)
	assert.Equal(t, "B", r.MerchantName)

	_, err = resolveReceipt(ctx, store, "ab")
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, userErr.UserMessage, "matches 2 receipts")

	_, err = resolveReceipt(ctx, store, "zzz")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

type countingBar struct {
	mu    sync.Mutex
	count int
}

func (b *countingBar) Add(n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count += n
	return nil
}

var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, pngData, 0600))
		paths = append(paths, path)
	}
	paths = append(paths, filepath.Join(dir, "missing.png"))

	var inFlight, peak atomic.Int32
	client := llm.ClientFunc(func(_ context.Context, _ llm.Request) (llm.Response, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return llm.Response{Text: `{"merchant_name": "Shop", "total_amount": 4.2, "date": "2025-03-30"}`}, nil
	})

	bar := &countingBar{}
	analyzer := receipt.NewAnalyzer(client, "test-model", nil)
	results := scanImages(context.Background(), analyzer, paths, 2, bar)

	require.Len(t, results, len(paths))
	for i, res := range results {
		assert.Equal(t, paths[i], res.path)
	}
	for _, res := range results[:4] {
		require.NoError(t, res.err)
		assert.Equal(t, "Shop", res.receipt.MerchantName)
	}
	assert.True(t, errors.Is(results[4].err, os.ErrNotExist))
	assert.Equal(t, len(paths), bar.count)
	assert.LessOrEqual(t, peak.Load(), int32(2))

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results := scanImages(ctx, analyzer, paths[:2], 0, nil)
		for _, res := range results {
			assert.ErrorIs(t, res.err, context.Canceled)
		}
	})
}

func TestScanImagesWithDiscountSaves(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "good.png"), filepath.Join(dir, "coupon.png")}
	for _, path := range paths {
		require.NoError(t, os.WriteFile(path, pngData, 0600))
	}

	var calls atomic.Int32
	client := llm.ClientFunc(func(_ context.Context, _ llm.Request) (llm.Response, error) {
		if calls.Add(1) == 1 {
			return llm.Response{Text: `{"merchant_name": "Fresh Market", "total_amount": 3, "date": "2025-03-30",
				"items": [{"name": "Apples", "price": 3, "quantity": 1}]}`}, nil
		}
		return llm.Response{Text: `{"merchant_name": "Corner Shop", "total_amount": 8.5, "date": "2025-03-31",
			"items": [{"name": "Milk", "price": 4.5}, {"name": "Bread", "price": 5}, {"name": "Coupon", "price": -1}]}`}, nil
	})

	results := scanImages(context.Background(), receipt.NewAnalyzer(client, "test-model", nil), paths, 1, nil)
	var scanned []model.Receipt
	for _, res := range results {
		require.NoError(t, res.err)
		scanned = append(scanned, *res.receipt)
	}

	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "raseed.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	require.NoError(t, store.Migrate(ctx))

	inserted, err := store.SaveReceipts(ctx, scanned)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
}
