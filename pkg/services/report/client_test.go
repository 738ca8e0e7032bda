package report

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bc-tools/sales-board/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		MaxPages:      50,
		MaxRetries:    3,
		RetryWaitMin:  time.Millisecond,
		RetryWaitMax:  5 * time.Millisecond,
		RateLimitWait: time.Millisecond,
		PageDelay:     0,
	}
}

func testPeriod() domain.Period {
	day := time.Date(2025, time.November, 26, 0, 0, 0, 0, time.Local)
	return domain.Period{Filter: domain.FilterDaily, Start: day, End: day}
}

func TestFetchAll_ConcatenatesPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/laporan-penjualan-produk", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("nama_cabang"))
		assert.Equal(t, "2025-11-26", r.URL.Query().Get("dari_tanggal"))
		assert.Equal(t, "2025-11-26", r.URL.Query().Get("sampai_tanggal"))

		page := r.URL.Query().Get("page")
		next := fmt.Sprintf("%q", "http://next")
		if page == "3" {
			next = "null"
		}
		fmt.Fprintf(w, `{"data": [{"total_bayar": "%s000.00"}], "next_page_url": %s}`, page, next)
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Products, 7, testPeriod())

	require.Len(t, records, 3)
	for i, expected := range []int64{1000, 2000, 3000} {
		assert.True(t, records[i].Amount(Products).Equal(decimal.NewFromInt(expected)),
			"page %d amount = %s", i+1, records[i].Amount(Products))
	}
}

func TestFetchAll_RetriesRateLimit(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"total_pembayaran": 50000}], "next_page_url": null}`))
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Treatments, 3, testPeriod())

	require.Len(t, records, 1)
	assert.True(t, records[0].Amount(Treatments).Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestFetchAll_ExhaustsRetryBudgetOnServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Products, 3, testPeriod())

	assert.Empty(t, records)
	// initial attempt plus the retry budget
	assert.Equal(t, int32(4), attempts.Load())
}

func TestFetchAll_AbandonsOnClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Products, 3, testPeriod())

	assert.Empty(t, records)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestFetchAll_KeepsEarlierPagesOnLaterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"data": [{"total_bayar": "100"}], "next_page_url": "http://next"}`))
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Products, 3, testPeriod())

	require.Len(t, records, 1)
	assert.True(t, records[0].Amount(Products).Equal(decimal.NewFromInt(100)))
}

func TestFetchAll_StopsOnEmptyPage(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"data": [], "next_page_url": "http://next"}`))
	}))
	defer srv.Close()

	records := NewClient(testConfig(srv.URL)).FetchAll(context.Background(), Products, 3, testPeriod())

	assert.Empty(t, records)
	assert.Equal(t, int32(1), requests.Load())
}

func TestFetchAll_HonorsPageCeiling(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"data": [{"total_bayar": "1"}], "next_page_url": "http://next"}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxPages = 5

	records := NewClient(cfg).FetchAll(context.Background(), Products, 3, testPeriod())

	assert.Len(t, records, 5)
	assert.Equal(t, int32(5), requests.Load())
}

func TestMoney_DecodeShapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected int64
	}{
		{"numeric string", `{"total_bayar": "150000.00"}`, 150000},
		{"bare number", `{"total_bayar": 150000}`, 150000},
		{"missing field", `{}`, 0},
		{"null", `{"total_bayar": null}`, 0},
		{"malformed", `{"total_bayar": "abc"}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			require.NoError(t, json.Unmarshal([]byte(tt.body), &rec))
			assert.True(t, rec.Amount(Products).Equal(decimal.NewFromInt(tt.expected)),
				"got %s", rec.Amount(Products))
		})
	}
}
