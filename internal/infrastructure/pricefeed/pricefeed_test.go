package pricefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

const (
	timeAddr  = "0xb54f16fB19478766A268F172C9480f8da1a7c9C3"
	wmemoAddr = "0x0da67235dD5787D67955420C84ca1cEcd4E5Bb3b"
)

func TestNomicsClient_GetPrices(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/currencies/ticker", r.URL.Path)
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"TIME5","symbol":"TIME","price":"10.00","price_date":"2021-12-01T00:00:00Z"},
			{"id":"WMEMO","symbol":"WMEMO","price":"50.25"}
		]`))
	}))
	defer server.Close()

	c := NewNomicsClient(server.URL+"/v1/", "secret", 2*time.Second, nil)
	prices, err := c.GetPrices(context.Background(), []string{"TIME5", "WMEMO"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TIME5": "10.00", "WMEMO": "50.25"}, prices)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, "secret", q.Get("key"))
	assert.Equal(t, "TIME5,WMEMO", q.Get("ids"))
	assert.Equal(t, "nomics", c.Name())
}

func TestNomicsClient_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewNomicsClient(server.URL, "bad", time.Second, nil).GetPrices(context.Background(), []string{"TIME5"})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.False(t, statusErr.Retryable())
}

func TestNomicsClient_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"oops":`))
	}))
	defer server.Close()

	_, err := NewNomicsClient(server.URL, "k", time.Second, nil).GetPrices(context.Background(), []string{"TIME5"})
	assert.ErrorIs(t, err, entity.ErrMalformedResponse)
}

func TestNomicsClient_EmptyTickersNoCall(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits.Add(1) }))
	defer server.Close()

	prices, err := NewNomicsClient(server.URL, "k", time.Second, nil).GetPrices(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
	assert.Equal(t, int32(0), hits.Load())
}

func TestStatusError_Retryable(t *testing.T) {
	assert.True(t, (&StatusError{Code: 429}).Retryable())
	assert.True(t, (&StatusError{Code: 503}).Retryable())
	assert.False(t, (&StatusError{Code: 404}).Retryable())
}

func TestDEXScreenerClient_GetPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/tokens/v1/avalanche/"))
		_, _ = w.Write([]byte(`[
			{"baseToken":{"address":"` + strings.ToLower(timeAddr) + `","symbol":"TIME"},"quoteToken":{"symbol":"WAVAX"},"priceUsd":"11.00","liquidity":{"usd":900000}},
			{"baseToken":{"address":"` + timeAddr + `","symbol":"TIME"},"quoteToken":{"symbol":"MIM"},"priceUsd":"10.00","liquidity":{"usd":1000}},
			{"baseToken":{"address":"` + wmemoAddr + `","symbol":"wMEMO"},"quoteToken":{"symbol":"WAVAX"},"priceUsd":"50.00","liquidity":null},
			{"baseToken":{"address":"` + wmemoAddr + `","symbol":"wMEMO"},"quoteToken":{"symbol":"TIME"},"priceUsd":"49.00","liquidity":{"usd":10}}
		]`))
	}))
	defer server.Close()

	c := NewDEXScreenerClient(server.URL, "avalanche", time.Second, 30, nil)
	prices, err := c.GetPrices(context.Background(), []string{timeAddr, wmemoAddr, entity.ZeroAddress})
	require.NoError(t, err)

	assert.Equal(t, "10.00", prices[timeAddr], "stablecoin quote wins over liquidity")
	assert.Equal(t, "49.00", prices[wmemoAddr], "highest liquidity without stablecoin pair")
	_, ok := prices[entity.ZeroAddress]
	assert.False(t, ok)
}

func TestDEXScreenerClient_WrappedResponseAndBatching(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":[
			{"baseToken":{"address":"` + timeAddr + `"},"quoteToken":{"symbol":"USDC"},"priceUsd":"10.5"}
		]}`))
	}))
	defer server.Close()

	c := NewDEXScreenerClient(server.URL, "avalanche", time.Second, 1, nil)
	prices, err := c.GetPrices(context.Background(), []string{timeAddr, wmemoAddr})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{timeAddr: "10.5"}, prices)
	assert.Equal(t, int32(2), requests.Load())
}

func TestDEXScreenerClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewDEXScreenerClient(server.URL, "avalanche", time.Second, 30, nil)
	_, err := c.GetPrices(context.Background(), []string{timeAddr})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.Retryable())

	_, err = c.GetTokenPairsByAddresses(context.Background(), nil)
	assert.Error(t, err)
}

func TestGet_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewNomicsClient("http://127.0.0.1:1", "k", time.Second, nil).GetPrices(ctx, []string{"TIME5"})
	assert.ErrorIs(t, err, context.Canceled)
}
