package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

func TestPriceService_FetchPrices_SingleDeduplicatedCall(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, []string{"TIME5", "WMEMO"}).
		Return(map[string]string{"TIME5": "10.00", "WMEMO": "50"}, nil).Once()

	svc := NewPriceService(feed, fastRetry, nil, nil)
	fixed := time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	quotes, err := svc.FetchPrices(context.Background(), entity.Tickers(allTokens))
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.True(t, quotes["TIME5"].USD.Equal(decimal.NewFromInt(10)))
	assert.True(t, quotes["WMEMO"].USD.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, fixed, quotes["TIME5"].AsOf)
	assert.Equal(t, quotes["TIME5"].AsOf, quotes["WMEMO"].AsOf)
	feed.AssertExpectations(t)
}

func TestPriceService_FetchPrices_ZeroPriceIsValid(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, []string{"TIME5"}).Return(map[string]string{"TIME5": "0"}, nil)

	quotes, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"TIME5"})
	require.NoError(t, err)
	assert.True(t, quotes["TIME5"].USD.IsZero())
}

func TestPriceService_FetchPrices_MissingAndNonNumeric(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, []string{"TIME5", "WMEMO", "OTHER"}).
		Return(map[string]string{"TIME5": "10", "WMEMO": "n/a"}, nil).Once()

	quotes, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"TIME5", "WMEMO", "OTHER"})
	require.Error(t, err)
	assert.Contains(t, quotes, "TIME5", "good tickers survive")
	assert.NotContains(t, quotes, "WMEMO")

	var tickerErrs entity.TickerErrors
	require.ErrorAs(t, err, &tickerErrs)
	assert.ErrorIs(t, tickerErrs["WMEMO"], entity.ErrNonNumericPrice)
	assert.ErrorIs(t, tickerErrs["OTHER"], entity.ErrMissingTicker)
	assert.ErrorIs(t, err, entity.ErrMissingTicker)
	feed.AssertNumberOfCalls(t, "GetPrices", 1)
}

func TestPriceService_FetchPrices_NegativeRejected(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, mock.Anything).Return(map[string]string{"TIME5": "-1"}, nil)

	_, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"TIME5"})
	assert.ErrorIs(t, err, entity.ErrNonNumericPrice)
}

func TestPriceService_FetchPrices_TransportFailureRetried(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout"))

	quotes, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"TIME5"})
	assert.Nil(t, quotes)
	assert.ErrorIs(t, err, entity.ErrPriceFetchFailed)
	feed.AssertNumberOfCalls(t, "GetPrices", 3)
}

func TestPriceService_FetchPrices_NonRetryableStatus(t *testing.T) {
	feed := new(mockPriceFeed)
	feed.On("GetPrices", mock.Anything, mock.Anything).Return(nil, nonRetryableErr{})

	_, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"TIME5"})
	assert.ErrorIs(t, err, entity.ErrPriceFetchFailed)
	feed.AssertNumberOfCalls(t, "GetPrices", 1)
}

func TestPriceService_FetchPrices_EmptyInputNoCall(t *testing.T) {
	feed := new(mockPriceFeed)
	quotes, err := NewPriceService(feed, fastRetry, nil, nil).FetchPrices(context.Background(), []string{"", ""})
	require.NoError(t, err)
	assert.Empty(t, quotes)
	feed.AssertNotCalled(t, "GetPrices", mock.Anything, mock.Anything)
}
