package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumpages/paper-shipping/internal/calculator"
	"github.com/albumpages/paper-shipping/internal/carrier"
	"github.com/albumpages/paper-shipping/internal/database"
	"github.com/albumpages/paper-shipping/internal/rates"
)

type quoteData struct {
	Rates     []rates.Rate         `json:"rates"`
	Breakdown calculator.Breakdown `json:"breakdown"`
	Fallback  bool                 `json:"fallback"`
	QuoteID   string               `json:"quote_id"`
}

func TestShippingRequiresCart(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodPost, "/api/shipping/rates", map[string]string{"zip": "10001"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty", resp.Message)

	status, resp = srv.do(t, http.MethodGet, "/api/shipping/breakdown", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty", resp.Message)
}

func TestShippingRatesValidatesAddress(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []map[string]string{
		{},
		{"zip": "12345678901"},
		{"zip": "10001", "state": "NYC"},
	}
	for _, body := range tests {
		status, resp := srv.do(t, http.MethodPost, "/api/shipping/rates", body)
		assert.Equal(t, http.StatusUnprocessableEntity, status, body)
		assert.False(t, resp.Success)
	}
}

func TestShippingLiveRates(t *testing.T) {
	srv := newTestServer(t, map[string]float64{
		carrier.MailClassPriority:        9.35,
		carrier.MailClassFirst:           4.80,
		carrier.MailClassPriorityExpress: 31.10,
	})

	status, _ := srv.do(t, http.MethodPost, "/api/cart", letterLine(50, 1))
	require.Equal(t, http.StatusCreated, status)

	status, resp := srv.do(t, http.MethodPost, "/api/shipping/rates", map[string]string{"zip": "10001", "state": "NY"})
	require.Equal(t, http.StatusOK, status)

	quote := decodeData[quoteData](t, resp)
	assert.False(t, quote.Fallback)
	require.Len(t, quote.Rates, 3)
	assert.Equal(t, []float64{4.80, 9.35, 31.10}, []float64{quote.Rates[0].Cost, quote.Rates[1].Cost, quote.Rates[2].Cost})
	assert.Equal(t, 17.68, quote.Breakdown.TotalWeightOz)
	assert.Equal(t, calculator.PackageEnvelope, quote.Breakdown.PackageType)
	assert.Len(t, quote.QuoteID, 26)

	for _, req := range srv.carrier.requests {
		assert.Equal(t, "10001", req.ToZIP)
		assert.Equal(t, 17.68, req.WeightOz)
	}

	status, resp = srv.do(t, http.MethodGet, "/api/shipping/quotes", nil)
	require.Equal(t, http.StatusOK, status)
	quotes := decodeData[[]database.QuoteRecord](t, resp)
	require.Len(t, quotes, 1)
	assert.Equal(t, quote.QuoteID, quotes[0].ID)
	assert.False(t, quotes[0].Fallback)
}

func TestShippingFallbackRates(t *testing.T) {
	srv := newTestServer(t, nil)

	status, _ := srv.do(t, http.MethodPost, "/api/cart", letterLine(100, 1))
	require.Equal(t, http.StatusCreated, status)

	status, resp := srv.do(t, http.MethodPost, "/api/shipping/rates", map[string]string{"zip": "94105"})
	require.Equal(t, http.StatusOK, status)

	quote := decodeData[quoteData](t, resp)
	assert.True(t, quote.Fallback)
	require.Len(t, quote.Rates, 3)
	assert.Equal(t, "first", quote.Rates[0].ServiceCode)
	assert.Equal(t, 5.99, quote.Rates[0].Cost)
	assert.Equal(t, 9.99, quote.Rates[1].Cost)
	assert.Equal(t, 29.99, quote.Rates[2].Cost)
	assert.Equal(t, calculator.PackageBox, quote.Breakdown.PackageType)

	quotes, err := srv.db.GetRecentQuotes(10)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.True(t, quotes[0].Fallback)
	assert.Equal(t, "94105", quotes[0].Zip)
}

func TestShippingBreakdown(t *testing.T) {
	srv := newTestServer(t, nil)

	status, _ := srv.do(t, http.MethodPost, "/api/cart", letterLine(50, 1))
	require.Equal(t, http.StatusCreated, status)

	status, resp := srv.do(t, http.MethodGet, "/api/shipping/breakdown", nil)
	require.Equal(t, http.StatusOK, status)
	b := decodeData[calculator.Breakdown](t, resp)
	assert.Equal(t, 17.68, b.TotalWeightOz)
	assert.Equal(t, 1.10, b.TotalWeightLbs)
	assert.Equal(t, 1.0, b.Dimensions.Height)
	require.Len(t, b.Groups, 1)
	assert.Equal(t, 50, b.Groups[0].Pages)
}

func TestTestCarrierConnection(t *testing.T) {
	down := newTestServer(t, nil)
	status, resp := down.do(t, http.MethodGet, "/api/shipping/test", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp.Success)
	assert.Equal(t, "Failed to connect to Endicia API", resp.Message)

	up := newTestServer(t, map[string]float64{carrier.MailClassPriority: 8.70})
	status, resp = up.do(t, http.MethodGet, "/api/shipping/test", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)
	require.Len(t, up.carrier.requests, 1)
	assert.Equal(t, "10001", up.carrier.requests[0].ToZIP)
}

func TestMailClassesAndQuotes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, resp := srv.do(t, http.MethodGet, "/api/shipping/mail-classes", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decodeData[[]rates.Tier](t, resp), len(rates.MailClasses()))

	status, resp = srv.do(t, http.MethodGet, "/api/shipping/quotes", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decodeData[[]database.QuoteRecord](t, resp))

	status, _ = srv.do(t, http.MethodGet, "/api/shipping/quotes?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}
