package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MICGolf/backend/internal/orders"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{orders.ErrOrderNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: id=7", orders.ErrOrderNotFound), http.StatusNotFound},
		{&orders.ProductNotFoundError{IDs: []int64{3}}, http.StatusNotFound},
		{&orders.OptionNotFoundError{ProductID: 1, OptionID: 2}, http.StatusNotFound},
		{orders.ErrEmptyOrder, http.StatusBadRequest},
		{fmt.Errorf("%w: quantity must be positive", orders.ErrInvalidInput), http.StatusBadRequest},
		{orders.ErrVerificationFailed, http.StatusForbidden},
		{&orders.PriceMismatchError{ProductID: 1}, http.StatusConflict},
		{&orders.InsufficientStockError{ProductID: 1, Requested: 2}, http.StatusConflict},
		{&orders.InvalidTransitionError{Axis: "fulfillment"}, http.StatusConflict},
		{orders.ErrCannotCancelConfirmed, http.StatusConflict},
		{orders.ErrUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equalf(t, tc.code, rec.Code, "%v", tc.err)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: relation orders does not exist"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
	assert.Contains(t, rec.Body.String(), "service unavailable")
}

func TestParseSearchParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet,
		"/order/search?order_status=CONFIRMED&page_type=SHIPPING&order_number=ORD-12"+
			"&start_date=2024-11-01T00:00:00Z&page=2&limit=25&sort_by=id&sort_direction=asc", nil)

	params, err := parseSearchParams(r)
	require.NoError(t, err)
	assert.Equal(t, orders.FulfillmentConfirmed, params.FulfillmentStatus)
	assert.Equal(t, orders.PageShipping, params.PageType)
	assert.Equal(t, "ORD-12", params.OrderNumber)
	require.NotNil(t, params.StartDate)
	assert.Equal(t, "2024-11-01T00:00:00Z", params.StartDate.Format("2006-01-02T15:04:05Z07:00"))
	assert.Nil(t, params.EndDate)
	assert.Equal(t, 2, params.Page)
	assert.Equal(t, 25, params.Limit)
	assert.Equal(t, "id", params.SortBy)
	assert.Equal(t, orders.SortAsc, params.SortDirection)
}

func TestParseSearchParamsRejectsBadValues(t *testing.T) {
	for _, query := range []string{
		"start_date=yesterday",
		"end_date=2024-13-99",
		"page=two",
		"limit=ten",
	} {
		r := httptest.NewRequest(http.MethodGet, "/order/search?"+query, nil)
		_, err := parseSearchParams(r)
		assert.Errorf(t, err, "%s", query)
	}
}
