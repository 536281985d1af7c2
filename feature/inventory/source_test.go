package inventory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventory-sync/core/reconcile"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *PosterSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPosterSource(SourceConfig{
		BaseURL: srv.URL + "/api/",
		Method:  "storage.getStorageLeftovers",
		Token:   "secret-token",
		Timeout: 2 * time.Second,
	}, nil)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

var testBranch = reconcile.Branch{ID: 1, Name: "Main Street", ExternalID: "7", Active: true}

func TestFetchStockRequest(t *testing.T) {
	var gotPath, gotToken, gotStorage string
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("token")
		gotStorage = r.URL.Query().Get("storage_id")
		_, _ = w.Write([]byte(`{"response":[]}`))
	})

	readings, err := src.FetchStock(context.Background(), testBranch)
	require.NoError(t, err)
	assert.Empty(t, readings)
	assert.Equal(t, "/api/storage.getStorageLeftovers", gotPath)
	assert.Equal(t, "secret-token", gotToken)
	assert.Equal(t, "7", gotStorage)
}

func TestFetchStockParsesLooseValues(t *testing.T) {
	body := `{"response":[
		{"ingredient_id":"101","storage_ingredient_left":"12.5"},
		{"ingredient_id":102,"storage_ingredient_left":3},
		{"ingredient_id":"103","storage_ingredient_left":null},
		{"ingredient_id":"104"},
		{"ingredient_id":"105","storage_ingredient_left":"abc"},
		{"ingredient_id":"106","storage_ingredient_left":"-4"},
		{"ingredient_id":"","storage_ingredient_left":"1"},
		{"storage_ingredient_left":"9"}
	]}`
	src := newTestSource(t, jsonHandler(http.StatusOK, body))

	readings, err := src.FetchStock(context.Background(), testBranch)
	require.NoError(t, err)
	require.Len(t, readings, 6)

	want := map[string]string{
		"101": "12.5",
		"102": "3",
		"103": "0",
		"104": "0",
		"105": "0",
		"106": "0",
	}
	for _, r := range readings {
		exp, ok := want[r.ProductID]
		require.True(t, ok, "unexpected product %s", r.ProductID)
		assert.True(t, decimal.RequireFromString(exp).Equal(r.Quantity), "product %s: got %s", r.ProductID, r.Quantity)
	}
	assert.Equal(t, "101", readings[0].ProductID)
}

func TestFetchStockEmptyResponse(t *testing.T) {
	for name, body := range map[string]string{
		"Absent": `{}`,
		"Null":   `{"response":null}`,
		"Empty":  `{"response":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			src := newTestSource(t, jsonHandler(http.StatusOK, body))
			readings, err := src.FetchStock(context.Background(), testBranch)
			require.NoError(t, err)
			assert.NotNil(t, readings)
			assert.Empty(t, readings)
		})
	}
}

func TestFetchStockAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    string
		message string
	}{
		{"String", `{"error":"Invalid token"}`, "", "Invalid token"},
		{"Number", `{"error":10}`, "10", "request rejected"},
		{"Object", `{"error":{"code":34,"message":"Storage not found"}}`, "34", "Storage not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, jsonHandler(http.StatusOK, tt.body))
			_, err := src.FetchStock(context.Background(), testBranch)
			require.Error(t, err)
			assert.ErrorIs(t, err, reconcile.ErrSourceError)

			var se *reconcile.SourceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.message, se.Message)
			assert.Zero(t, se.StatusCode)
		})
	}
}

func TestFetchStockHTTPStatus(t *testing.T) {
	src := newTestSource(t, jsonHandler(http.StatusBadGateway, "upstream down"))

	_, err := src.FetchStock(context.Background(), testBranch)
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrSourceError)

	var se *reconcile.SourceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, "upstream down", se.Message)
}

func TestFetchStockMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"NotJSON":    `<html>oops</html>`,
		"WrongShape": `{"response":{"ingredient_id":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			src := newTestSource(t, jsonHandler(http.StatusOK, body))
			_, err := src.FetchStock(context.Background(), testBranch)
			assert.ErrorIs(t, err, reconcile.ErrSourceError)
			assert.NotErrorIs(t, err, reconcile.ErrSourceUnavailable)
		})
	}
}

func TestFetchStockUnreachable(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(http.StatusOK, `{}`))
	srv.Close()

	src := NewPosterSource(SourceConfig{BaseURL: srv.URL, Method: "m", Timeout: time.Second}, nil)
	_, err := src.FetchStock(context.Background(), testBranch)
	assert.ErrorIs(t, err, reconcile.ErrSourceUnavailable)
}

func TestFetchStockContextDeadline(t *testing.T) {
	release := make(chan struct{})
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := src.FetchStock(ctx, testBranch)
	assert.ErrorIs(t, err, reconcile.ErrSourceUnavailable)
}
