package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inventory-sync/core/reconcile"
	"inventory-sync/core/utils"

	"github.com/shopspring/decimal"
)

// maxBodyBytes caps how much of a POS response is read.
const maxBodyBytes = 16 << 20

// SourceConfig describes the POS leftovers endpoint.
type SourceConfig struct {
	BaseURL string
	Method  string
	Token   string
	Timeout time.Duration
}

// PosterSource reads per-branch stock from a Poster-style POS API.
type PosterSource struct {
	cfg    SourceConfig
	client *http.Client
}

// NewPosterSource creates a source. A nil client gets one bounded by cfg.Timeout.
func NewPosterSource(cfg SourceConfig, client *http.Client) *PosterSource {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PosterSource{cfg: cfg, client: client}
}

type leftoversEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    json.RawMessage `json:"error"`
}

type leftover struct {
	IngredientID any `json:"ingredient_id"`
	Left         any `json:"storage_ingredient_left"`
}

type apiError struct {
	Code    any    `json:"code"`
	Message string `json:"message"`
}

// FetchStock implements reconcile.InventorySource.
func (s *PosterSource) FetchStock(ctx context.Context, branch reconcile.Branch) ([]reconcile.StockReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(branch.ExternalID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %w", reconcile.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", reconcile.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", reconcile.ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if msg == "" || len(msg) > 200 {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &reconcile.SourceError{StatusCode: resp.StatusCode, Message: msg}
	}

	return parseLeftovers(body)
}

func (s *PosterSource) endpoint(storageID string) string {
	q := url.Values{}
	q.Set("token", s.cfg.Token)
	q.Set("storage_id", storageID)
	return s.cfg.BaseURL + "/" + s.cfg.Method + "?" + q.Encode()
}

func parseLeftovers(body []byte) ([]reconcile.StockReading, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var env leftoversEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %w", reconcile.ErrSourceError, err)
	}

	if isPresent(env.Error) {
		return nil, decodeAPIError(env.Error)
	}

	if !isPresent(env.Response) {
		return []reconcile.StockReading{}, nil
	}

	var items []leftover
	dec = json.NewDecoder(bytes.NewReader(env.Response))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: unexpected response shape: %w", reconcile.ErrSourceError, err)
	}

	readings := make([]reconcile.StockReading, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(utils.ToString(item.IngredientID))
		if id == "" {
			continue
		}
		qty := utils.ToDecimal(item.Left)
		if qty.IsNegative() {
			qty = decimal.Zero
		}
		readings = append(readings, reconcile.StockReading{ProductID: id, Quantity: qty})
	}
	return readings, nil
}

func isPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// decodeAPIError accepts the error forms the API uses: a string, a bare code
// or an object with code and message.
func decodeAPIError(raw json.RawMessage) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return &reconcile.SourceError{Message: string(raw)}
	}

	switch e := v.(type) {
	case string:
		return &reconcile.SourceError{Message: e}
	case json.Number:
		return &reconcile.SourceError{Code: e.String(), Message: "request rejected"}
	case map[string]any:
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err != nil {
			return &reconcile.SourceError{Message: string(raw)}
		}
		msg := ae.Message
		if msg == "" {
			msg = "request rejected"
		}
		return &reconcile.SourceError{Code: utils.ToString(ae.Code), Message: msg}
	default:
		return &reconcile.SourceError{Message: string(raw)}
	}
}
