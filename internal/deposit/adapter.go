package deposit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/exchnew/cartel-v1-demo/internal/model"
)

// Adapter observes one blockchain's public API for deposits to an address.
// Each instance is bound to exactly one currency. Upstream failure and
// non-detection are steady states, not errors: both come back as a result
// with Detected=false, the former carrying an explanatory tag.
type Adapter interface {
	CheckAddress(ctx context.Context, address string, expectedAmount *float64) model.DepositCheckResult
}

// notDetected builds the empty result used for pending deposits and for
// upstream failures (with a non-empty tag).
func notDetected(currency, tag string) model.DepositCheckResult {
	return model.DepositCheckResult{
		Currency:  currency,
		Detected:  false,
		Timestamp: time.Now().UTC(),
		Error:     tag,
	}
}

// matchAmount applies the per-currency tolerance. Without an expected amount
// the match is vacuously true.
func matchAmount(observed float64, expected *float64, tolerance float64) bool {
	if expected == nil {
		return true
	}
	return math.Abs(observed-*expected) < tolerance
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return doJSON(client, req, v)
}

func postJSON(ctx context.Context, client *http.Client, url string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req, v)
}

func doJSON(client *http.Client, req *http.Request, v any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
