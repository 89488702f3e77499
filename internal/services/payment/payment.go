// Package payment is the request/response payment-verification boundary.
// It lives entirely outside the realtime core: verification is an HTTP
// round trip initiated by the client, never by a game event handler.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/vortex-hue/dex-naija-whot-backend/internal/services/stats"
)

// Verification is the upstream verifier's verdict on a payment reference.
type Verification struct {
	Reference string  `json:"reference"`
	Verified  bool    `json:"verified"`
	Amount    float64 `json:"amount"`
}

// Verifier asks the configured upstream (chain indexer, PSP webhook
// mirror) whether a payment reference is settled. An empty URL disables
// verification entirely.
type Verifier struct {
	httpClient *http.Client
	verifyURL  string
}

func NewVerifier(verifyURL string) *Verifier {
	return &Verifier{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		verifyURL:  verifyURL,
	}
}

func (v *Verifier) Verify(ctx context.Context, reference string) (*Verification, error) {
	if v.verifyURL == "" {
		return nil, fmt.Errorf("payment verification is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.verifyURL+"/"+reference, nil)
	if err != nil {
		return nil, err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contact payment verifier: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment verifier returned %s", resp.Status)
	}
	var out Verification
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode verifier response: %w", err)
	}
	return &out, nil
}

type verifyRequest struct {
	Reference string `json:"reference"`
	Address   string `json:"address"`
}

type verifyResponse struct {
	Verified bool    `json:"verified"`
	Amount   float64 `json:"amount,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// Handler serves POST /verify-payment. A verified payment is recorded with
// the persistence service fire-and-forget; recording failures do not fail
// the response, the verifier's verdict stands either way.
func Handler(verifier *Verifier, statsClient *stats.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			json.NewEncoder(w).Encode(verifyResponse{Error: "method not allowed"})
			return
		}

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reference == "" || req.Address == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(verifyResponse{Error: "invalid payload"})
			return
		}

		verdict, err := verifier.Verify(r.Context(), req.Reference)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(verifyResponse{Error: err.Error()})
			return
		}

		if verdict.Verified && statsClient != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				p := stats.Payment{Reference: req.Reference, Address: req.Address, Amount: verdict.Amount}
				if err := statsClient.RecordPayment(ctx, p); err != nil {
					log.Printf("[Payment] record payment %s failed: %v", req.Reference, err)
				}
			}()
		}

		json.NewEncoder(w).Encode(verifyResponse{Verified: verdict.Verified, Amount: verdict.Amount})
	}
}
