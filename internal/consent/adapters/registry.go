// Package adapters holds the outbound collaborator adapters for the
// consent exchange.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"veris/internal/consent"
	id "veris/pkg/domain"
	dErrors "veris/pkg/domain-errors"
	"veris/pkg/requestcontext"
)

const exchangeTimeout = 20 * time.Second

// RegistryExchanger implements consent.Exchanger against the national
// registry's consent API. A registry refusal is a completed=false
// outcome, not an error; errors mean the round trip itself failed.
type RegistryExchanger struct {
	baseURL  string
	provider string
	apiKey   string
	http     *http.Client
}

// NewRegistryExchanger constructs the registry adapter.
func NewRegistryExchanger(baseURL, provider, apiKey string) *RegistryExchanger {
	return &RegistryExchanger{
		baseURL:  baseURL,
		provider: provider,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: exchangeTimeout},
	}
}

type exchangeRequest struct {
	ApplicationID string `json:"application_id"`
	UserID        string `json:"user_id"`
}

type exchangeResponse struct {
	Granted bool              `json:"granted"`
	Fields  map[string]string `json:"fields"`
}

// Exchange implements consent.Exchanger.
func (e *RegistryExchanger) Exchange(ctx context.Context, appID id.ApplicationID, userID id.UserID) (*consent.Record, error) {
	body, err := json.Marshal(exchangeRequest{
		ApplicationID: appID.String(),
		UserID:        userID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/consent-exchange", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "consent registry unreachable")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.Newf(dErrors.CodeInternal, "consent registry returned status %d", resp.StatusCode)
	}

	var out exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode exchange response: %w", err)
	}

	record := &consent.Record{
		ApplicationID: appID,
		Completed:     out.Granted,
		FetchedFields: out.Fields,
		Provider:      e.provider,
	}
	if out.Granted {
		record.CompletedAt = requestcontext.Now(ctx)
	}
	return record, nil
}
