package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ayoub195/safisaana/internal/service"
)

// HTTPIdentityVerifier asks the managed auth provider to validate an identity
// token. The provider is an external collaborator: all this client knows is
// "verify token, get identity back".
type HTTPIdentityVerifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPIdentityVerifier(endpoint string) *HTTPIdentityVerifier {
	return &HTTPIdentityVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPIdentityVerifier) Verify(ctx context.Context, idToken string) (*service.Identity, error) {
	payload, _ := json.Marshal(map[string]string{"token": idToken})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity verification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider rejected token: status %d", resp.StatusCode)
	}

	var identity service.Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return nil, fmt.Errorf("malformed identity response: %w", err)
	}
	if identity.UserID == "" {
		return nil, fmt.Errorf("identity response missing user id")
	}

	return &identity, nil
}
