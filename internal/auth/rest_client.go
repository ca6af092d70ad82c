package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/pkg/logger"
)

// RestClient exchanges an identity-provider token for a backend session via
// the plain request/response login/logout endpoints. These sit outside the
// duplex connection; the session id they establish is what the websocket
// handshake later presents for resumption.
type RestClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.ILogger
}

func NewRestClient(baseURL string, log logger.ILogger) *RestClient {
	return &RestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// Login presents the identity-provider token and returns the backend
// session id. Newer backends only deliver the id via the session cookie, so
// the body is consulted first and the cookie second.
func (c *RestClient) Login(ctx context.Context, idToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constant.LoginPath, nil)
	if err != nil {
		return "", fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+idToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: login rejected with status %d", ErrUnauthenticated, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("login failed: status %d: %s", resp.StatusCode, body)
	}

	var loginResp dto.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", fmt.Errorf("decoding login response: %w", err)
	}

	sessionId := loginResp.SessionId
	if sessionId == "" {
		for _, cookie := range resp.Cookies() {
			if cookie.Name == constant.SessionCookieName {
				sessionId = cookie.Value
				break
			}
		}
	}

	c.logger.Info("AUTH", "Logged in", map[string]interface{}{"has_session_id": sessionId != ""})
	return sessionId, nil
}

// Logout invalidates the backend session server-side.
func (c *RestClient) Logout(ctx context.Context, idToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constant.LogoutPath, nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+idToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("logout failed: status %d", resp.StatusCode)
	}
	c.logger.Info("AUTH", "Logged out", nil)
	return nil
}
