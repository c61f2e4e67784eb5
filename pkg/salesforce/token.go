package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/logger"
	"civicserve-backend/pkg/metrics"
)

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Reauthorize fetches a new bearer token. Concurrent callers share one
// in-flight OAuth request: the second caller awaits the first's result
// instead of issuing its own POST.
func (s *Session) Reauthorize(ctx context.Context) error {
	_, err, _ := s.group.Do("token", func() (interface{}, error) {
		return nil, s.fetchToken(ctx)
	})
	return err
}

// fetchToken performs the OAuth password-grant POST. The security token is
// concatenated onto the password, per the upstream's convention.
func (s *Session) fetchToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.consumerKey)
	form.Set("client_secret", s.consumerSecret)
	form.Set("username", s.username)
	form.Set("password", s.password+s.securityToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	metrics.TokenRefreshesTotal.Inc()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logger.GlobalLogger.Errorf("Salesforce token request failed: url=%s, error=%v", s.oauthURL, err)
		return &errors.AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.AuthError{Err: fmt.Errorf("failed to read token response: %v", err)}
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		logger.GlobalLogger.Errorf("Salesforce token response not parseable: status=%s, response=%s", resp.Status, string(body))
		return &errors.AuthError{Err: fmt.Errorf("unexpected token response (%s): %s", resp.Status, string(body))}
	}

	if resp.StatusCode != http.StatusOK || tokenResp.AccessToken == "" {
		logger.GlobalLogger.Errorf("Salesforce authentication rejected: status=%s, error=%s, description=%s",
			resp.Status, tokenResp.Error, tokenResp.ErrorDescription)
		return &errors.AuthError{
			Description: tokenResp.ErrorDescription,
			Err:         fmt.Errorf("token endpoint returned %s", resp.Status),
		}
	}

	s.mu.Lock()
	s.token = tokenResp.AccessToken
	s.mu.Unlock()

	logger.GlobalLogger.Println("Salesforce bearer token refreshed")
	return nil
}
