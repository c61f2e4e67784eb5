package salesforce

import (
	"fmt"
	"io"
	"net/http"

	"civicserve-backend/internal/errors"
	"civicserve-backend/pkg/logger"
)

// maxAuthRetries bounds how many re-authentication cycles one call may
// trigger. It is a count bound, not a time bound.
const maxAuthRetries = 2

// Do performs the HTTP call with the current bearer token attached. A 401
// response triggers one shared re-authentication cycle and the call is
// retried; after the retry budget is exhausted the last response body is
// surfaced for diagnostics. Callers never see a 401 unless retries run out.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if s.passthrough {
		return s.httpClient.Do(req)
	}

	// The token is acquired reactively: the first call goes out with
	// whatever token is held (possibly none) and a 401 drives the refresh.
	var lastBody string
	for attempt := 0; ; attempt++ {
		attemptReq, err := cloneRequest(req)
		if err != nil {
			return nil, err
		}
		if token := s.currentToken(); token != "" {
			attemptReq.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := s.httpClient.Do(attemptReq)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %v", req.URL, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastBody = string(body)

		if attempt == maxAuthRetries {
			logger.GlobalLogger.Errorf("Request still unauthorized after %d retries: url=%s, response=%s",
				maxAuthRetries, req.URL, lastBody)
			return nil, errors.NewUpstreamError("salesforce", req.URL.Path, http.StatusUnauthorized, lastBody)
		}

		if err := s.Reauthorize(req.Context()); err != nil {
			return nil, err
		}
	}
}

// cloneRequest makes the request re-sendable across auth retries. Requests
// built with http.NewRequest from an in-memory reader carry GetBody, which
// is all the upstream clients use.
func cloneRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("request body for %s is not replayable", req.URL)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %v", err)
	}
	clone.Body = body
	return clone, nil
}
