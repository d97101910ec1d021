package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/assetsync/pkg/errors"
	"github.com/agentstation/assetsync/pkg/logging"
)

// envelope is the status wrapper the inventory API puts around mutations.
// Reads return the bare object or a {total, rows} page instead.
type envelope struct {
	Status   string          `json:"status"`
	Messages json.RawMessage `json:"messages"`
}

// DecodeResponse decodes a JSON response into target. Non-2xx responses, and
// 2xx responses whose envelope says status "error", become *errors.APIError.
func DecodeResponse(resp *http.Response, method, endpoint string, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errors.NewAPIError(method, endpoint, resp.StatusCode, "")
		apiErr.Body = string(body)
		var env envelope
		if json.Unmarshal(body, &env) == nil && len(env.Messages) > 0 {
			apiErr.Message, apiErr.Messages = ParseMessages(env.Messages)
		} else {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && strings.EqualFold(env.Status, "error") {
		apiErr := errors.NewAPIError(method, endpoint, resp.StatusCode, "")
		apiErr.Body = string(body)
		apiErr.Message, apiErr.Messages = ParseMessages(env.Messages)
		return apiErr
	}

	if target == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// ParseMessages interprets the "messages" field, which is either a string or
// an object of field name to string or string list.
func ParseMessages(raw json.RawMessage) (string, map[string][]string) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return strings.TrimSpace(string(raw)), nil
	}

	messages := make(map[string][]string, len(fields))
	for field, value := range fields {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			messages[field] = list
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			messages[field] = []string{single}
			continue
		}
		messages[field] = []string{string(value)}
	}
	return "", messages
}
