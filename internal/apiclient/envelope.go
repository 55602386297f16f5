package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Envelope is the wrapper the backend puts around every response body.
type Envelope struct {
	Success   *bool           `json:"success,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// unwrap decodes a 2xx body into out. Bodies without a success flag are
// treated as bare payloads.
func unwrap(raw []byte, out interface{}) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Success == nil {
		if out == nil {
			return "", nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return "", fmt.Errorf("decode payload: %w", err)
		}
		return "", nil
	}
	if !*env.Success {
		return env.Message, errUnsuccessful
	}
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return env.Message, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return env.Message, fmt.Errorf("decode data: %w", err)
	}
	return env.Message, nil
}

// errorMessage pulls the backend's message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(bytes.TrimSpace(raw), &body); err != nil {
		return ""
	}
	return body.Message
}
