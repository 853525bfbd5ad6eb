package connector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HTTPConnector talks to a YubiHSM connector daemon over its
// application/octet-stream HTTP bridge, matching the teacher's
// connector/http.go but adapted to the Connector interface's
// context-aware Send/Status shape and fixing the teacher's unconditional
// "success" status parse (it now actually checks the reported Status
// field, and both calls respect ctx cancellation).
type HTTPConnector struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPConnector builds an HTTPConnector against a connector daemon
// reachable at baseURL (host:port, no scheme).
func NewHTTPConnector(baseURL string) *HTTPConnector {
	return &HTTPConnector{BaseURL: baseURL, Client: http.DefaultClient}
}

func (c *HTTPConnector) Send(ctx context.Context, txID uuid.UUID, frame []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.BaseURL+"/connector/api", bytes.NewReader(frame))
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Request-Id", txID.String())

	res, err := c.Client.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusServiceUnavailable {
		return nil, &Error{Kind: ErrorKindDeviceBusy, Err: fmt.Errorf("connector busy (%d)", res.StatusCode)}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &Error{Kind: ErrorKindResponse, Err: fmt.Errorf("connector returned status %d", res.StatusCode)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}
	return data, nil
}

func (c *HTTPConnector) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+c.BaseURL+"/connector/status", nil)
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}

	res, err := c.Client.Do(req)
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &Error{Kind: ErrorKindResponse, Err: fmt.Errorf("connector status endpoint returned %d", res.StatusCode)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: ErrorKindIO, Err: err}
	}

	fields := parseStatusFields(string(data))
	status := &Status{
		Serial:  fields["serial"],
		Version: fields["version"],
		Address: fields["address"],
	}
	status.OK = strings.EqualFold(fields["status"], "OK")
	if !status.OK {
		return status, &Error{Kind: ErrorKindResponse, Err: fmt.Errorf("connector reported status %q", fields["status"])}
	}
	return status, nil
}

// parseStatusFields parses the connector's "key=value\n"-per-line status
// document into a lowercase-keyed map.
func parseStatusFields(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kv := strings.SplitN(line, "=", 2)
		if len(kv) != 2 {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}
	return fields
}
