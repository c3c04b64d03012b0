package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"focusctl/internal/types"
)

// StreamFrame is one decoded message from the push channel. Frames that fail
// to decode carry Err wrapping ErrProtocol so the gateway can count them
// without tearing the channel down.
type StreamFrame struct {
	Type         string                     `json:"type"`
	Notification *types.NotificationMessage `json:"notification,omitempty"`
	Err          error                      `json:"-"`
}

// NotificationStream opens the persistent push channel. The returned cancel
// func closes the underlying connection; the channel closes when the server
// ends the stream or the connection drops. Reconnection is the gateway's job.
func (c *Client) NotificationStream(ctx context.Context) (<-chan StreamFrame, func(), error) {
	if err := c.ensureToken(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/notifications/stream", nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any request timeout, so it gets its own client.
	httpClient := &http.Client{Transport: c.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, wrapTransportErr(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan StreamFrame, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				frame := decodeStreamFrame(payload)
				select {
				case ch <- frame:
				case <-ctx.Done():
					return
				}
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
	}()

	return ch, cancel, nil
}

func decodeStreamFrame(payload string) StreamFrame {
	var frame StreamFrame
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return StreamFrame{Err: fmt.Errorf("%w: %v", ErrProtocol, err)}
	}
	if frame.Type == "notification" && frame.Notification == nil {
		// Older servers inline the message fields at the top level.
		var msg types.NotificationMessage
		if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.ID == "" {
			return StreamFrame{Type: frame.Type, Err: fmt.Errorf("%w: notification frame without payload", ErrProtocol)}
		}
		frame.Notification = &msg
	}
	return frame
}
