package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// LogExecutor only logs commands. It backs dry runs and the CLI.
type LogExecutor struct {
	Logger *zap.Logger
}

func (e LogExecutor) Execute(_ context.Context, cmd Command) error {
	l := e.Logger
	if l == nil {
		l = zap.NewNop()
	}
	l.Info("costume command", zap.String("command", cmd.Text), zap.String("path", cmd.Path))
	return nil
}

// WebhookExecutor POSTs each command as JSON to a host endpoint.
type WebhookExecutor struct {
	URL    string
	Client *http.Client
}

func (e WebhookExecutor) Execute(ctx context.Context, cmd Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook post: status %d", resp.StatusCode)
	}
	return nil
}
