// Package ollama provides the streaming HTTP client for the local Ollama
// generate API. A generation runs in its own goroutine and publishes
// immutable state snapshots that a display loop can poll without locking.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is the body of a generate call. Immutable once constructed.
type Request struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// responseLine is one newline-delimited JSON object of the response body.
type responseLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ClientConfig struct {
	// URL of the generate endpoint (default: http://localhost:11434/api/generate)
	URL string

	// Model to request (default: "llama2-uncensored")
	Model string

	// Timeout bounds the whole generation including the stream read.
	// Zero means no deadline beyond the transport's own limits.
	Timeout time.Duration
}

func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		URL:   "http://localhost:11434/api/generate",
		Model: "llama2-uncensored",
	}
}

// Client issues streaming generation requests. Safe for concurrent use; each
// generation gets its own Stream.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(config *ClientConfig, logger *zap.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		config.URL = "http://localhost:11434/api/generate"
	}
	if config.Model == "" {
		config.Model = "llama2-uncensored"
	}
	return &Client{
		config: config,
		// No client-level timeout: it would cut streaming reads short.
		// The optional deadline is applied per request via context.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Generate starts a streaming generation and returns immediately. The
// returned Stream is live: poll Snapshot for progress and Wait to join the
// reader goroutine before discarding the handle.
func (c *Client) Generate(ctx context.Context, prompt string) *Stream {
	st := newStream()

	cancel := context.CancelFunc(func() {})
	if c.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
	}

	go func() {
		defer cancel()
		defer close(st.done)
		c.run(ctx, prompt, st)
	}()

	return st
}

func (c *Client) run(ctx context.Context, prompt string, st *Stream) {
	body, err := json.Marshal(Request{Model: c.config.Model, Prompt: prompt})
	if err != nil {
		st.fail(0, fmt.Sprintf("encode request: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		st.fail(0, fmt.Sprintf("build request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("generate request failed", zap.Error(err))
		st.fail(0, err.Error())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("generate request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(detail)))
		st.fail(resp.StatusCode, fmt.Sprintf("Status Code: %d - %s", resp.StatusCode, string(detail)))
		return
	}

	// strings.Builder keeps accumulation linear as the answer grows.
	var acc strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var chunk responseLine
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Malformed lines are fatal for the request; whatever text
			// arrived before the fault stays as the best-effort answer.
			c.logger.Error("malformed stream line", zap.Error(err))
			st.failWithText(acc.String(), resp.StatusCode, fmt.Sprintf("malformed response line: %v", err))
			return
		}
		acc.WriteString(chunk.Response)
		if chunk.Done {
			st.finish(acc.String())
			return
		}
		st.publish(acc.String())
	}

	if err := scanner.Err(); err != nil {
		c.logger.Error("stream read failed", zap.Error(err))
		st.failWithText(acc.String(), resp.StatusCode, err.Error())
		return
	}

	// Body ended without a done marker; treat what we have as complete.
	st.finish(acc.String())
}
