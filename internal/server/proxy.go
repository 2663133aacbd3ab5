package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const maxRPCBody = 1 << 20

const proxyFailure = "Failed to proxy RPC request"

// rpcProxy forwards JSON-RPC bodies to the node unchanged so browser pages
// can reach it from the same origin.
type rpcProxy struct {
	target string
	client *http.Client
	logger *zap.Logger
}

func newRPCProxy(target string, timeout time.Duration, logger *zap.Logger) *rpcProxy {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &rpcProxy{
		target: target,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

func (p *rpcProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRPCBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			p.logger.Warn("rpc proxy request too large", zap.Int64("limit", tooLarge.Limit))
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": proxyFailure})
			return
		}
		p.fail(w, fmt.Errorf("read request: %w", err))
		return
	}
	status, payload, err := p.forward(r.Context(), body)
	if err != nil {
		p.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func (p *rpcProxy) forward(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, payload, nil
}

func (p *rpcProxy) fail(w http.ResponseWriter, err error) {
	p.logger.Error("rpc proxy error", zap.String("target", p.target), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": proxyFailure})
}
