package proxmox

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/pulse/internal/config"
	"github.com/rileyhilliard/pulse/internal/source"
)

const (
	requestTimeout = 10 * time.Second
	dialTimeout    = 5 * time.Second
	// maxBody caps how much of a response we read.
	maxBody = 8 << 20
)

// client is a minimal read-only Proxmox API client.
type client struct {
	name    string
	baseURL string
	auth    string
	http    *http.Client
}

func newClient(cfg config.ProxmoxConfig) (*client, error) {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if cfg.InsecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // explicit per-source opt-in
	} else if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read ca_file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca_file %s contains no certificates", cfg.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		TLSClientConfig:     tlsCfg,
		TLSHandshakeTimeout: dialTimeout,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	return &client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.Host, "/") + "/api2/json",
		auth:    authHeader(cfg),
		http:    &http.Client{Timeout: requestTimeout, Transport: transport},
	}, nil
}

// authHeader builds the PVEAPIToken header value. token_id may already be
// fully qualified (user@realm!name); otherwise user is prepended.
func authHeader(cfg config.ProxmoxConfig) string {
	tokenID := cfg.TokenID
	if !strings.Contains(tokenID, "!") && cfg.User != "" {
		tokenID = cfg.User + "!" + tokenID
	}
	return fmt.Sprintf("PVEAPIToken=%s=%s", tokenID, cfg.TokenSecret)
}

// get fetches path and decodes the data field of the response into out.
func get[T any](ctx context.Context, c *client, path string) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return zero, source.Protocol(c.name, err, "invalid request")
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, source.Unavailable(c.name, unwrapURLError(err), "request to "+path+" failed")
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBody)

	switch {
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, body)
		return zero, source.Unavailable(c.name, fmt.Errorf("%s", resp.Status), path+" returned "+resp.Status)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, body)
		return zero, source.Protocol(c.name, fmt.Errorf("%s", resp.Status), path+" returned "+resp.Status)
	}

	var env envelope[T]
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		if ctx.Err() != nil {
			return zero, source.Unavailable(c.name, ctx.Err(), "timed out reading "+path)
		}
		return zero, source.Protocol(c.name, err, "malformed response from "+path)
	}
	return env.Data, nil
}

// unwrapURLError drops the *url.Error wrapper, whose message repeats the
// full URL.
func unwrapURLError(err error) error {
	if uerr, ok := err.(*url.Error); ok {
		return uerr.Err
	}
	return err
}

func (c *client) close() {
	c.http.CloseIdleConnections()
}
