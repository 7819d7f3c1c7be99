// Package webclient is an HTTP client for tests that talk to web services. It routes requests
// through the proxy configured in the registry.
package webclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/registry"
)

// Client sends HTTP requests, logging each one.
type Client struct {
	http   *http.Client
	logger framework.Logger
}

// Response is the result of a request. The body has already been read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ServiceInfo is the status information returned by a service that WaitForService connects to.
type ServiceInfo struct {
	// Name is the name that the service reports for itself, if any.
	Name string `json:"name"`

	// Capabilities is a list of strings representing optional features of the service.
	Capabilities framework.Capabilities `json:"capabilities"`

	// FullData is the entire response body, which might contain additional properties.
	FullData []byte `json:"-"`
}

// NewClient creates a Client. If the proxy settings have a URL, all requests go through that
// proxy, authenticating with the username and password if they are defined. A zero timeout means
// no timeout.
func NewClient(proxy registry.ProxySettings, timeout time.Duration, logger framework.Logger) (*Client, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL, ok := proxy.URL.Get(); ok {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		if username, ok := proxy.Username.Get(); ok {
			password, hasPassword := proxy.Password.Get()
			u.User = helpers.IfElse(hasPassword, url.UserPassword(username, password), url.User(username))
		}
		transport.Proxy = http.ProxyURL(u)
	} else {
		transport.Proxy = nil
	}
	return &Client{
		http:   &http.Client{Transport: transport, Timeout: timeout},
		logger: logger,
	}, nil
}

// Get is shorthand for Do with the GET method and no body.
func (c *Client) Get(ctx context.Context, targetURL string) (Response, error) {
	return c.Do(ctx, "GET", targetURL, nil)
}

// Do sends a request. A non-nil body is sent as JSON. If the response status is not 2xx, the
// response is returned along with an error.
func (c *Client) Do(ctx context.Context, method, targetURL string, body []byte) (Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return Response{}, err
	}
	if body != nil {
		req.Header.Add("Content-Type", "application/json")
	}
	c.logger.Printf("%s %s", method, targetURL)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Printf("%s %s failed: %s", method, targetURL, err)
		return Response{}, err
	}
	ret := Response{StatusCode: resp.StatusCode, Header: resp.Header}
	if resp.Body != nil {
		ret.Body, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()
	}
	c.logger.Printf("%s %s returned %d", method, targetURL, resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if len(ret.Body) != 0 {
			message = " (" + string(ret.Body) + ")"
		}
		return ret, fmt.Errorf("service returned error %d for %s %s%s", resp.StatusCode, method, targetURL, message)
	}
	return ret, nil
}

// WaitForService polls a URL until the service answers or the context is done. A 200 status is
// success; the body, if any, is parsed as ServiceInfo. Any other status is an error that stops
// the polling.
func (c *Client) WaitForService(ctx context.Context, serviceURL string, interval time.Duration) (ServiceInfo, error) {
	c.logger.Printf("Connecting to service at %s", serviceURL)
	for {
		resp, err := c.Get(ctx, serviceURL)
		if err == nil || resp.StatusCode != 0 {
			if resp.StatusCode != 200 {
				return ServiceInfo{}, fmt.Errorf("service returned status code %d", resp.StatusCode)
			}
			if len(resp.Body) == 0 {
				c.logger.Printf("Status query successful, but service provided no metadata")
				return ServiceInfo{}, nil
			}
			var info ServiceInfo
			if err := json.Unmarshal(resp.Body, &info); err != nil {
				return ServiceInfo{}, fmt.Errorf("malformed status response from service: %s", string(resp.Body))
			}
			info.FullData = resp.Body
			return info, nil
		}
		select {
		case <-ctx.Done():
			return ServiceInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		case <-time.After(interval):
		}
	}
}
