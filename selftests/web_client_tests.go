package selftests

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"time"

	"github.com/launchdarkly/unit-test-harness/framework/helpers"
	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	o "github.com/launchdarkly/unit-test-harness/framework/opt"
	"github.com/launchdarkly/unit-test-harness/framework/registry"
	"github.com/launchdarkly/unit-test-harness/framework/webclient"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webClientTimeout = time.Second * 5

func doWebClientTests(t *ldtest.T) {
	t.Run("configured proxy is usable", func(t *ldtest.T) {
		_, err := webclient.NewClient(requireContext(t).env.Registry().Proxy(), webClientTimeout, t.DebugLogger())
		assert.NoError(t, err)
	})

	t.Run("mock service", func(t *ldtest.T) {
		service := requireContext(t).env.NewHTTPService("StatusService", t.DebugLogger())
		service.AddPath("GET", "/", func(*json.Decoder) (interface{}, error) {
			return map[string]interface{}{"name": "self-test", "capabilities": []string{"echo"}}, nil
		})
		service.Mock().ExpectCallCount("GET /", 1)

		httphelpers.WithServer(service, func(server *httptest.Server) {
			client, err := webclient.NewClient(registry.ProxySettings{}, webClientTimeout, t.DebugLogger())
			require.NoError(t, err)

			info, err := client.WaitForService(context.Background(), server.URL+"/", time.Millisecond*50)
			require.NoError(t, err)
			assert.Equal(t, "self-test", info.Name)
			assert.True(t, info.Capabilities.Has("echo"))
		})
		helpers.RequireEventually(t, func() bool { return service.Mock().Calls("GET /") == 1 },
			time.Second, time.Millisecond*10, "status request was not recorded")
		service.Mock().Verify()
	})

	t.Run("requests go through proxy", func(t *ldtest.T) {
		handler, requests := httphelpers.RecordingHandler(httphelpers.HandlerWithStatus(200))
		httphelpers.WithServer(handler, func(proxy *httptest.Server) {
			settings := registry.ProxySettings{URL: o.Some(proxy.URL), Username: o.Some("u"), Password: o.Some("p")}
			client, err := webclient.NewClient(settings, webClientTimeout, t.DebugLogger())
			require.NoError(t, err)

			_, err = client.Get(context.Background(), "http://service.example/status")
			require.NoError(t, err)

			received := <-requests
			assert.Equal(t, "service.example", received.Request.Host)
			assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("u:p")),
				received.Request.Header.Get("Proxy-Authorization"))
		})
	})
}
