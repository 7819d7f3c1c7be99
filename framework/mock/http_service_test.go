package mock

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/launchdarkly/unit-test-harness/framework/ldtest"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoParams struct {
	Value string `json:"value"`
}

func newEchoService(t *testing.T) (*HTTPService, *ldlogtest.MockLog) {
	ctx, _ := newContext(t)
	mockLog := ldlogtest.NewMockLog()
	s := NewHTTPService(ctx, "Echo", mockLog.Loggers.ForLevel(ldlog.Info))
	s.AddPath("POST", "/echo", func(d *json.Decoder) (interface{}, error) {
		var p echoParams
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		return p, nil
	})
	s.AddPath("DELETE", "/", func(*json.Decoder) (interface{}, error) { return nil, nil })
	s.AddPath("GET", "/broken", func(*json.Decoder) (interface{}, error) { return nil, errors.New("sorry") })
	return s, mockLog
}

func TestHTTPServiceRecordsAndResponds(t *testing.T) {
	s, mockLog := newEchoService(t)
	s.Mock().ExpectCallCount("POST /echo", 1)

	httphelpers.WithServer(s, func(server *httptest.Server) {
		resp, err := http.Post(server.URL+"/echo", "application/json", strings.NewReader(`{"value":"hi"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("content-type"))
		assert.JSONEq(t, `{"value":"hi"}`, string(body))
	})

	assert.True(t, s.Mock().Verify())
	assert.True(t, mockLog.HasMessageMatch(ldlog.Info, `\[Echo\] got POST /echo \{"value":"hi"\}`))
}

func TestHTTPServiceHandlerError(t *testing.T) {
	s, _ := newEchoService(t)
	httphelpers.WithServer(s, func(server *httptest.Server) {
		resp, err := http.Get(server.URL + "/broken")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, "sorry", string(body))
	})
	assert.Equal(t, 1, s.Mock().Calls("GET /broken"))
}

func TestHTTPServiceUnknownRoute(t *testing.T) {
	s, _ := newEchoService(t)
	httphelpers.WithServer(s, func(server *httptest.Server) {
		req, _ := http.NewRequest("GET", server.URL+"/", nil)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, 405, resp.StatusCode)

		resp, err = http.Get(server.URL + "/nowhere")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, 404, resp.StatusCode)
	})
	assert.Equal(t, 0, s.Mock().Calls("DELETE /"))
}

func TestHTTPServiceReportsFailuresFromConcurrentRequests(t *testing.T) {
	ctx := runcontext.New()
	Register(ctx)
	const requestCount = 8

	results := ldtest.Run(ldtest.TestConfiguration{RunContext: ctx}, func(lt *ldtest.T) {
		lt.Run("concurrent", func(lt *ldtest.T) {
			s := NewHTTPService(ctx, "Echo", nil)
			s.AddPath("POST", "/echo", func(*json.Decoder) (interface{}, error) { return nil, nil })
			s.Mock().ExpectCallCount("POST /echo", 0)

			httphelpers.WithServer(s, func(server *httptest.Server) {
				var wg sync.WaitGroup
				for i := 0; i < requestCount; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						if resp, err := http.Post(server.URL+"/echo", "application/json", strings.NewReader("{}")); err == nil {
							resp.Body.Close()
						}
					}()
				}
				for i := 0; i < requestCount; i++ {
					lt.Errorf("failure from the test itself")
				}
				wg.Wait()
			})
		})
	})

	require.Len(t, results.Failures, 1)
	assert.Len(t, results.Failures[0].Errors, requestCount*2)
}
