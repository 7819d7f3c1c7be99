package mock

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/launchdarkly/unit-test-harness/framework"
	"github.com/launchdarkly/unit-test-harness/framework/runcontext"

	"github.com/gorilla/mux"
)

// HTTPService is a mock HTTP endpoint. Each request to a registered path is recorded in the run's
// CallLog under the service name, with the method being "<HTTP method> <path template>" and the
// only argument being the request body as a string.
type HTTPService struct {
	mock   *Mock
	router *mux.Router
	logger framework.Logger
}

// NewHTTPService creates an HTTPService bound to a run context.
func NewHTTPService(ctx *runcontext.Context, name string, logger framework.Logger) *HTTPService {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &HTTPService{
		mock:   New(ctx, name),
		router: mux.NewRouter(),
		logger: logger,
	}
}

// Mock returns the Mock that requests are recorded with, for setting expectations.
func (s *HTTPService) Mock() *Mock { return s.mock }

// AddPath registers a handler for a method and path. The path may contain gorilla/mux variables.
//
// The handler receives a decoder for the request body, or nil if there was none. If it returns
// an error the response is a 500 with the error text; otherwise it is a 200 whose body is the
// JSON encoding of the returned value, if that value is not nil.
func (s *HTTPService) AddPath(method, path string, handler func(*json.Decoder) (interface{}, error)) {
	name := s.mock.Name()
	callName := method + " " + path
	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		var requestDecoder *json.Decoder
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			_ = r.Body.Close()
			if len(body) != 0 {
				requestDecoder = json.NewDecoder(bytes.NewBuffer(body))
			}
		}
		s.logger.Printf("[%s] got %s %s %s", name, r.Method, r.URL.Path, string(body))
		s.mock.Call(callName, string(body))

		responseValue, err := handler(requestDecoder)
		if err != nil {
			w.Header().Set("content-type", "text/plain")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(err.Error()))
			s.logger.Printf("[%s] responded with 500 - %s", name, err.Error())
			return
		}
		w.Header().Set("content-type", "application/json")
		var respBody []byte
		w.WriteHeader(http.StatusOK)
		if responseValue != nil {
			respBody, _ = json.Marshal(responseValue)
			_, _ = w.Write(respBody)
		}
		s.logger.Printf("[%s] responded with 200 %s", name, string(respBody))
	}).Methods(method)
}

func (s *HTTPService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

