package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"

	qt "github.com/frankban/quicktest"
	"github.com/jhchabran/agora"
	"github.com/jhchabran/agora/memstore"
	"github.com/rs/zerolog"
)

const testServerHost = "localhost:8081"

// testingLogWriter is an output target for zerolog which will print on the testing logger.
type testingLogWriter struct {
	c *qt.C
}

// Write outputs on the passed bytes on the test logger
func (l *testingLogWriter) Write(p []byte) (n int, err error) {
	str := string(p[0 : len(p)-1]) // drop the final \n
	l.c.Log(str)
	return len(p), nil
}

// A struct to hold the server and its components.
// Provides a few helpers for convenience.
type testContext struct {
	c          *qt.C
	server     *agora.Server
	testServer *httptest.Server
	backend    *memstore.MemStore

	mu      sync.Mutex
	reports []*agora.ReportEvent
}

// newTestContext creates a server instance with its component initialized for integration testing.
func newTestContext(c *qt.C) *testContext {
	tc := testContext{c: c}

	w := testingLogWriter{c}
	output := zerolog.ConsoleWriter{Out: &w, NoColor: true}
	logger := zerolog.New(output)

	tc.backend = memstore.New()
	tc.server = agora.NewServer(
		&agora.ServerConfig{
			Addr:         testServerHost,
			ServerSecret: "test",
			CurrentUser:  agora.Author{ID: 12, Name: "tintin"},
		},
		logger,
		tc.backend,
	)
	tc.server.AddReportHook(func(_ context.Context, ev *agora.ReportEvent) error {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		tc.reports = append(tc.reports, ev)
		return nil
	})
	tc.testServer = httptest.NewServer(tc.server)

	return &tc
}

// prepareServer declares the routes and sets up the teardown for the current test
func (tc *testContext) prepareServer() {
	tc.c.Assert(tc.server.Prepare(), qt.IsNil, qt.Commentf("couldn't prepare the server"))
	tc.c.Cleanup(func() {
		// kill the server
		tc.testServer.Close()
	})
}

// url returns an url to the test server based on the given path
func (tc *testContext) url(path string) string {
	return tc.testServer.URL + path
}

// reported returns the reports seen by the report hook so far.
func (tc *testContext) reported() []*agora.ReportEvent {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]*agora.ReportEvent(nil), tc.reports...)
}

// newHTTPClient returns a client keeping its cookies, hence its session, across requests.
func (tc *testContext) newHTTPClient() *http.Client {
	jar, err := cookiejar.New(nil)
	tc.c.Assert(err, qt.IsNil)

	return &http.Client{
		Jar: jar,
	}
}

// getJSON fetches path and decodes the JSON response into v, returning the status code.
func (tc *testContext) getJSON(client *http.Client, path string, v interface{}) int {
	resp, err := client.Get(tc.url(path))
	tc.c.Assert(err, qt.IsNil)
	defer resp.Body.Close()

	return tc.decode(resp, v)
}

// postJSON posts body to path and decodes the JSON response into v, returning the status code.
func (tc *testContext) postJSON(client *http.Client, path string, body interface{}, v interface{}) int {
	b, err := json.Marshal(body)
	tc.c.Assert(err, qt.IsNil)

	resp, err := client.Post(tc.url(path), "application/json", bytes.NewReader(b))
	tc.c.Assert(err, qt.IsNil)
	defer resp.Body.Close()

	return tc.decode(resp, v)
}

func (tc *testContext) decode(resp *http.Response, v interface{}) int {
	if v == nil || resp.StatusCode >= 300 {
		_, err := io.Copy(io.Discard, resp.Body)
		tc.c.Assert(err, qt.IsNil)
		return resp.StatusCode
	}

	tc.c.Assert(resp.Header.Get("Content-Type"), qt.Equals, "application/json")
	tc.c.Assert(json.NewDecoder(resp.Body).Decode(v), qt.IsNil)
	return resp.StatusCode
}
