package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/project"
	"github.com/ownablekit/studio/rpcchan"
	"github.com/ownablekit/studio/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	return NewServer(Config{ListenAddr: ":0"}, db, compiler.NewSimulated(), nil)
}

func jsonReq(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, into), "body: %s", data)
}

func sampleProject(name string) *project.Project {
	root := project.NewRoot()
	root.AddFolder("src").AddFile("lib.rs", "// placeholder contract")
	return &project.Project{Name: name, Folder: root}
}

func TestHealthz(t *testing.T) {
	s := testServer(t)

	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProjectLifecycle(t *testing.T) {
	s := testServer(t)

	resp, err := s.app.Test(jsonReq(t, http.MethodPost, "/projects", sampleProject("counter")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/projects/counter", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got project.Project
	decodeBody(t, resp, &got)
	assert.Equal(t, "counter", got.Name)
	require.NotNil(t, got.Folder)
	_, err = got.Folder.Resolve("/src/lib.rs")
	assert.NoError(t, err)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodDelete, "/projects/counter", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/projects/counter", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildAndDownload(t *testing.T) {
	s := testServer(t)

	resp, err := s.app.Test(jsonReq(t, http.MethodPost, "/projects", sampleProject("counter")))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = s.app.Test(jsonReq(t, http.MethodPost, "/projects/counter/build",
		map[string]string{"version": "1.2.3"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var build struct {
		CID      string `json:"cid"`
		Filename string `json:"filename"`
		Size     int    `json:"size"`
	}
	decodeBody(t, resp, &build)
	assert.NotEmpty(t, build.CID)
	assert.Equal(t, "counter-1.2.3.zip", build.Filename)
	assert.Positive(t, build.Size)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/packages/"+build.CID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), build.Filename)

	archive, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, archive, build.Size)

	resp, err = s.app.Test(httptest.NewRequest(http.MethodGet, "/packages", nil))
	require.NoError(t, err)
	var list struct {
		Packages []store.Package `json:"packages"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Packages, 1)
	assert.Equal(t, build.CID, list.Packages[0].CID)
}

func TestBuildMissingProject(t *testing.T) {
	s := testServer(t)

	resp, err := s.app.Test(jsonReq(t, http.MethodPost, "/projects/ghost/build", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBuildStructureErrorIsBadRequest(t *testing.T) {
	s := testServer(t)

	resp, err := s.app.Test(jsonReq(t, http.MethodPost, "/projects",
		&project.Project{Name: "empty"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = s.app.Test(jsonReq(t, http.MethodPost, "/projects/empty/build", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRPCDispatch(t *testing.T) {
	s := testServer(t)
	s.RPC().Register("ping", func(ctx context.Context, params json.RawMessage) (any, error) {
		return "pong", nil
	})

	env, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": "1", "method": "ping",
	})
	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(env))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply rpcchan.Envelope
	decodeBody(t, resp, &reply)
	assert.Equal(t, "1", reply.ID)
	assert.Equal(t, `"pong"`, string(reply.Result))
	assert.Nil(t, reply.Error)
}

func TestRPCRejectsNonEnvelope(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader([]byte(`{"not":"rpc"}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
