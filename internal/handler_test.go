package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		given   string
		want    int64
		wantErr error
	}{
		{given: "1", want: 1},
		{given: "9223372036854775807", want: 9223372036854775807},
		{given: "0", wantErr: errBadRequest},
		{given: "-4", wantErr: errBadRequest},
		{given: "abc", wantErr: errBadRequest},
		{given: "", wantErr: errBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.given, func(t *testing.T) {
			got, err := parseID(tt.given)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

type testServer struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctrl, _ := newTestController(t)

	var h http.Handler = NewMux(NewHandler(ctrl))
	h = Requestlogger{}.Wrap(h)
	h = middleware.RequestID(h)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv}
}

// do sends a request and returns the status and body.
func (ts *testServer) do(method, path, body string) (int, []byte) {
	ts.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, r)
	require.NoError(ts.t, err)

	resp, err := ts.srv.Client().Do(req)
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()

	out, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, out
}

func (ts *testServer) create(kind Kind, name string, parentID int64) Node {
	ts.t.Helper()
	status, body := ts.do(http.MethodPost, "/"+string(kind), fmt.Sprintf(`{"name": %q, "parentId": %d}`, name, parentID))
	require.Equal(ts.t, http.StatusCreated, status, string(body))

	var n Node
	require.NoError(ts.t, json.Unmarshal(body, &n))
	return n
}

func TestHandler(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	europe := ts.create(AreaKind, "Europe", 0)
	denmark := ts.create(AreaKind, "Denmark", europe.ID)
	sweden := ts.create(AreaKind, "Sweden", europe.ID)
	asia := ts.create(AreaKind, "Asia", 0)

	assert.Equal(t, "Europe", europe.Name)
	assert.Equal(t, lineageOf(denmark.ID, europe.Lineage), denmark.Lineage)

	t.Run("get", func(t *testing.T) {
		status, body := ts.do(http.MethodGet, fmt.Sprintf("/area/%d", denmark.ID), "")
		require.Equal(t, http.StatusOK, status)
		var got Node
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, denmark.ID, got.ID)
		assert.Equal(t, europe.ID, got.ParentID)
	})

	t.Run("sort", func(t *testing.T) {
		status, body := ts.do(http.MethodPost, fmt.Sprintf("/area/%d/sort", sweden.ID), `{"moveUp": true}`)
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": true}`, string(body))

		status, body = ts.do(http.MethodPost, fmt.Sprintf("/area/%d/sort", sweden.ID), `{"moveUp": true}`)
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": false}`, string(body))

		status, body = ts.do(http.MethodGet, fmt.Sprintf("/area/%d/children", europe.ID), "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []int64{sweden.ID, denmark.ID}, ids(decodeNodes(t, body)))
	})

	t.Run("roots", func(t *testing.T) {
		status, body := ts.do(http.MethodGet, "/area/roots", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Equal(t, []int64{europe.ID, asia.ID}, ids(decodeNodes(t, body)))

		status, body = ts.do(http.MethodGet, "/category/roots", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Empty(t, decodeNodes(t, body))
	})

	t.Run("move", func(t *testing.T) {
		status, body := ts.do(http.MethodPost, fmt.Sprintf("/area/%d/move", denmark.ID), fmt.Sprintf(`{"parentId": %d}`, asia.ID))
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": true}`, string(body))

		// A missing parent makes the node a root.
		status, body = ts.do(http.MethodPost, fmt.Sprintf("/area/%d/move", sweden.ID), `{}`)
		require.Equal(t, http.StatusOK, status, string(body))

		status, _ = ts.do(http.MethodPost, fmt.Sprintf("/area/%d/move", asia.ID), fmt.Sprintf(`{"parentId": %d}`, denmark.ID))
		assert.Equal(t, http.StatusBadRequest, status, "cycle")
	})

	t.Run("linearize", func(t *testing.T) {
		status, body := ts.do(http.MethodPost, "/area/linearize", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": true}`, string(body))

		status, body = ts.do(http.MethodPost, "/area/linearize", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": false}`, string(body))

		status, body = ts.do(http.MethodGet, "/area", "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []int64{europe.ID, asia.ID, denmark.ID, sweden.ID}, ids(decodeNodes(t, body)))

		status, body = ts.do(http.MethodGet, fmt.Sprintf("/area/%d/subtree", asia.ID), "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []int64{denmark.ID}, ids(decodeNodes(t, body)))
	})

	t.Run("lineage", func(t *testing.T) {
		status, body := ts.do(http.MethodPost, "/area/lineage", "")
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"changed": false}`, string(body))
	})

	t.Run("import", func(t *testing.T) {
		status, body := ts.do(http.MethodPost, fmt.Sprintf("/category/import?parent=%d", 999), `[{"name": "Lost"}]`)
		assert.Equal(t, http.StatusNotFound, status, string(body))

		status, body = ts.do(http.MethodPost, "/category/import", `[{"name": "Cargo", "children": [{"name": "Tankers"}]}]`)
		require.Equal(t, http.StatusCreated, status, string(body))
		assert.JSONEq(t, `{"created": 2}`, string(body))
	})

	t.Run("metrics", func(t *testing.T) {
		status, body := ts.do(http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), "hierarchy_operations_total")
	})
}

func TestHandlerErrors(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	n := ts.create(CategoryKind, "Fishing", 0)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "unknown kind", method: http.MethodGet, path: "/chart", wantStatus: http.StatusBadRequest},
		{name: "bad id", method: http.MethodGet, path: "/category/abc", wantStatus: http.StatusBadRequest},
		{name: "missing node", method: http.MethodGet, path: "/category/999", wantStatus: http.StatusNotFound},
		{name: "wrong kind", method: http.MethodGet, path: fmt.Sprintf("/area/%d", n.ID), wantStatus: http.StatusNotFound},
		{name: "missing name", method: http.MethodPost, path: "/category", body: `{"name": ""}`, wantStatus: http.StatusBadRequest},
		{name: "markup only", method: http.MethodPost, path: "/category", body: `{"name": "<i></i>"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", method: http.MethodPost, path: "/category", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "sort without direction", method: http.MethodPost, path: fmt.Sprintf("/category/%d/sort", n.ID), body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "sort missing", method: http.MethodPost, path: "/category/999/sort", body: `{"moveUp": false}`, wantStatus: http.StatusNotFound},
		{name: "move to negative", method: http.MethodPost, path: fmt.Sprintf("/category/%d/move", n.ID), body: `{"parentId": -1}`, wantStatus: http.StatusBadRequest},
		{name: "empty import", method: http.MethodPost, path: "/category/import", body: `[]`, wantStatus: http.StatusBadRequest},
		{name: "markup only import", method: http.MethodPost, path: "/category/import", body: `[{"name": "Cargo", "children": [{"name": "<b></b>"}]}]`, wantStatus: http.StatusBadRequest},
		{name: "roots of unknown kind", method: http.MethodGet, path: "/chart/roots", wantStatus: http.StatusBadRequest},
		{name: "bad import parent", method: http.MethodPost, path: "/category/import?parent=x", body: `[{"name": "a"}]`, wantStatus: http.StatusBadRequest},
		{name: "method", method: http.MethodDelete, path: fmt.Sprintf("/category/%d", n.ID), wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := ts.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, status, string(body))
		})
	}
}
