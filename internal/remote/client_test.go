package remote

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calljmp/cli/pkg/types"
)

func TestETag(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", ETag(""))
	assert.Equal(t, ETag("CREATE TABLE t (id INTEGER);"), ETag("CREATE TABLE t (id INTEGER);"))
	assert.NotEqual(t, ETag("a"), ETag("b"))
}

func TestMigrateAlreadyPresent(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/database/migrate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, ETag("CREATE TABLE t (id INTEGER);"), body["etag"])

		json.NewEncoder(w).Encode(map[string]any{"completed": true})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	require.NoError(t, c.Migrate("CREATE TABLE t (id INTEGER);"))
	assert.Equal(t, 1, calls)
}

func TestMigrateUploadHandshake(t *testing.T) {
	sqlText := "CREATE TABLE t (id INTEGER);"
	etag := ETag(sqlText)

	var uploaded string
	var statusPolls int

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/database/migrate", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			json.NewEncoder(w).Encode(map[string]any{
				"completed": false,
				"uploadUrl": srv.URL + "/upload/abc",
				"filename":  "abc.sql",
			})
		case http.MethodPut:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, etag, body["etag"])
			assert.Equal(t, "abc.sql", body["filename"])
			json.NewEncoder(w).Encode(map[string]any{
				"completed": false,
				"bookmark":  "bm-1",
			})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/upload/abc", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, int64(len(sqlText)), r.ContentLength)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = string(body)
		w.Header().Set("ETag", `"`+etag+`"`)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/database/migration/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bm-1", body["bookmark"])
		statusPolls++
		json.NewEncoder(w).Encode(map[string]any{"completed": statusPolls >= 2})
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "secret", WithPollInterval(time.Millisecond))
	require.NoError(t, c.Migrate(sqlText))
	assert.Equal(t, sqlText, uploaded)
	assert.Equal(t, 2, statusPolls)
}

func TestMigrateUploadETagMismatch(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/database/migrate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"completed": false,
			"uploadUrl": srv.URL + "/upload/abc",
			"filename":  "abc.sql",
		})
	})
	mux.HandleFunc("/upload/abc", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Header().Set("ETag", `"not-the-etag"`)
		w.WriteHeader(http.StatusOK)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL, "secret")
	err := c.Migrate("CREATE TABLE t (id INTEGER);")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRemoteTransport)
}

func TestMigrateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	err := c.Migrate("CREATE TABLE t (id INTEGER);")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrRemoteTransport)
}
