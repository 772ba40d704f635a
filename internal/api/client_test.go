package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	ingesterrors "github.com/printprobability/ingest-book/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "testtoken", server.Client())
}

func TestLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(path, []byte("  secret-token\n"), 0o644))

	token, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)
}

func TestLoadTokenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o644))

	_, err := LoadToken(path)
	require.Error(t, err)
}

func TestGetBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/abc-123/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token testtoken", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"abc-123","estc":"R13852","is_eebo_book":false,
			"all_runs":{"pages":[{"id":"p1"}],"lines":[],"characters":[]}}`))
	})

	client := newTestClient(t, mux)
	book, err := client.GetBook(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", book.ID)
	assert.Equal(t, "R13852", book.ESTC)
	assert.False(t, book.HasNoRecords())
}

func TestGetBookNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client := newTestClient(t, mux)
	_, err := client.GetBook(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, ingesterrors.IsNotFoundError(err))
}

func TestListBooksByESTC(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "R13852", r.URL.Query().Get("estc"))
		_, _ = w.Write([]byte(`{"results":[{"id":"a","is_eebo_book":true},{"id":"b","is_eebo_book":false}]}`))
	})

	client := newTestClient(t, mux)
	books, err := client.ListBooksByESTC(context.Background(), "R13852")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0].ID)
	assert.True(t, books[0].IsEEBOBook)
	assert.False(t, books[1].IsEEBOBook)
}

func TestCreateBook(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "R13852", payload["estc"])
		assert.Equal(t, false, payload["is_eebo_book"])
		assert.Equal(t, "Thomas Newcomb", payload["pp_printer"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"new-uuid","estc":"R13852"}`))
	})

	client := newTestClient(t, mux)
	created, err := client.CreateBook(context.Background(), &Book{
		ESTC:      "R13852",
		PPPrinter: "Thomas Newcomb",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-uuid", created.ID)
}

func TestCreateBookMissingID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"estc":"R13852"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.CreateBook(context.Background(), &Book{ESTC: "R13852"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without an id")
}

func TestCreateCharacterRun(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs/characters/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "book-1", payload["book"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"run-1","book":"book-1"}`))
	})

	client := newTestClient(t, mux)
	run, err := client.CreateCharacterRun(context.Background(), "book-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
}

func TestGetCharacterRunNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/runs/characters/char-9", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	client := newTestClient(t, mux)
	_, err := client.GetCharacterRun(context.Background(), "char-9")
	require.Error(t, err)
	assert.True(t, ingesterrors.IsRunNotFoundError(err))
}

func TestBulkCharactersCreateAndUpdatePaths(t *testing.T) {
	var paths []string
	mux := http.NewServeMux()
	mux.HandleFunc("/books/book-1/", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		http.NotFound(w, r)
	})
	mux.HandleFunc("/books/book-1/bulk_characters/", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var payload struct {
			Characters []CharacterRecord `json:"characters"`
			RunID      string            `json:"character_run_id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "run-1", payload.RunID)
		require.Len(t, payload.Characters, 2)
		_, _ = w.Write([]byte(`{"created":2}`))
	})
	mux.HandleFunc("/books/book-1/bulk_characters_update/", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"updated":2}`))
	})

	client := newTestClient(t, mux)
	chars := []CharacterRecord{
		{"id": "c1", "character_class": "a"},
		{"id": "c2", "character_class": "b"},
	}

	ack, err := client.BulkCharacters(context.Background(), "book-1", chars, "run-1", false)
	require.NoError(t, err)
	assert.JSONEq(t, `{"created":2}`, string(ack))

	ack, err = client.BulkCharacters(context.Background(), "book-1", chars, "run-1", true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"updated":2}`, string(ack))

	assert.Equal(t, []string{"/books/book-1/bulk_characters/", "/books/book-1/bulk_characters_update/"}, paths)
}

func TestBulkPagesCarriesTifRoot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/book-1/bulk_pages/", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "/data/shared", payload["tif_root"])
		_, _ = w.Write([]byte(`{}`))
	})

	client := newTestClient(t, mux)
	pages := []PageRecord{{"filename": "p001.tif", "side": "s"}}
	_, err := client.BulkPages(context.Background(), "book-1", pages, "/data/shared", false)
	require.NoError(t, err)
}

func TestErrorIncludesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	_, err := client.ListBooksByESTC(context.Background(), "R1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "backend exploded")
}
