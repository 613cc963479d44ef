package mediawiki

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikivault/wikivault/internal/core/domain"
)

func TestRevisionReader_FetchSince(t *testing.T) {
	t.Run("fetches full history when no revision is stored", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "42", q.Get("pageids"))
			assert.Equal(t, "newer", q.Get("rvdir"))
			assert.Empty(t, q.Get("rvstartid"))
			fmt.Fprint(w, `{
				"query": {"pages": [
					{"pageid": 42, "ns": 0, "title": "Alpha", "revisions": [
						{"revid": 1, "parentid": 0, "timestamp": "2024-01-01T00:00:00Z",
						 "user": "Alice", "userid": 7, "comment": "start", "size": 10,
						 "sha1": "aaa", "slots": {"main": {"content": "v1"}}},
						{"revid": 2, "parentid": 1, "timestamp": "2024-01-02T00:00:00Z",
						 "user": "Bob", "userid": 8, "comment": "more", "size": 20,
						 "sha1": "bbb", "minor": true, "slots": {"main": {"content": "v2"}}}
					]}
				]}
			}`)
		})

		revs, err := NewRevisionReader(client).FetchSince(context.Background(), 42, 0)
		require.NoError(t, err)
		require.Len(t, revs, 2)
		assert.Equal(t, int64(1), revs[0].ID)
		assert.Equal(t, "v1", revs[0].Content)
		assert.Equal(t, int64(42), revs[0].PageID)
		assert.True(t, revs[1].Minor)
	})

	t.Run("filters the inclusive boundary revision", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5", r.URL.Query().Get("rvstartid"))
			fmt.Fprint(w, `{
				"query": {"pages": [
					{"pageid": 42, "ns": 0, "title": "Alpha", "revisions": [
						{"revid": 5, "parentid": 4, "timestamp": "2024-01-05T00:00:00Z",
						 "user": "A", "sha1": "e", "slots": {"main": {"content": "v5"}}},
						{"revid": 6, "parentid": 5, "timestamp": "2024-01-06T00:00:00Z",
						 "user": "A", "sha1": "f", "slots": {"main": {"content": "v6"}}}
					]}
				]}
			}`)
		})

		revs, err := NewRevisionReader(client).FetchSince(context.Background(), 42, 5)
		require.NoError(t, err)
		require.Len(t, revs, 1)
		assert.Equal(t, int64(6), revs[0].ID)
	})

	t.Run("paginates with rvcontinue", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				fmt.Fprint(w, `{
					"continue": {"rvcontinue": "20240102|2", "continue": "||"},
					"query": {"pages": [
						{"pageid": 42, "ns": 0, "title": "Alpha", "revisions": [
							{"revid": 1, "timestamp": "2024-01-01T00:00:00Z",
							 "user": "A", "sha1": "a", "slots": {"main": {"content": "v1"}}}
						]}
					]}
				}`)
				return
			}
			assert.Equal(t, "20240102|2", r.URL.Query().Get("rvcontinue"))
			fmt.Fprint(w, `{
				"query": {"pages": [
					{"pageid": 42, "ns": 0, "title": "Alpha", "revisions": [
						{"revid": 2, "timestamp": "2024-01-02T00:00:00Z",
						 "user": "A", "sha1": "b", "slots": {"main": {"content": "v2"}}}
					]}
				]}
			}`)
		})

		revs, err := NewRevisionReader(client).FetchSince(context.Background(), 42, 0)
		require.NoError(t, err)
		assert.Len(t, revs, 2)
		assert.Equal(t, 2, calls)
	})

	t.Run("missing page is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"query": {"pages": [{"pageid": 0, "missing": true, "title": "Gone"}]}}`)
		})

		_, err := NewRevisionReader(client).FetchSince(context.Background(), 42, 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRevisionReader_PageInfo(t *testing.T) {
	t.Run("returns page metadata", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "info", r.URL.Query().Get("prop"))
			fmt.Fprint(w, `{"query": {"pages": [
				{"pageid": 42, "ns": 4, "title": "Project:About", "redirect": true}
			]}}`)
		})

		page, err := NewRevisionReader(client).PageInfo(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), page.ID)
		assert.Equal(t, 4, page.Namespace)
		assert.Equal(t, "Project:About", page.Title)
		assert.True(t, page.IsRedirect)
	})

	t.Run("missing page is not found", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"query": {"pages": [{"missing": true, "title": "Gone"}]}}`)
		})

		_, err := NewRevisionReader(client).PageInfo(context.Background(), 42)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
