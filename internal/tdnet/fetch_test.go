package tdnet

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuto-group/disclosure-cli/internal/resilience"
)

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/I_list_001_20240101.html", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{BaseURL: srv.URL, PagesPerSecond: 100})

	html, err := f.FetchPage(context.Background(), 1, "20240101")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
}

func TestFetchPage_NotFoundIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{BaseURL: srv.URL, PagesPerSecond: 100})

	_, err := f.FetchPage(context.Background(), 7, "20240101")
	assert.True(t, errors.Is(err, resilience.ErrAbsent))
}

func TestFetchPage_NetworkErrorIsAbsence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	f := NewFetcher(FetcherOptions{BaseURL: srv.URL, PagesPerSecond: 100})

	_, err := f.FetchPage(context.Background(), 1, "20240101")
	assert.True(t, errors.Is(err, resilience.ErrAbsent))
}

func TestPageURL(t *testing.T) {
	f := NewFetcher(FetcherOptions{BaseURL: "https://www.release.tdnet.info/inbs"})
	assert.Equal(t,
		"https://www.release.tdnet.info/inbs/I_list_012_20240615.html",
		f.PageURL(12, "20240615"),
	)
}
