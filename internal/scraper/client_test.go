package scraper

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/school-timetable-go/internal/errors"
	"github.com/garyellow/school-timetable-go/internal/metrics"
)

func newTestClient(timeout time.Duration) *Client {
	return NewClient(Config{Timeout: timeout, UserAgent: "timetable-test"}, nil)
}

func TestFetchDocument(t *testing.T) {
	t.Parallel()

	gotUA := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA <- r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><a class="mathema" href="1A.html">1A</a></body></html>`))
	}))
	defer srv.Close()

	doc, err := newTestClient(time.Second).FetchDocument(context.Background(), "index", srv.URL+"/orario/index.html")
	require.NoError(t, err)

	links := doc.Find("a.mathema")
	require.Len(t, links, 1)
	assert.Equal(t, "1A", links[0].Text())
	assert.Equal(t, srv.URL+"/orario/index.html", doc.BaseURL().String())
	assert.Equal(t, "timetable-test", <-gotUA)
}

func TestFetchDocumentDecodesCharset(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		// "Caffè" in windows-1252
		_, _ = w.Write([]byte("<html><body><p>Caff\xe8</p></body></html>"))
	}))
	defer srv.Close()

	doc, err := newTestClient(time.Second).FetchDocument(context.Background(), "class", srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Caffè", doc.Find("p")[0].Text())
}

func TestFetchDocumentGzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("<html><body><table><tbody><tr><td>8.00</td></tr></tbody></table></body></html>"))
	require.NoError(t, gz.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	doc, err := newTestClient(time.Second).FetchDocument(context.Background(), "class", srv.URL)
	require.NoError(t, err)
	assert.Len(t, doc.Find("tbody tr"), 1)
}

func TestFetchDocumentStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		notFound bool
	}{
		{"Not found", http.StatusNotFound, true},
		{"Server error", http.StatusInternalServerError, false},
		{"Rate limited", http.StatusTooManyRequests, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := newTestClient(time.Second).FetchDocument(context.Background(), "class", srv.URL)
			require.Error(t, err)

			var fetchErr *domerrors.FetchError
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
			assert.Equal(t, tt.notFound, domerrors.IsNotFound(err))
			assert.Equal(t, int32(1), hits.Load(), "failed fetches are not retried")
		})
	}
}

func TestFetchDocumentBodyLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"At limit", maxBodyBytes, false},
		{"Over limit", maxBodyBytes + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			const prefix = "<html><body><p>"
			page := prefix + strings.Repeat("x", tt.size-len(prefix))
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte(page))
			}))
			defer srv.Close()

			doc, err := newTestClient(5*time.Second).FetchDocument(context.Background(), "class", srv.URL)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.NotNil(t, doc)
				return
			}
			require.Error(t, err)
			assert.True(t, domerrors.IsFetchError(err))
			assert.Contains(t, err.Error(), "body exceeds")
		})
	}
}

func TestFetchDocumentTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestClient(50*time.Millisecond).FetchDocument(context.Background(), "class", srv.URL)
	require.Error(t, err)
	assert.True(t, domerrors.IsFetchError(err))
	assert.ErrorIs(t, err, domerrors.ErrTimeout)
}

func TestFetchDocumentSharesInflightRequests(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write([]byte("<html><body><p>ok</p></body></html>"))
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	client := NewClient(Config{Timeout: 5 * time.Second}, m)

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.FetchDocument(context.Background(), "class", srv.URL)
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, float64(callers), testutil.ToFloat64(m.ScraperRequestsTotal.WithLabelValues("class", "success")))
}

func TestFetchDocumentRateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	client := NewClient(Config{Timeout: time.Second, RequestsPerSecond: 20, Burst: 1}, nil)

	start := time.Now()
	for i := range 3 {
		_, err := client.FetchDocument(context.Background(), "class", srv.URL+"/"+string(rune('a'+i)))
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestFetchDocumentCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(time.Second).FetchDocument(ctx, "class", "http://127.0.0.1:1/never")
	require.Error(t, err)
	assert.True(t, domerrors.IsFetchError(err))
}

func TestDecodeBodyUnknownCharset(t *testing.T) {
	t.Parallel()

	r := decodeBody([]byte("plain"), "text/html; charset=x-unknown")
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, "plain", buf.String())
}
