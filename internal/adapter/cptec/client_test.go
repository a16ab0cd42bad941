package cptec

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/precip-data-etl/internal/config"
)

var testHour = time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		SourceURLTemplate: serverURL + "/MERGE/GPM/HOURLY/%Y/%m/%d/MERGE_CPTEC_%Y%m%d%H.grib2",
		GribDir:           t.TempDir(),
		FetchTimeout:      5 * time.Second,
		FetchRetries:      2,
	}
	return NewClient(cfg, slog.Default())
}

func TestArchiveURL(t *testing.T) {
	tests := []struct {
		name string
		hour time.Time
		want string
	}{
		{
			name: "morning hour",
			hour: time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC),
			want: "https://ftp.cptec.inpe.br/modelos/tempo/MERGE/GPM/HOURLY/2025/01/04/MERGE_CPTEC_2025010409.grib2",
		},
		{
			name: "afternoon hour",
			hour: time.Date(2025, 12, 31, 15, 0, 0, 0, time.UTC),
			want: "https://ftp.cptec.inpe.br/modelos/tempo/MERGE/GPM/HOURLY/2025/12/31/MERGE_CPTEC_2025123115.grib2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, archiveURL(config.DefaultSourceURLTemplate, tt.hour))
		})
	}
}

// Literal template text must survive expansion even when it looks like a
// placeholder or a time layout token ("GPM", the port digits, ".grib2").
func TestArchiveURL_LiteralsUntouched(t *testing.T) {
	hour := time.Date(2025, 1, 4, 9, 0, 0, 0, time.UTC)
	got := archiveURL("http://127.0.0.1:39123/MERGE/GPM/HOURLY/%Y/%m/%d/MERGE_CPTEC_%Y%m%d%H.grib2", hour)
	assert.Equal(t, "http://127.0.0.1:39123/MERGE/GPM/HOURLY/2025/01/04/MERGE_CPTEC_2025010409.grib2", got)
}

func TestEnsure_DownloadsAndCaches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/MERGE/GPM/HOURLY/2025/01/04/MERGE_CPTEC_2025010409.grib2", r.URL.Path)
		w.Write([]byte("grib-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	path, err := c.Ensure(context.Background(), testHour)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "grib-bytes", string(data))
	assert.Equal(t, filepath.Base(path), "MERGE_CPTEC_2025010409.grib2")

	// Second call is served from disk.
	_, err = c.Ensure(context.Background(), testHour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestEnsure_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.Ensure(context.Background(), testHour)
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestEnsure_RetriesServerError(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("grib-bytes"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	path, err := c.Ensure(context.Background(), testHour)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, int64(2), hits.Load())
}

func TestEnsure_ExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	_, err := c.Ensure(context.Background(), testHour)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAvailable)
}

func TestEnsure_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Ensure(ctx, testHour)
	assert.ErrorIs(t, err, context.Canceled)
}
