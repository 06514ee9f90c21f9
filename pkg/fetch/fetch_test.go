package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quriousri/foxglove/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func zipWithJSON(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	entry, err := w.Create("data.json")
	require.NoError(t, err)
	_, err = entry.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFetchDrugRecords(t *testing.T) {
	payload := `{"results": [
		{"application_number": "NDA021234", "sponsor_name": "ACME PHARMA"},
		{"application_number": "ANDA075000", "sponsor_name": "OTHER PHARMA"}
	]}`
	archive := zipWithJSON(t, payload)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	dir := t.TempDir()
	client := NewClient(testLogger(), dir, 10*time.Second, 1)

	records, err := client.FetchDrugRecords(context.Background(), server.URL+"/bulk.zip")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "NDA021234", records[0].ApplicationNumber)
	assert.Equal(t, "OTHER PHARMA", records[1].SponsorName)

	// archive cleaned up after extraction
	_, err = os.Stat(filepath.Join(dir, bulkArchiveName))
	assert.True(t, os.IsNotExist(err))
}

func TestFetchDrugRecords_RetriesOnServerError(t *testing.T) {
	archive := zipWithJSON(t, `{"results": []}`)
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(archive)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 2)
	records, err := client.FetchDrugRecords(context.Background(), server.URL+"/bulk.zip")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchDrugRecords_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 2)
	_, err := client.FetchDrugRecords(context.Background(), server.URL+"/bulk.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestEstimateShardCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta": {"results": {"total": 45000}}}`)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 1)
	shards, err := client.EstimateShardCount(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, shards) // ceil(45000 / 20000)
}

func TestEstimateShardCount_EmptyDataset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"meta": {"results": {"total": 0}}}`)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 1)
	_, err := client.EstimateShardCount(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchLabelShards(t *testing.T) {
	shardBody := func(splID string) []byte {
		return zipWithJSON(t, fmt.Sprintf(`{"results": [{"id": %q, "set_id": "set-1"}]}`, splID))
	}

	// metadata says two shards; the second is published under the +5
	// denominator to exercise the fallback patterns
	files := map[string][]byte{
		"/label/drug-label-0001-of-0002.json.zip": shardBody("spl-1"),
		"/label/drug-label-0002-of-0007.json.zip": shardBody("spl-2"),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta" {
			fmt.Fprint(w, `{"meta": {"results": {"total": 30000}}}`)
			return
		}
		body, ok := files[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodHead {
			return
		}
		w.Write(body)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 1)

	var got []string
	err := client.FetchLabelShards(context.Background(), server.URL+"/label", server.URL+"/meta", 0,
		func(_ context.Context, records []models.LabelRecord) error {
			for _, rec := range records {
				got = append(got, rec.SplID)
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"spl-1", "spl-2"}, got)
}

func TestFetchLabelShards_HonorsShardLimit(t *testing.T) {
	shard := zipWithJSON(t, `{"results": [{"id": "spl-1", "set_id": "set-1"}]}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/meta" {
			fmt.Fprint(w, `{"meta": {"results": {"total": 60000}}}`)
			return
		}
		if r.Method == http.MethodHead {
			return
		}
		w.Write(shard)
	}))
	defer server.Close()

	client := NewClient(testLogger(), t.TempDir(), 10*time.Second, 1)

	shardsSeen := 0
	err := client.FetchLabelShards(context.Background(), server.URL+"/label", server.URL+"/meta", 1,
		func(_ context.Context, _ []models.LabelRecord) error {
			shardsSeen++
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 1, shardsSeen)
}
