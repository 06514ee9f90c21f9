// Package fetch downloads FDA bulk-data archives and decodes their JSON
// payloads into source records.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
)

// Client shares download plumbing between the bulk and label fetchers.
type Client struct {
	httpClient  *http.Client
	logger      ectologger.Logger
	downloadDir string
	maxRetries  int
}

// NewClient creates a fetch client. Downloaded archives land in downloadDir
// and are removed after their records are extracted.
func NewClient(logger ectologger.Logger, downloadDir string, requestTimeout time.Duration, maxRetries int) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		httpClient:  &http.Client{Timeout: requestTimeout},
		logger:      logger,
		downloadDir: downloadDir,
		maxRetries:  maxRetries,
	}
}

// download fetches url to localPath, retrying with fibonacci backoff.
func (c *Client) download(ctx context.Context, url, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create download directory for %s", localPath)
	}

	var lastErr error
	a, b := 1, 1
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		lastErr = c.downloadOnce(ctx, url, localPath)
		if lastErr == nil {
			return nil
		}

		c.logger.WithContext(ctx).WithError(lastErr).WithFields(map[string]any{
			"url":     url,
			"attempt": attempt,
		}).Warn("Download attempt failed")

		if attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}
	return errors.Wrapf(lastErr, "failed to download %s after %d attempts", url, c.maxRetries)
}

func (c *Client) downloadOnce(ctx context.Context, url, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build download request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "download request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("unexpected status %d downloading %s", resp.StatusCode, url)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", localPath)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(localPath)
		return errors.Wrapf(err, "failed to write %s", localPath)
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      url,
		"size_mb":  fmt.Sprintf("%.2f", float64(written)/1024/1024),
		"location": localPath,
	}).Info("Downloaded archive")
	return nil
}

// exists issues a HEAD request to check that url resolves without paying for
// the body.
func (c *Client) exists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// openArchivedJSON opens the first .json entry of the archive at zipPath.
// The caller must close both the reader and the zip handle via the returned
// closer.
func openArchivedJSON(zipPath string) (io.ReadCloser, error) {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open archive %s", zipPath)
	}

	for _, file := range archive.File {
		if !strings.HasSuffix(file.Name, ".json") {
			continue
		}
		entry, err := file.Open()
		if err != nil {
			archive.Close()
			return nil, errors.Wrapf(err, "failed to open %s in %s", file.Name, zipPath)
		}
		return &archiveEntry{ReadCloser: entry, archive: archive}, nil
	}

	archive.Close()
	return nil, errors.Errorf("no JSON entry found in %s", zipPath)
}

type archiveEntry struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (e *archiveEntry) Close() error {
	err := e.ReadCloser.Close()
	if closeErr := e.archive.Close(); err == nil {
		err = closeErr
	}
	return err
}
