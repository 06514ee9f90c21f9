package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

// recordsPerShard is how many labels open.fda.gov packs into one shard file.
const recordsPerShard = 20000

// The published shard total occasionally runs ahead of the metadata
// estimate, so each shard name is tried with a few denominators.
var shardTotalOffsets = []int{0, 5, 10}

type labelMetadata struct {
	Meta struct {
		Results struct {
			Total int `json:"total"`
		} `json:"results"`
	} `json:"meta"`
}

type labelPayload struct {
	Results []models.LabelRecord `json:"results"`
}

// ShardHandler consumes the decoded records of one label shard.
type ShardHandler func(ctx context.Context, records []models.LabelRecord) error

// EstimateShardCount probes the label API metadata and derives how many
// shard files cover the dataset.
func (c *Client) EstimateShardCount(ctx context.Context, metadataURL string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "fetch.Client.EstimateShardCount")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataURL, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build metadata request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "label metadata request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errors.Errorf("unexpected status %d from label metadata", resp.StatusCode)
	}

	var meta labelMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return 0, errors.Wrap(err, "failed to decode label metadata")
	}

	total := meta.Meta.Results.Total
	if total <= 0 {
		return 0, errors.Errorf("label metadata reports no records")
	}

	shards := (total + recordsPerShard - 1) / recordsPerShard
	c.logger.WithContext(ctx).WithFields(map[string]any{
		"total_records":    total,
		"estimated_shards": shards,
	}).Info("Estimated label shard count")
	return shards, nil
}

// FetchLabelShards streams label shards through handler one at a time, so a
// full shard's records are the most that is ever held in memory. Each shard
// archive is deleted once handled. shardLimit > 0 stops after that many
// shards. A shard past the estimate that resolves to no file ends the run.
func (c *Client) FetchLabelShards(ctx context.Context, baseURL, metadataURL string, shardLimit int, handler ShardHandler) error {
	ctx, span := tracing.StartSpan(ctx, "fetch.Client.FetchLabelShards")
	defer span.End()

	estimated, err := c.EstimateShardCount(ctx, metadataURL)
	if err != nil {
		return err
	}

	handled := 0
	for part := 1; part <= estimated+shardTotalOffsets[len(shardTotalOffsets)-1]; part++ {
		if shardLimit > 0 && handled >= shardLimit {
			c.logger.WithContext(ctx).WithFields(map[string]any{"shards": handled}).Info("Reached shard limit, stopping")
			return nil
		}

		url := c.resolveShardURL(ctx, baseURL, part, estimated)
		if url == "" {
			if part > estimated {
				c.logger.WithContext(ctx).WithFields(map[string]any{"last_shard": part - 1}).Info("No more label shards found")
				return nil
			}
			c.logger.WithContext(ctx).WithFields(map[string]any{"shard": part}).Warn("Label shard not found, skipping")
			continue
		}

		if err := c.handleShard(ctx, url, handler); err != nil {
			return errors.Wrapf(err, "failed to process label shard %d", part)
		}
		handled++
	}
	return nil
}

// resolveShardURL finds the published name for shard part, trying the
// estimated denominator and its fallbacks. Empty string means no candidate
// resolved.
func (c *Client) resolveShardURL(ctx context.Context, baseURL string, part, estimated int) string {
	for _, offset := range shardTotalOffsets {
		name := fmt.Sprintf("drug-label-%04d-of-%04d.json.zip", part, estimated+offset)
		url := baseURL + "/" + name
		if c.exists(ctx, url) {
			return url
		}
	}
	return ""
}

func (c *Client) handleShard(ctx context.Context, url string, handler ShardHandler) error {
	localPath := filepath.Join(c.downloadDir, filepath.Base(url))
	if err := c.download(ctx, url, localPath); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(localPath); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to remove shard archive")
		}
	}()

	entry, err := openArchivedJSON(localPath)
	if err != nil {
		return err
	}
	defer entry.Close()

	var payload labelPayload
	if err := json.NewDecoder(entry).Decode(&payload); err != nil {
		return errors.Wrap(err, "failed to decode label shard")
	}

	return handler(ctx, payload.Results)
}
