package fetch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/quriousri/foxglove/pkg/models"
	"github.com/quriousri/foxglove/pkg/tracing"
)

const bulkArchiveName = "fda_drugs_bulk.zip"

type bulkPayload struct {
	Results []models.DrugRecord `json:"results"`
}

// FetchDrugRecords downloads the drugs@FDA bulk archive, decodes its records
// and removes the archive afterwards.
func (c *Client) FetchDrugRecords(ctx context.Context, url string) ([]models.DrugRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "fetch.Client.FetchDrugRecords")
	defer span.End()

	localPath := filepath.Join(c.downloadDir, bulkArchiveName)
	if err := c.download(ctx, url, localPath); err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(localPath); err != nil {
			c.logger.WithContext(ctx).WithError(err).Warn("Failed to remove bulk archive")
		}
	}()

	entry, err := openArchivedJSON(localPath)
	if err != nil {
		return nil, err
	}
	defer entry.Close()

	var payload bulkPayload
	if err := json.NewDecoder(entry).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode bulk drug records")
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{"records": len(payload.Results)}).Info("Fetched bulk drug records")
	return payload.Results, nil
}
