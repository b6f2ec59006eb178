package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cohortlab/vigil/internal/domain/types"
	"github.com/cohortlab/vigil/pkg/logger"
)

// postTimeout bounds one upload to a running service.
const postTimeout = 30 * time.Second

// Run generates one extract and delivers it per the config: to a file, to a
// running service, or to stdout when neither is set.
func Run(ctx context.Context, cfg *Config) error {
	log := logger.Get().Named("seed")

	extract := GenerateExtract(cfg)
	log.Info(ctx, "generated extract", logger.Int("records", cfg.NumRecords))

	if cfg.OutPath != "" {
		if err := os.WriteFile(cfg.OutPath, []byte(extract), 0o644); err != nil {
			return fmt.Errorf("write extract: %w", err)
		}
		log.Info(ctx, "wrote extract", logger.String("path", cfg.OutPath))
	}

	if cfg.TargetURL != "" {
		receipt, err := post(ctx, cfg.TargetURL, extract)
		if err != nil {
			return err
		}
		log.Info(ctx, "posted extract",
			logger.Int("parsed", receipt.Parsed),
			logger.Int("created", receipt.Created),
			logger.Int("updated", receipt.Updated),
			logger.Bool("duplicate", receipt.Duplicate),
		)
	}

	if cfg.OutPath == "" && cfg.TargetURL == "" {
		fmt.Print(extract)
	}
	return nil
}

// post uploads the extract to a running service's /ingest endpoint.
func post(ctx context.Context, url, extract string) (types.IngestReceipt, error) {
	reqCtx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewBufferString(extract))
	if err != nil {
		return types.IngestReceipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return types.IngestReceipt{}, fmt.Errorf("post extract: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.IngestReceipt{}, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var receipt types.IngestReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return types.IngestReceipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	return receipt, nil
}
