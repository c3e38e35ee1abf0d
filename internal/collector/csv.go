package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/retry"
)

// Column aliases accepted in export headers.
var csvColumns = map[string][]string{
	"external_id":  {"external_id", "appid", "app_id", "id", "slug"},
	"name":         {"name", "display_name", "title"},
	"followers":    {"followers", "follower_count"},
	"wishlists":    {"wishlists_est", "wishlists", "wishlist_estimate"},
	"publisher":    {"publisher", "publishers"},
	"release_date": {"release_date", "release_date_raw", "release"},
}

// CSV reads observations from a platform export file with a header row.
type CSV struct {
	platform domain.Platform
	path     string
	logger   *zap.Logger
}

// NewCSV creates a collector reading path.
func NewCSV(platform domain.Platform, path string, logger *zap.Logger) *CSV {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSV{platform: platform, path: path, logger: logger}
}

// Platform returns the platform this collector serves.
func (c *CSV) Platform() domain.Platform { return c.platform }

// Collect parses the export. A missing file or header is permanent and not retried.
func (c *CSV) Collect(ctx context.Context) ([]domain.Observation, error) {
	f, err := os.Open(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, retry.Permanent(fmt.Errorf("open export: %w", err))
		}
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	return c.parse(ctx, f)
}

func (c *CSV) parse(ctx context.Context, r io.Reader) ([]domain.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("read header: %w", err))
	}
	cols := indexColumns(header)
	if _, ok := cols["external_id"]; !ok {
		return nil, retry.Permanent(fmt.Errorf("export %s has no id column", c.path))
	}

	var out []domain.Observation
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		obs := domain.Observation{
			Platform:       c.platform,
			ExternalID:     field(record, cols, "external_id"),
			DisplayName:    field(record, cols, "name"),
			Publisher:      field(record, cols, "publisher"),
			ReleaseDateRaw: field(record, cols, "release_date"),
			Followers:      c.number(record, cols, "followers", line),
			WishlistsEst:   c.number(record, cols, "wishlists", line),
		}
		if obs.ExternalID == "" {
			c.logger.Warn("skipping export row without id", zap.String("path", c.path), zap.Int("line", line))
			continue
		}
		out = append(out, obs)
	}
	return out, nil
}

// number parses a count column. Blank or malformed values are unknown, not zero.
func (c *CSV) number(record []string, cols map[string]int, key string, line int) *int64 {
	raw := strings.ReplaceAll(field(record, cols, key), ",", "")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		c.logger.Warn("unreadable count treated as unknown",
			zap.String("path", c.path),
			zap.Int("line", line),
			zap.String("column", key),
			zap.String("value", raw))
		return nil
	}
	return &v
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for key, aliases := range csvColumns {
			if _, done := cols[key]; done {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					cols[key] = i
					break
				}
			}
		}
	}
	return cols
}

func field(record []string, cols map[string]int, key string) string {
	i, ok := cols[key]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
