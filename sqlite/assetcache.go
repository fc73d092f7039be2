package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/foliotools/folio"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ folio.AssetCache = (*AssetCache)(nil)

// AssetCache implements folio.AssetCache using SQLite. Assets are keyed by
// content hash with a URL alias table, so a hit through any previously seen
// URL (exact or normalized) skips the network on later runs.
type AssetCache struct {
	db *DB
}

// NewAssetCache creates a new AssetCache.
func NewAssetCache(db *DB) *AssetCache {
	return &AssetCache{db: db}
}

// Lookup returns the cached asset matching any of the URLs.
// Returns ENOTFOUND if no entry matches.
func (c *AssetCache) Lookup(ctx context.Context, urls []string) (*folio.Asset, error) {
	keys := urlKeys(urls)
	if len(keys) == 0 {
		return nil, folio.Errorf(folio.ENOTFOUND, "asset not cached")
	}

	var assetID string
	for _, key := range keys {
		err := c.db.QueryRowContext(ctx, `SELECT asset_id FROM asset_urls WHERE url = ?`, key).Scan(&assetID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return c.loadAsset(ctx, assetID)
	}
	return nil, folio.Errorf(folio.ENOTFOUND, "asset not cached")
}

// Store records an asset and its URLs. Storing an asset whose content hash is
// already present only adds new URL aliases.
func (c *AssetCache) Store(ctx context.Context, asset *folio.Asset) error {
	if asset.ContentHash == "" {
		return folio.Errorf(folio.EINVALID, "asset content hash required")
	}

	id := asset.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO assets (id, filename, media_type, content, origin_url, content_hash, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO NOTHING
	`, id, asset.Filename, asset.MediaType, asset.Content, asset.OriginURL, asset.ContentHash,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	// The insert may have been a no-op; alias URLs must point at the row
	// that owns the hash.
	var ownerID string
	if err := c.db.QueryRowContext(ctx, `SELECT id FROM assets WHERE content_hash = ?`, asset.ContentHash).Scan(&ownerID); err != nil {
		return err
	}

	urls := append([]string{asset.OriginURL}, asset.AltURLs...)
	for _, key := range urlKeys(urls) {
		if _, err := c.db.ExecContext(ctx, `
			INSERT INTO asset_urls (url, asset_id) VALUES (?, ?)
			ON CONFLICT(url) DO NOTHING
		`, key, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database.
func (c *AssetCache) Close() error {
	return c.db.Close()
}

func (c *AssetCache) loadAsset(ctx context.Context, id string) (*folio.Asset, error) {
	var asset folio.Asset
	err := c.db.QueryRowContext(ctx, `
		SELECT id, filename, media_type, content, origin_url, content_hash
		FROM assets WHERE id = ?
	`, id).Scan(&asset.ID, &asset.Filename, &asset.MediaType, &asset.Content, &asset.OriginURL, &asset.ContentHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, folio.Errorf(folio.ENOTFOUND, "asset not cached")
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `SELECT url FROM asset_urls WHERE asset_id = ? AND url != ?`, id, asset.OriginURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		asset.AltURLs = append(asset.AltURLs, u)
	}
	return &asset, rows.Err()
}

// urlKeys produces the lookup keys for a URL list: each URL exactly as given
// plus its normalized form, deduplicated and with empties dropped.
func urlKeys(urls []string) []string {
	seen := make(map[string]struct{})
	var keys []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		keys = append(keys, u)
	}
	for _, u := range urls {
		add(u)
		add(folio.NormalizeURL(u))
	}
	return keys
}
