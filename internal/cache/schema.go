package cache

// ESTCCacheTable holds scraped catalogue responses so repeated ingests of
// the same ESTC number don't re-hit the catalogue site.
const ESTCCacheTable = "estc_cache"

// AllCacheSchemas lists the CREATE TABLE statements applied on first open.
var AllCacheSchemas = []string{
	`CREATE TABLE IF NOT EXISTS estc_cache (
		cache_key TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		cached_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// ValidCacheTableNames whitelists table names interpolated into SQL.
var ValidCacheTableNames = map[string]bool{
	ESTCCacheTable: true,
}
