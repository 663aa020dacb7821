// pkg/blob/config.go

package blob

import (
	"time"

	"AveBlob/pkg/object"
)

// Config of a cached blob.
type Config struct {
	RetryAttempts       int           `yaml:"retry_attempts"`
	RetryDelay          time.Duration `yaml:"retry_delay"`
	PagesPerRoundTrip   int           `yaml:"pages_per_round_trip"`
	CachePages          int           `yaml:"cache_pages"`
	BufferWrites        bool          `yaml:"buffer_writes"`
	AutoCreateContainer bool          `yaml:"auto_create_container"`
	AutoCreateBlob      bool          `yaml:"auto_create_blob"`
	InitPages           int           `yaml:"init_pages"`
}

func DefaultConfig() *Config {
	return &Config{
		RetryAttempts: 3,
		RetryDelay:    time.Second * 5,
		CachePages:    1024,
	}
}

// Check fills the missing settings for pages of pageSize.
func (c *Config) Check(pageSize int) {
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	maxPages := object.MaxRequestBytes / pageSize
	if maxPages == 0 {
		maxPages = 1
	}
	if c.PagesPerRoundTrip <= 0 || c.PagesPerRoundTrip > maxPages {
		c.PagesPerRoundTrip = maxPages
	}
	if c.CachePages < 0 {
		c.CachePages = 0
	}
	if c.InitPages < 0 {
		c.InitPages = 0
	}
}
