// cmd/config.go

package main

import (
	"AveBlob/pkg/blob"
	"AveBlob/pkg/object"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Setting describes where a blob lives and how it is accessed.
type Setting struct {
	Storage       string      `yaml:"storage" json:"storage"`
	Endpoint      string      `yaml:"endpoint" json:"endpoint"`
	Container     string      `yaml:"container" json:"container"`
	Blob          string      `yaml:"blob" json:"blob"`
	PageSize      int         `yaml:"page_size" json:"pageSize"`
	Encrypt       bool        `yaml:"encrypt" json:"encrypt"`
	UploadLimit   int64       `yaml:"upload_limit" json:"uploadLimit"`
	DownloadLimit int64       `yaml:"download_limit" json:"downloadLimit"`
	Cache         blob.Config `yaml:"cache" json:"cache"`
}

func defaultSetting() *Setting {
	return &Setting{
		Storage:   "file",
		Endpoint:  "/var/aveblob",
		Container: "default",
		PageSize:  512,
		Cache:     *blob.DefaultConfig(),
	}
}

func loadSetting(path string) (*Setting, error) {
	s := defaultSetting()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse %s: %s", path, err)
	}
	return s, nil
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file with storage and cache settings",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "page blob storage type (" + strings.Join(object.Storages(), ", ") + ")",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "endpoint of the storage (e.g. /var/aveblob, redis://host:6379/1, sftp://user@host/path)",
		},
		&cli.StringFlag{
			Name:  "container",
			Usage: "container holding the blob",
		},
		&cli.StringFlag{
			Name:  "blob",
			Usage: "name of the blob",
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "size of a page in bytes",
		},
		&cli.BoolFlag{
			Name:  "encrypt",
			Usage: "encrypt pages with a passphrase (env AVEBLOB_PASSPHRASE)",
		},
		&cli.Int64Flag{
			Name:  "upload-limit",
			Usage: "bandwidth limit for upload in Mbps",
		},
		&cli.Int64Flag{
			Name:  "download-limit",
			Usage: "bandwidth limit for download in Mbps",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "number of attempts of a remote request",
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "pause between two attempts",
		},
		&cli.IntFlag{
			Name:  "round-trip-pages",
			Usage: "maximum pages moved by a single request",
		},
		&cli.IntFlag{
			Name:  "cache-pages",
			Usage: "number of pages kept in memory (0 to disable)",
		},
		&cli.BoolFlag{
			Name:  "buffer-writes",
			Usage: "keep writes in memory until flushed",
		},
		&cli.BoolFlag{
			Name:  "auto-create",
			Usage: "create missing container and blob on demand",
		},
	}
}

func commandSetting(c *cli.Context) *Setting {
	s, err := loadSetting(c.String("config"))
	if err != nil {
		logger.Fatalf("load config: %s", err)
	}
	if c.IsSet("storage") {
		s.Storage = c.String("storage")
	}
	if c.IsSet("endpoint") {
		s.Endpoint = c.String("endpoint")
	}
	if c.IsSet("container") {
		s.Container = c.String("container")
	}
	if c.IsSet("blob") {
		s.Blob = c.String("blob")
	}
	if c.IsSet("page-size") {
		s.PageSize = c.Int("page-size")
	}
	if c.IsSet("encrypt") {
		s.Encrypt = c.Bool("encrypt")
	}
	if c.IsSet("upload-limit") {
		s.UploadLimit = c.Int64("upload-limit")
	}
	if c.IsSet("download-limit") {
		s.DownloadLimit = c.Int64("download-limit")
	}
	if c.IsSet("retries") {
		s.Cache.RetryAttempts = c.Int("retries")
	}
	if c.IsSet("retry-delay") {
		s.Cache.RetryDelay = c.Duration("retry-delay")
	}
	if c.IsSet("round-trip-pages") {
		s.Cache.PagesPerRoundTrip = c.Int("round-trip-pages")
	}
	if c.IsSet("cache-pages") {
		s.Cache.CachePages = c.Int("cache-pages")
	}
	if c.IsSet("buffer-writes") {
		s.Cache.BufferWrites = c.Bool("buffer-writes")
	}
	if c.IsSet("auto-create") {
		s.Cache.AutoCreateContainer = c.Bool("auto-create")
		s.Cache.AutoCreateBlob = c.Bool("auto-create")
	}
	return s
}

func createStorage(s *Setting) (object.PageBlob, error) {
	store, err := object.CreateStorage(strings.ToLower(s.Storage), s.Endpoint, s.Container, s.Blob, s.PageSize)
	if err != nil {
		return nil, err
	}
	if s.Encrypt {
		passphrase := os.Getenv("AVEBLOB_PASSPHRASE")
		if passphrase == "" {
			return nil, fmt.Errorf("AVEBLOB_PASSPHRASE is needed for encrypted blobs")
		}
		enc, err := object.NewXTSEncryptor(passphrase, s.Container+"/"+s.Blob)
		if err != nil {
			return nil, fmt.Errorf("encryptor: %s", err)
		}
		if store, err = object.NewEncrypted(store, enc); err != nil {
			return nil, err
		}
	}
	if s.UploadLimit > 0 || s.DownloadLimit > 0 {
		store = object.NewLimited(store, s.UploadLimit*1e6/8, s.DownloadLimit*1e6/8)
	}
	return store, nil
}

func openBlob(c *cli.Context) (*Setting, *blob.CachedBlob) {
	s := commandSetting(c)
	if s.Blob == "" {
		logger.Fatalf("Please give the name of the blob with --blob")
	}
	store, err := createStorage(s)
	if err != nil {
		logger.Fatalf("page blob storage: %s", err)
	}
	logger.Debugf("Data uses %s", store)
	return s, blob.New(store, &s.Cache)
}
