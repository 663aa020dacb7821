// cmd/format.go

package main

import (
	"AveBlob/pkg/blob"
	"AveBlob/pkg/object"
	"bytes"
	"context"
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func doTesting(ctx context.Context, store object.PageBlob, data []byte) error {
	if err := store.Create(ctx, 2); err != nil {
		if object.KindOf(err) != object.ContainerNotFound {
			return fmt.Errorf("Failed to create: %s", err)
		}
		if err2 := store.CreateContainerIfNotExists(ctx); err2 != nil {
			return fmt.Errorf("Failed to create container of %s: %s, previous error: %s\nplease create it manually, then format again",
				store, err2, err)
		}
		if err := store.Create(ctx, 2); err != nil {
			return fmt.Errorf("Failed to create: %s", err)
		}
	}
	if err := store.SavePages(ctx, 1, data); err != nil {
		return fmt.Errorf("Failed to save pages: %s", err)
	}
	data2, err := store.GetPages(ctx, 1, 1)
	if err != nil {
		return fmt.Errorf("Failed to get pages: %s", err)
	}
	if !bytes.Equal(data, data2) {
		return fmt.Errorf("Read wrong data")
	}
	if err = store.Delete(ctx); err != nil {
		// it's OK to don't have deletion permission
		fmt.Printf("Failed to delete: %s", err)
	}
	return nil
}

func test(ctx context.Context, s *Setting) error {
	probe := *s
	probe.Blob = "testing-" + randSeq(10)
	store, err := createStorage(&probe)
	if err != nil {
		return err
	}
	data := make([]byte, probe.PageSize)
	_, _ = crand.Read(data)
	nRetry := 3
	for i := 0; i < nRetry; i++ {
		err = doTesting(ctx, store, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Second * time.Duration(i*3+1))
	}
	return err
}

func format(c *cli.Context) error {
	setLoggerLevel(c)
	ctx := c.Context
	s := commandSetting(c)
	if s.Blob == "" {
		s.Blob = uuid.New().String()
	}
	if !c.Bool("no-test") {
		if err := test(ctx, s); err != nil {
			logger.Fatalf("Storage %s is not configured correctly: %s", s.Endpoint, err)
		}
	}

	store, err := createStorage(s)
	if err != nil {
		logger.Fatalf("page blob storage: %s", err)
	}
	b := blob.New(store, &s.Cache)
	if err = b.CreateContainerIfNotExists(ctx); err != nil {
		logger.Fatalf("create container: %s", err)
	}
	if c.Bool("force") {
		if err = b.DeleteIfExists(ctx); err != nil {
			logger.Fatalf("delete existing blob: %s", err)
		}
	}
	pages := c.Int("pages")
	if c.Bool("no-update") {
		if pages, err = b.CreateIfNotExists(ctx, pages); err != nil {
			logger.Fatalf("format: %s", err)
		}
	} else if err = b.Create(ctx, pages); err != nil {
		logger.Fatalf("format: %s", err)
	}
	s.Cache = b.Config()
	logger.Infof("Blob %s is formatted with %d pages as %+v", b, pages, *s)
	return nil
}

func formatFlags() *cli.Command {
	return &cli.Command{
		Name:  "format",
		Usage: "create a page blob",
		Flags: append(storageFlags(),
			&cli.IntFlag{
				Name:  "pages",
				Value: 0,
				Usage: "initial size of the blob in pages",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite existing blob",
			},
			&cli.BoolFlag{
				Name:  "no-update",
				Usage: "keep an existing blob as it is",
			},
			&cli.BoolFlag{
				Name:  "no-test",
				Usage: "skip probing the storage",
			},
		),
		Action: format,
	}
}
