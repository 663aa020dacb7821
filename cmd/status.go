// cmd/status.go

package main

import (
	"AveBlob/pkg/blob"
	"AveBlob/pkg/object"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"
)

type sections struct {
	Setting    *Setting
	Properties *object.Properties
	Stats      blob.Stats
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func status(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	s, b := openBlob(ctx)
	props, err := b.GetProperties(ctx.Context)
	if err != nil {
		logger.Fatalf("get properties: %s", err)
	}
	if ctx.Bool("warm") {
		n, err := b.PagesAmount(ctx.Context)
		if err != nil {
			logger.Fatalf("pages: %s", err)
		}
		if n > b.Config().CachePages {
			n = b.Config().CachePages
		}
		if n > 0 {
			if _, err = b.GetPages(ctx.Context, 0, n); err != nil {
				logger.Fatalf("warm up: %s", err)
			}
		}
	}
	s.Cache = b.Config()
	printJson(&sections{s, props, b.Stats()})
	return nil
}

func statusFlags() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show settings and cache state of a blob",
		Action: status,
		Flags: append(storageFlags(),
			&cli.BoolFlag{
				Name:  "warm",
				Usage: "load the leading pages into the cache first",
			},
		),
	}
}
