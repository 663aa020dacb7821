// cmd/rmr.go

package main

import (
	"github.com/urfave/cli/v2"
)

func rmrFlags() *cli.Command {
	return &cli.Command{
		Name:      "rmr",
		Usage:     "remove blobs",
		ArgsUsage: "[BLOB ...]",
		Action:    rmr,
		Flags: append(storageFlags(),
			&cli.BoolFlag{
				Name:  "missing-ok",
				Usage: "do not fail on blobs which do not exist",
			},
		),
	}
}

func rmr(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	s := commandSetting(ctx)
	names := ctx.Args().Slice()
	if s.Blob != "" {
		names = append(names, s.Blob)
	}
	if len(names) == 0 {
		logger.Infof("BLOB is needed")
		return nil
	}
	for _, name := range names {
		one := *s
		one.Blob = name
		store, err := createStorage(&one)
		if err != nil {
			logger.Errorf("open %s: %s", name, err)
			continue
		}
		if ctx.Bool("missing-ok") {
			err = store.DeleteIfExists(ctx.Context)
		} else {
			err = store.Delete(ctx.Context)
		}
		if err != nil {
			logger.Fatalf("RMR %s: %s", name, err)
		}
		logger.Infof("Removed %s", store)
	}
	return nil
}
