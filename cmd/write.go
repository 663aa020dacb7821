// cmd/write.go

package main

import (
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func write(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 1 {
		logger.Fatalf("OFFSET is needed")
	}
	offset := parseArg(ctx, 0, "offset")
	var in io.Reader = os.Stdin
	if ctx.Args().Len() > 1 {
		f, err := os.Open(ctx.Args().Get(1))
		if err != nil {
			logger.Fatalf("open %s: %s", ctx.Args().Get(1), err)
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		logger.Fatalf("read input: %s", err)
	}
	_, b := openBlob(ctx)
	if err = b.Write(ctx.Context, offset, data, ctx.Int("resize-rate")); err != nil {
		logger.Fatalf("write %d bytes at %d: %s", len(data), offset, err)
	}
	if err = b.Flush(ctx.Context); err != nil {
		logger.Fatalf("flush: %s", err)
	}
	logger.Infof("Wrote %d bytes at %d into %s", len(data), offset, b)
	return nil
}

func writeFlags() *cli.Command {
	return &cli.Command{
		Name:      "write",
		Usage:     "write data into a blob",
		ArgsUsage: "OFFSET [FILE]",
		Action:    write,
		Flags: append(storageFlags(),
			&cli.IntFlag{
				Name:  "resize-rate",
				Value: 0,
				Usage: "grow the blob to a multiple of this many pages when writing past its end (0 to fail)",
			},
		),
	}
}
