// cmd/read.go

package main

import (
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
)

func parseArg(ctx *cli.Context, i int, name string) int {
	v, err := strconv.Atoi(ctx.Args().Get(i))
	if err != nil || v < 0 {
		logger.Fatalf("invalid %s: %q", name, ctx.Args().Get(i))
	}
	return v
}

func read(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 2 {
		logger.Fatalf("OFFSET and LENGTH are needed")
	}
	offset := parseArg(ctx, 0, "offset")
	length := parseArg(ctx, 1, "length")
	_, b := openBlob(ctx)

	p, err := b.Read(ctx.Context, offset, length)
	if err != nil {
		logger.Fatalf("read %d bytes at %d: %s", length, offset, err)
	}
	var out io.Writer = os.Stdout
	if path := ctx.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			logger.Fatalf("create %s: %s", path, err)
		}
		defer f.Close()
		out = f
	}
	r := p.NewReader()
	defer r.Close()
	if _, err = io.Copy(out, r); err != nil {
		logger.Fatalf("write output: %s", err)
	}
	return nil
}

func readFlags() *cli.Command {
	return &cli.Command{
		Name:      "read",
		Usage:     "read a byte range of a blob",
		ArgsUsage: "OFFSET LENGTH",
		Action:    read,
		Flags: append(storageFlags(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "file to write the data into (default stdout)",
			},
		),
	}
}
