// cmd/export.go

package main

import (
	"AveBlob/pkg/compress"
	"AveBlob/pkg/utils"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/zeebo/blake3"
)

func export(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	if ctx.Args().Len() < 1 {
		logger.Fatalf("FILE is needed")
	}
	path := ctx.Args().Get(0)
	compressor := compress.NewCompressor(ctx.String("compress"))
	if compressor == nil {
		logger.Fatalf("Unsupported compress algorithm: %s", ctx.String("compress"))
	}
	_, b := openBlob(ctx)
	pages, err := b.PagesAmount(ctx.Context)
	if err != nil {
		logger.Fatalf("pages of %s: %s", b, err)
	}

	var data []byte
	if ctx.Bool("whole") {
		if data, err = b.Download(ctx.Context); err != nil {
			logger.Fatalf("download %s: %s", b, err)
		}
	} else {
		step := b.Config().PagesPerRoundTrip
		progress, bar := utils.NewProgressBar("exported:", int64(pages*b.PageSize()), ctx.Bool("quiet"))
		data = make([]byte, 0, pages*b.PageSize())
		for start := 0; start < pages; start += step {
			n := utils.Min(step, pages-start)
			buf, err := b.GetPages(ctx.Context, start, n)
			if err != nil {
				logger.Fatalf("read pages %d-%d: %s", start, start+n, err)
			}
			data = append(data, buf...)
			bar.IncrBy(len(buf))
		}
		progress.Wait()
	}
	digest := blake3.Sum256(data)

	out := data
	if compressor.Name() != "Noop" {
		out = make([]byte, compressor.CompressBound(len(data)))
		n, err := compressor.Compress(out, data)
		if err != nil {
			logger.Fatalf("compress: %s", err)
		}
		out = out[:n]
	}
	if err = os.WriteFile(path, out, 0644); err != nil {
		logger.Fatalf("write %s: %s", path, err)
	}
	logger.Infof("Exported %d pages of %s into %s (%s, %d bytes)", pages, b, path, compressor.Name(), len(out))
	fmt.Printf("blake3 %s\n", hex.EncodeToString(digest[:]))
	return nil
}

func exportFlags() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "copy the content of a blob into a local file",
		ArgsUsage: "FILE",
		Action:    export,
		Flags: append(storageFlags(),
			&cli.StringFlag{
				Name:  "compress",
				Value: "none",
				Usage: "compression algorithm (lz4, zstd, none)",
			},
			&cli.BoolFlag{
				Name:  "whole",
				Usage: "download the blob with a single request",
			},
		),
	}
}
