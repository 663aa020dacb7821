// cmd/bench.go

package main

import (
	"AveBlob/pkg/utils"
	crand "crypto/rand"
	"fmt"
	"math/rand"
	"time"

	"github.com/urfave/cli/v2"
)

func bench(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	s, b := openBlob(ctx)
	if err := b.CreateContainerIfNotExists(ctx.Context); err != nil {
		logger.Fatalf("create container: %s", err)
	}
	pages, err := b.CreateIfNotExists(ctx.Context, ctx.Int("pages"))
	if err != nil {
		logger.Fatalf("create %s: %s", b, err)
	}
	size := pages * b.PageSize()
	bsize := ctx.Int("block-size")
	if bsize <= 0 || bsize > size {
		logger.Fatalf("block size %d does not fit into a blob of %d bytes", bsize, size)
	}
	ops := ctx.Int("ops")
	ratio := ctx.Float64("read-ratio")
	buf := make([]byte, bsize)

	progress, bar := utils.NewProgressBar("benchmark:", int64(ops*bsize), ctx.Bool("quiet"))
	var reads, writes int
	start := time.Now()
	for i := 0; i < ops; i++ {
		offset := rand.Intn(size - bsize + 1)
		if rand.Float64() < ratio {
			if _, err = b.Read(ctx.Context, offset, bsize); err != nil {
				logger.Fatalf("read %d bytes at %d: %s", bsize, offset, err)
			}
			reads++
		} else {
			_, _ = crand.Read(buf)
			if err = b.Write(ctx.Context, offset, buf, 0); err != nil {
				logger.Fatalf("write %d bytes at %d: %s", bsize, offset, err)
			}
			writes++
		}
		bar.IncrBy(bsize)
	}
	if err = b.Flush(ctx.Context); err != nil {
		logger.Fatalf("flush: %s", err)
	}
	progress.Wait()
	used := time.Since(start)

	fmt.Printf("Benchmark of %s (buffered writes: %v, cache pages: %d)\n", b, s.Cache.BufferWrites, b.Config().CachePages)
	fmt.Printf("  %d reads, %d writes of %d bytes in %.2f s\n", reads, writes, bsize, used.Seconds())
	fmt.Printf("  %.2f ops/s, %.2f MiB/s\n", float64(ops)/used.Seconds(), float64(ops*bsize)/used.Seconds()/(1<<20))
	ru := utils.GetRusage()
	fmt.Printf("  CPU: user %.2f s, system %.2f s\n", ru.GetUtime(), ru.GetStime())
	printJson(b.Stats())

	if !ctx.Bool("keep") {
		if err = b.Delete(ctx.Context); err != nil {
			logger.Warnf("delete %s: %s", b, err)
		}
	}
	return nil
}

func benchFlags() *cli.Command {
	return &cli.Command{
		Name:   "bench",
		Usage:  "run random reads and writes against a blob",
		Action: bench,
		Flags: append(storageFlags(),
			&cli.IntFlag{
				Name:  "pages",
				Value: 8192,
				Usage: "size of the blob in pages when it is created",
			},
			&cli.IntFlag{
				Name:  "block-size",
				Value: 4096,
				Usage: "size of each read or write in bytes",
			},
			&cli.IntFlag{
				Name:  "ops",
				Value: 1000,
				Usage: "number of operations",
			},
			&cli.Float64Flag{
				Name:  "read-ratio",
				Value: 0.7,
				Usage: "share of reads among the operations",
			},
			&cli.BoolFlag{
				Name:  "keep",
				Usage: "keep the blob after the benchmark",
			},
		),
	}
}
