// cmd/info.go

package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func infoFlags() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "show properties of a blob",
		Action: info,
		Flags:  storageFlags(),
	}
}

func info(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	_, b := openBlob(ctx)
	props, err := b.GetProperties(ctx.Context)
	if err != nil {
		logger.Fatalf("get properties of %s: %s", b, err)
	}
	fmt.Println(b, ":")
	fmt.Printf("  size: %d\n", props.Size)
	fmt.Printf("  page size: %d\n", b.PageSize())
	fmt.Printf("  pages: %d\n", props.Size/int64(b.PageSize()))
	return nil
}
