// cmd/main.go

package main

import (
	"AveBlob/pkg/blob"
	"AveBlob/pkg/utils"
	"AveBlob/pkg/version"
	"fmt"
	"net/http"
	"os"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var logger = utils.GetLogger("aveblob")

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"debug", "v"},
			Usage:   "enable debug log",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "enable trace log",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only warning and errors",
		},
		&cli.StringFlag{
			Name:  "log",
			Usage: "path of log file",
		},
		&cli.BoolFlag{
			Name:  "no-agent",
			Usage: "disable gops agent",
		},
		&cli.StringFlag{
			Name:  "metrics",
			Usage: "address to export metrics (e.g. 127.0.0.1:9567)",
		},
	}
}

func setLoggerLevel(c *cli.Context) {
	if c.Bool("trace") {
		utils.SetLogLevel(logrus.TraceLevel)
	} else if c.Bool("verbose") {
		utils.SetLogLevel(logrus.DebugLevel)
	} else if c.Bool("quiet") {
		utils.SetLogLevel(logrus.WarnLevel)
	} else {
		utils.SetLogLevel(logrus.InfoLevel)
	}
	if path := c.String("log"); path != "" {
		if err := utils.SetOutFile(path); err != nil {
			logger.Fatalf("open log file %s: %s", path, err)
		}
	}
}

func setup(c *cli.Context) error {
	setLoggerLevel(c)
	if !c.Bool("no-agent") {
		if err := agent.Listen(agent.Options{}); err != nil {
			logger.Warnf("start gops agent: %s", err)
		}
	}
	blob.InitMetrics(prometheus.DefaultRegisterer)
	if addr := c.String("metrics"); addr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Errorf("metrics server on %s: %s", addr, err)
			}
		}()
		logger.Infof("Metrics are exported on http://%s/metrics", addr)
	}
	return nil
}

func main() {
	cli.VersionFlag = &cli.BoolFlag{
		Name: "version", Aliases: []string{"V"},
		Usage: "print only the version",
	}
	app := &cli.App{
		Name:                 "aveblob",
		Usage:                "A cached byte addressable view over remote page blobs.",
		Version:              version.Version(),
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Before:               setup,
		Commands: []*cli.Command{
			formatFlags(),
			infoFlags(),
			statusFlags(),
			readFlags(),
			writeFlags(),
			exportFlags(),
			benchFlags(),
			rmrFlags(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
