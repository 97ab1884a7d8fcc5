package main

/*------------------------------------------------------------------
 *
 * Purpose:	Run a DALI bus master with the TCP control server.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	dalmatian "github.com/doismellburning/dalmatian/src"
)

func main() {
	var configPath = pflag.StringP("config", "c", "", "Path to configuration file")
	var listen = pflag.StringP("listen", "l", "", "Control server bind address (overrides config)")
	var verbose = pflag.BoolP("verbose", "v", false, "Verbose. Log control connections.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - DALI bus master daemon.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Bit-bangs a DALI lighting bus through two GPIO lines and\n")
		fmt.Fprintf(os.Stderr, "exposes it over a line-oriented TCP protocol, announced\n")
		fmt.Fprintf(os.Stderr, "with DNS-SD.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "dalmatian",
		ReportTimestamp: true,
	})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	var cfg, cfgErr = dalmatian.LoadConfig(*configPath)
	if cfgErr != nil {
		logger.Fatal("configuration", "err", cfgErr)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	var line, lineErr = cfg.OpenLine()
	if lineErr != nil {
		logger.Fatal("opening GPIO lines", "err", lineErr, "chip", cfg.Chip)
	}

	var d = dalmatian.New(line)
	if err := d.Init(); err != nil {
		logger.Fatal("driver init", "err", err)
	}
	defer d.Close() //nolint:errcheck

	logger.Info("bus attached", "chip", cfg.Chip, "in", cfg.LineIn, "out", cfg.LineOut)

	var srv = dalmatian.NewServer(d, cfg, logger)
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("control server", "err", err)
	}
}
