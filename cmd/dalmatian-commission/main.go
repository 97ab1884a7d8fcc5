package main

/*------------------------------------------------------------------
 *
 * Purpose:	Assign short addresses to unaddressed ballasts, once,
 *		from the command line.
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
	var showLog = pflag.Bool("show-log", false, "Dump the driver's debug ring afterwards")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - assign DALI short addresses.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Runs the INITIALISE/RANDOMISE/search sequence and prints\n")
		fmt.Fprintf(os.Stderr, "the short addresses handed out, one per line.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dalmatian-commission"})

	var cfg, cfgErr = dalmatian.LoadConfig(*configPath)
	if cfgErr != nil {
		logger.Fatal("configuration", "err", cfgErr)
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

	var addrs, err = d.Commission()
	for _, a := range addrs {
		fmt.Println(int(a >> 1))
	}
	if *showLog {
		fmt.Fprint(os.Stderr, d.LogBuf())
	}
	if err != nil {
		logger.Fatal("commissioning", "err", err, "assigned", len(addrs))
	}
	logger.Info("commissioning complete", "assigned", len(addrs))
}
