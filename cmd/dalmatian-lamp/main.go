package main

/*------------------------------------------------------------------
 *
 * Purpose:	One-shot lamp control from the command line.
 *
 * Usage:	dalmatian-lamp [-c config] [-a addr|--all] off
 *		dalmatian-lamp -a 5 dapc 128
 *		dalmatian-lamp -a 5 query actual
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	dalmatian "github.com/doismellburning/dalmatian/src"
)

func usage() {
	fmt.Fprintf(os.Stderr, "%s - send a command to a DALI lamp.\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  off | on | stepdownoff | reset\n")
	fmt.Fprintf(os.Stderr, "  dapc <level>\n")
	fmt.Fprintf(os.Stderr, "  poweron <level>\n")
	fmt.Fprintf(os.Stderr, "  query actual|max|min|poweron\n")
	fmt.Fprintf(os.Stderr, "\n")
	pflag.PrintDefaults()
}

func main() {
	var configPath = pflag.StringP("config", "c", "", "Path to configuration file")
	var addr = pflag.IntP("addr", "a", -1, "Short address 0..63")
	var all = pflag.Bool("all", false, "Broadcast to every lamp")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = usage
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dalmatian-lamp"})

	var target dalmatian.Addr
	switch {
	case *all:
		target = dalmatian.Broadcast &^ 1
	case *addr >= 0 && *addr <= 63:
		target = dalmatian.ShortAddr(*addr)
	default:
		pflag.Usage()
		os.Exit(2)
	}

	var args = pflag.Args()
	if len(args) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

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

	var ok bool
	switch args[0] {
	case "off":
		ok = d.SendLampOff(target, true)
	case "on":
		ok = d.SendOnStepUp(target, true)
	case "stepdownoff":
		ok = d.SendStepDownOff(target, true)
	case "reset":
		ok = d.SendReset(target)
	case "dapc", "poweron":
		if len(args) != 2 {
			pflag.Usage()
			os.Exit(2)
		}
		var level, levelErr = strconv.Atoi(args[1])
		if levelErr != nil || level < 0 || level > 255 {
			logger.Fatal("bad level", "level", args[1])
		}
		if args[0] == "dapc" {
			ok = d.SendDapc(target, true, byte(level))
		} else {
			ok = d.SendSetPowerOnLevel(target, true, byte(level))
		}
	case "query":
		if len(args) != 2 {
			pflag.Usage()
			os.Exit(2)
		}
		var v int
		switch args[1] {
		case "actual":
			v = d.QueryActualLevel(target, true)
		case "max":
			v = d.QueryMaxLevel(target, true)
		case "min":
			v = d.QueryMinLevel(target, true)
		case "poweron":
			v = d.QueryPowerOnLevel(target, true)
		default:
			pflag.Usage()
			os.Exit(2)
		}
		switch v {
		case -1:
			logger.Fatal("send failed", "err", d.Err())
		case -2:
			logger.Fatal("no reply")
		}
		fmt.Println(v)
		return
	default:
		pflag.Usage()
		os.Exit(2)
	}

	if !ok {
		logger.Fatal("send failed", "err", d.Err())
	}
}
