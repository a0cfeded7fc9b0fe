// xmask obfuscates rectangular areas of images and reveals them again.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"

	"github.com/xitonix/xmask/logging"
)

const defaultKeyLength = 16

func main() {
	parser := argparse.NewParser("xmask", "Obfuscates rectangular areas of images and reveals them again")
	logLevel := parser.Selector("", "log-level", []string{"debug", "info", "warning", "error"}, &argparse.Options{
		Default: "info",
		Help:    "Log level",
	})
	logJSON := parser.Flag("", "log-json", &argparse.Options{Help: "Log in JSON format"})

	obfuscateCommand, obfuscateArgs := initObfuscateCommand(parser)
	revealCommand, revealArgs := initRevealCommand(parser)
	watchCommand, watchArgs := initWatchCommand(parser)
	keygenCommand, keygenArgs := initKeygenCommand(parser)

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	log, err := logging.New(*logLevel, *logJSON)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	ctx, cancel := signalContext()
	defer cancel()

	switch {
	case obfuscateCommand.Happened():
		err = obfuscateFile(ctx, obfuscateArgs, log)
	case revealCommand.Happened():
		err = revealFile(ctx, revealArgs, log)
	case watchCommand.Happened():
		err = watch(ctx, watchArgs, log)
	case keygenCommand.Happened():
		err = keygen(keygenArgs)
	}

	if err != nil {
		log.WithError(err).Fatal("xmask failed")
	}
}

// signalContext returns a context which gets cancelled on the first interrupt signal
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(signals)
	}()
	return ctx, cancel
}
