// hvmlrun starts one HVML instance: it loads an hvml.toml manifest,
// brings up the execution core (variant heap, $TIMERS, $SYSTEM, element-op
// registry), optionally connects to a PurCMC renderer over the pcrdr
// transport, and blocks until SIGINT/SIGTERM.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hvml/hvmlcore/internal/config"
	"github.com/hvml/hvmlcore/internal/domsink"
	"github.com/hvml/hvmlcore/internal/instance"
	"github.com/hvml/hvmlcore/pkg/pcrdr"
)

func main() {
	dir := flag.String("dir", ".", "project directory to search upward from for hvml.toml")
	app := flag.String("app", "", "app endpoint name (overrides hvml.toml)")
	runner := flag.String("runner", "", "runner endpoint name (overrides hvml.toml)")
	unixSock := flag.String("pcrdr-unix", "", "connect to a PurCMC renderer over this UNIX socket path")
	wsURL := flag.String("pcrdr-ws", "", "connect to a PurCMC renderer over this WebSocket URL")
	verbose := flag.Bool("v", false, "verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hvmlrun [options]\n\n")
		fmt.Fprintf(os.Stderr, "Starts one HVML instance and keeps it running until interrupted.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  hvmlrun -dir ./myapp\n")
		fmt.Fprintf(os.Stderr, "  hvmlrun -app cn.fmsoft.hvml.sample -runner main -pcrdr-unix /var/tmp/purcmc.sock\n")
	}
	flag.Parse()

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hvmlrun: load config: %v\n", err)
		os.Exit(1)
	}
	if *app != "" {
		cfg.Instance.App = *app
	}
	if *runner != "" {
		cfg.Instance.Runner = *runner
	}
	config.ConfigureLogging(cfg)

	if *verbose {
		fmt.Fprintf(os.Stderr, "hvmlrun: endpoint %s/%s/%s\n", cfg.Instance.Host, cfg.Instance.App, cfg.Instance.Runner)
	}

	inst, err := instance.InitEx(nil, cfg.Instance.App, cfg.Instance.Runner, &instance.Options{
		Host:     cfg.Instance.Host,
		QueueMax: cfg.Queue.Max,
		Sink:     domsink.NewMemory(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "hvmlrun: init instance: %v\n", err)
		os.Exit(1)
	}
	defer inst.Close()

	client, err := connectRenderer(*unixSock, *wsURL, inst)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hvmlrun: connect renderer: %v\n", err)
		os.Exit(1)
	}
	if client != nil {
		if *verbose {
			fmt.Fprintf(os.Stderr, "hvmlrun: connected to renderer\n")
		}
		defer client.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	if *verbose {
		fmt.Fprintf(os.Stderr, "hvmlrun: running, press Ctrl-C to stop\n")
	}
	<-sigChan
	if *verbose {
		fmt.Fprintf(os.Stderr, "hvmlrun: shutting down on signal\n")
	}
}

// connectRenderer opens at most one renderer leg: a UNIX socket path takes
// priority over a WebSocket URL when both are given. Neither flag means no
// renderer connection at all, which is a legal, if inert, way to run an
// instance (e.g. for a script with no rendering operations).
func connectRenderer(unixSock, wsURL string, inst *instance.Instance) (*pcrdr.Client, error) {
	var conn pcrdr.Conn
	var err error
	switch {
	case unixSock != "":
		conn, err = pcrdr.DialUnix(unixSock)
	case wsURL != "":
		conn, err = pcrdr.DialWebSocket(wsURL)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pcrdr.NewClient(conn, inst.Heap), nil
}
