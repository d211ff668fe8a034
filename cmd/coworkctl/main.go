// Command coworkctl drives the coworking client from a terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-cowork-client/app"
	"github.com/jrsteele09/go-cowork-client/gateway"
	"github.com/jrsteele09/go-cowork-client/internal/config"
	"github.com/jrsteele09/go-cowork-client/internal/logging"
)

// errUnsuccessful marks a command whose response reported success=false; the
// message has already been printed.
var errUnsuccessful = errors.New("request was not successful")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("coworkctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "optional YAML config file")
	flags.Usage = func() { usage(flags, stderr) }
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}
	name, rest := flags.Arg(0), flags.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		flags.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := logging.Setup(cfg.GetLogLevel(), stderr)

	client, err := app.New(cfg, app.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer client.Close()

	coordinator, err := client.Mount(&consoleNavigator{out: stderr})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer coordinator.Unmount()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := &commandEnv{app: client, out: stdout, errOut: stderr}
	err = cmd.run(ctx, env, rest)
	coordinator.Wait()
	if err != nil {
		if !errors.Is(err, errUnsuccessful) {
			fmt.Fprintln(stderr, gateway.Message(err))
		}
		return 1
	}
	return 0
}

func usage(flags *flag.FlagSet, w io.Writer) {
	banner := figure.NewFigure("coworkctl", "small", true)
	fmt.Fprintln(w, banner.String())
	fmt.Fprintln(w, "usage: coworkctl [-config file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	flags.PrintDefaults()
}

// consoleNavigator stands in for the app's root navigator: the terminal is
// always ready, and "navigating" to the login route means telling the user.
type consoleNavigator struct {
	out io.Writer
}

func (n *consoleNavigator) Ready() bool {
	return true
}

func (n *consoleNavigator) ResetTo(route string) {
	fmt.Fprintf(n.out, "Signed out (%s). Run `coworkctl login` to continue.\n", route)
}
