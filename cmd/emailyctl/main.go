package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"emaily/internal/adapter/apiclient"
	"emaily/internal/client"
	"emaily/internal/logging"

	"github.com/rs/zerolog"
)

type options struct {
	server  string
	session string
	timeout time.Duration
	verbose bool
}

func main() {
	opts := parseFlags()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := zerolog.Nop()
	if opts.verbose {
		log = logging.New("emailyctl", false, os.Getenv(logging.EnvLogLevel))
	}

	if err := run(context.Background(), opts, args, os.Stdout, log); err != nil {
		fatalf("%v", err)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.server, "server", envOr("EMAILY_SERVER", "http://localhost:5000"), "Emaily server base URL")
	flag.StringVar(&opts.session, "session", os.Getenv("EMAILY_SESSION"), "session cookie value copied from a browser")
	flag.DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall timeout")
	flag.BoolVar(&opts.verbose, "v", false, "log dispatcher activity to stdout")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: emailyctl [flags] whoami | buy <stripe-token>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opts
}

// run wires a store to the server and executes one command. Every state
// change is rendered as the header line the web client would show.
func run(ctx context.Context, opts options, args []string, out io.Writer, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	remote, err := apiclient.New(opts.server, apiclient.WithSessionCookie(opts.session))
	if err != nil {
		return err
	}

	st := client.NewStore(client.WithLogger(log))
	unsubscribe := st.Subscribe(func(s client.State) {
		if line := client.Describe(s); line != "" {
			fmt.Fprintln(out, line)
		}
	})
	defer unsubscribe()

	// Stopping the loop applies whatever is still queued, so every state
	// change is printed before run returns.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = st.Run(loopCtx)
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	d := client.NewDispatcher(remote, st, log)

	switch args[0] {
	case "whoami":
		_, err := d.FetchCurrentUser(ctx).Wait(ctx)
		return err
	case "buy":
		if len(args) < 2 {
			return errors.New("buy: missing stripe token")
		}
		fetched, err := d.FetchCurrentUser(ctx).Wait(ctx)
		if err != nil {
			return err
		}
		if fetched.Payload == nil {
			return errors.New("buy: not signed in; pass -session")
		}
		_, err = d.SubmitPaymentToken(ctx, args[1]).Wait(ctx)
		return err
	default:
		return fmt.Errorf("unknown command %q (supported: whoami, buy)", args[0])
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "emailyctl: "+format+"\n", args...)
	os.Exit(1)
}
