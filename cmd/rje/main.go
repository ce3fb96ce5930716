// Command rje is a remote job entry terminal for a BSC host reached over TCP.
//
// In submit mode it reads a job deck from standard input, one card per line, and
// transmits it. In retrieve mode it receives job output, writing formatted print
// lines to standard output and punch records to the -punch file.
//
// Flags default from environment variables:
//
//	RJE_HOST  - host address (default: "127.0.0.1")
//	RJE_PORT  - TCP port (default: 3780)
//	RJE_JOB   - job number (default: 0)
//	RJE_TAPE  - carriage-control tape (default: "0:H,3:A,65:C")
//	ENV       - "development" selects the console log format
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/cctape"
	"github.com/arloliu/go-rje/logger"
	"github.com/arloliu/go-rje/rje"
	"github.com/hashicorp/go-multierror"
)

const (
	modeSubmit   = "submit"
	modeRetrieve = "retrieve"

	defaultPort = 3780
)

type options struct {
	host         string
	port         int
	job          int
	mode         string
	punchPath    string
	tape         string
	policy       string
	retries      int
	syncCount    int
	blockCheck   bool
	verifyParity bool
	debug        bool
	dialTimeout  time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "rje: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("rje", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.host, "host", envString("RJE_HOST", "127.0.0.1"), "host address")
	fs.IntVar(&opts.port, "port", envInt("RJE_PORT", defaultPort), "host TCP port")
	fs.IntVar(&opts.job, "job", envInt("RJE_JOB", 0), "job number, 0 to 999999")
	fs.StringVar(&opts.mode, "mode", modeSubmit, "session mode: submit or retrieve")
	fs.StringVar(&opts.punchPath, "punch", "", "punch output file (retrieve mode)")
	fs.StringVar(&opts.tape, "tape", envString("RJE_TAPE", cctape.DefaultSpec), "carriage-control tape, line:channel,...")
	fs.StringVar(&opts.policy, "nak", rje.PassThrough.String(), "NAK policy: passthrough, abort or retry")
	fs.IntVar(&opts.retries, "retries", rje.DefaultRetryLimit, "resends per frame under the retry policy")
	fs.IntVar(&opts.syncCount, "sync", bsc.DefaultSyncCount, "SYN bytes before each frame")
	fs.BoolVar(&opts.blockCheck, "bcc", false, "send and verify CRC-16 block checks")
	fs.BoolVar(&opts.verifyParity, "verify-parity", false, "reject acknowledgements out of parity sequence")
	fs.BoolVar(&opts.debug, "debug", false, "log wire traffic and carriage control")
	fs.DurationVar(&opts.dialTimeout, "timeout", 10*time.Second, "connect timeout")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.mode != modeSubmit && opts.mode != modeRetrieve {
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	return opts, nil
}

func (o *options) sessionConfig(log logger.Logger) (*rje.SessionConfig, error) {
	policy, err := rje.ParseNegativePolicy(o.policy)
	if err != nil {
		return nil, err
	}

	return rje.NewSessionConfig(o.job,
		rje.WithTapeSpec(o.tape),
		rje.WithNegativePolicy(policy),
		rje.WithRetryLimit(o.retries),
		rje.WithLogger(log),
		rje.WithLinkOptions(
			bsc.WithSyncCount(o.syncCount),
			bsc.WithBlockCheck(o.blockCheck),
			bsc.WithVerifyAckParity(o.verifyParity),
		),
	)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := logger.InfoLevel
	if opts.debug {
		level = logger.DebugLevel
	}
	log := logger.NewSlog(stderr, level, false)

	cfg, err := opts.sessionConfig(log)
	if err != nil {
		return err
	}

	var deck []string
	if opts.mode == modeSubmit {
		if deck, err = readDeck(stdin); err != nil {
			return err
		}
	}

	res := &resources{}
	defer func() {
		if rerr := res.release(); rerr != nil {
			err = multierror.Append(err, rerr).ErrorOrNil()
		}
	}()

	addr := net.JoinHostPort(opts.host, strconv.Itoa(opts.port))
	dialer := net.Dialer{Timeout: opts.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	res.add(conn.Close)
	log.Info("rje: connected", "addr", addr, "mode", opts.mode)

	// a blocked read only returns once the connection is closed
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopClose()

	session, err := rje.NewSession(conn, cfg)
	if err != nil {
		return err
	}
	defer logMetrics(log, session)

	if opts.mode == modeSubmit {
		return session.Submit(ctx, deck)
	}

	printOut := bufio.NewWriter(stdout)
	res.add(printOut.Flush)

	var punch io.Writer
	if opts.punchPath != "" {
		f, err := os.Create(opts.punchPath)
		if err != nil {
			return fmt.Errorf("open punch file: %w", err)
		}
		res.add(f.Close)

		buf := bufio.NewWriter(f)
		res.add(buf.Flush)
		punch = buf
	}

	return session.Retrieve(ctx, printOut, punch)
}

// readDeck reads one card per input line.
func readDeck(r io.Reader) ([]string, error) {
	var deck []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		deck = append(deck, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read job deck: %w", err)
	}

	return deck, nil
}

func logMetrics(log logger.Logger, s *rje.Session) {
	sm := s.GetMetrics()
	lm := s.Link().GetMetrics()
	log.Info("rje: session ended",
		"frames_sent", lm.FrameSendCount.Load(),
		"blocks_received", lm.BlockRecvCount.Load(),
		"negative", lm.OutcomeCount(bsc.Negative),
		"cards", sm.CardSendCount.Load(),
		"lines", sm.LineCount.Load(),
		"punch_records", sm.PunchRecordCount.Load(),
		"malformed", sm.MalformedCount.Load(),
	)
}

// resources releases acquired handles in reverse order.
type resources struct {
	fns []func() error
}

func (r *resources) add(f func() error) {
	r.fns = append(r.fns, f)
}

func (r *resources) release() error {
	var result *multierror.Error
	for i := len(r.fns) - 1; i >= 0; i-- {
		if err := r.fns[i](); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}

func envString(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return def
}

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}

	return def
}
