package rje

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/cctape"
	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
)

const (
	// MaxJobNumber is the largest job number representable in the sign-on card.
	MaxJobNumber = 999999

	// DefaultRetryLimit is the number of resends allowed per frame under RetryOnNegative.
	DefaultRetryLimit = 3

	// MaxRetryLimit bounds the retry limit.
	MaxRetryLimit = 31

	// DefaultSignOnFormat is the sign-on card; the verb receives the job number.
	DefaultSignOnFormat = "/*SIGNON JOB=%06d"

	// DefaultSignOffCard is the card that ends a submission.
	DefaultSignOffCard = "/*SIGNOFF"

	deckMarkerCard = "/*JOBDECK"
	noticeFormat   = "JOB %06d SUBMITTED"
)

// NegativePolicy selects how Submit treats a NAK response to a frame.
type NegativePolicy int

const (
	// PassThrough logs the NAK and continues with the next frame.
	PassThrough NegativePolicy = iota
	// AbortOnNegative fails the submission with ErrNegativeAck.
	AbortOnNegative
	// RetryOnNegative resends the frame up to the retry limit, then fails with ErrSendFailure.
	RetryOnNegative
)

// String returns the policy name accepted by ParseNegativePolicy.
func (p NegativePolicy) String() string {
	switch p {
	case PassThrough:
		return "passthrough"
	case AbortOnNegative:
		return "abort"
	case RetryOnNegative:
		return "retry"
	default:
		return fmt.Sprintf("NegativePolicy(%d)", int(p))
	}
}

// ParseNegativePolicy parses a policy name.
func ParseNegativePolicy(s string) (NegativePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return PassThrough, nil
	case "abort":
		return AbortOnNegative, nil
	case "retry":
		return RetryOnNegative, nil
	default:
		return PassThrough, fmt.Errorf("rje: unknown negative policy %q", s)
	}
}

// SessionConfig holds the configuration of an RJE session.
type SessionConfig struct {
	// jobNumber identifies the job for the whole session.
	jobNumber int

	tape *cctape.Tape

	policy     NegativePolicy
	retryLimit int

	// signOnFormat is formatted with the job number.
	signOnFormat string
	signOffCard  string

	linkOpts []bsc.LinkOption
	logger   logger.Logger
}

// NewSessionConfig creates a session configuration for jobNumber. opts are applied in order.
func NewSessionConfig(jobNumber int, opts ...SessionOption) (*SessionConfig, error) {
	if jobNumber < 0 || jobNumber > MaxJobNumber {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidJobNumber, jobNumber, MaxJobNumber)
	}

	tape, err := cctape.Build(cctape.DefaultSpec)
	if err != nil {
		return nil, err
	}

	cfg := &SessionConfig{
		jobNumber:    jobNumber,
		tape:         tape,
		policy:       PassThrough,
		retryLimit:   DefaultRetryLimit,
		signOnFormat: DefaultSignOnFormat,
		signOffCard:  DefaultSignOffCard,
		logger:       logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// JobNumber returns the job number of the session.
func (cfg *SessionConfig) JobNumber() int { return cfg.jobNumber }

// Tape returns the carriage-control tape.
func (cfg *SessionConfig) Tape() *cctape.Tape { return cfg.tape }

// NegativePolicy returns the NAK handling policy of Submit.
func (cfg *SessionConfig) NegativePolicy() NegativePolicy { return cfg.policy }

// RetryLimit returns the number of resends allowed per frame.
func (cfg *SessionConfig) RetryLimit() int { return cfg.retryLimit }

// SignOnCard returns the sign-on card text for the session's job.
func (cfg *SessionConfig) SignOnCard() string {
	return fmt.Sprintf(cfg.signOnFormat, cfg.jobNumber)
}

// SignOffCard returns the sign-off card text.
func (cfg *SessionConfig) SignOffCard() string { return cfg.signOffCard }

// GetLogger returns the configured logger.
func (cfg *SessionConfig) GetLogger() logger.Logger { return cfg.logger }

// linkConfig builds the link configuration, defaulting the link logger to the session's.
func (cfg *SessionConfig) linkConfig() (*bsc.LinkConfig, error) {
	opts := make([]bsc.LinkOption, 0, len(cfg.linkOpts)+1)
	opts = append(opts, bsc.WithLogger(cfg.logger))
	opts = append(opts, cfg.linkOpts...)

	return bsc.NewLinkConfig(opts...)
}

// SessionOption is a functional option for configuring a SessionConfig.
type SessionOption interface {
	apply(*SessionConfig) error
}

type sessionOptFunc func(*SessionConfig) error

func (f sessionOptFunc) apply(cfg *SessionConfig) error { return f(cfg) }

// WithTapeSpec builds the carriage-control tape from a "line:channel,..." specification.
func WithTapeSpec(spec string) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		tape, err := cctape.Build(spec)
		if err != nil {
			return err
		}
		cfg.tape = tape

		return nil
	})
}

// WithTape sets a prebuilt carriage-control tape.
func WithTape(tape *cctape.Tape) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if tape == nil {
			return errors.New("rje: tape must not be nil")
		}
		cfg.tape = tape

		return nil
	})
}

// WithNegativePolicy sets how Submit treats NAK responses. The default is PassThrough.
func WithNegativePolicy(p NegativePolicy) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if p < PassThrough || p > RetryOnNegative {
			return fmt.Errorf("rje: invalid negative policy %d", int(p))
		}
		cfg.policy = p

		return nil
	})
}

// WithRetryLimit sets the number of resends per frame under RetryOnNegative, 0 to MaxRetryLimit.
func WithRetryLimit(n int) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if n < 0 || n > MaxRetryLimit {
			return fmt.Errorf("rje: retry limit %d out of range [0, %d]", n, MaxRetryLimit)
		}
		cfg.retryLimit = n

		return nil
	})
}

// WithSignOnFormat sets the sign-on card format. It must contain exactly one
// integer verb for the job number and fit on one card.
func WithSignOnFormat(format string) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if strings.Count(format, "%") != 1 || !strings.Contains(format, "d") {
			return fmt.Errorf("rje: sign-on format %q must hold one integer verb", format)
		}
		card := fmt.Sprintf(format, MaxJobNumber)
		if err := checkCard(card); err != nil {
			return err
		}
		cfg.signOnFormat = format

		return nil
	})
}

// WithSignOffCard sets the sign-off card text.
func WithSignOffCard(card string) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if err := checkCard(card); err != nil {
			return err
		}
		cfg.signOffCard = card

		return nil
	})
}

// WithLinkOptions appends options for the underlying BSC link.
func WithLinkOptions(opts ...bsc.LinkOption) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		cfg.linkOpts = append(cfg.linkOpts, opts...)

		return nil
	})
}

// WithLogger sets the logger for the session and, unless overridden by
// WithLinkOptions, for its link.
func WithLogger(l logger.Logger) SessionOption {
	return sessionOptFunc(func(cfg *SessionConfig) error {
		if l == nil {
			return errors.New("rje: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

func checkCard(card string) error {
	if card == "" {
		return errors.New("rje: card text must not be empty")
	}
	if len(ebcdic.Encode(card)) > ebcdic.CardWidth {
		return fmt.Errorf("rje: card %q exceeds %d columns", card, ebcdic.CardWidth)
	}

	return nil
}
