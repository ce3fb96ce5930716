package rje

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/go-rje/bsc"
	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
)

// Session is one RJE conversation with the host over a single connection.
//
// The line is half-duplex, so a Session is NOT goroutine-safe: run one Submit or
// Retrieve at a time. The caller owns the connection and the sinks and releases
// them when the session ends.
type Session struct {
	cfg     *SessionConfig
	link    *bsc.Link
	printer *Printer
	logger  logger.Logger
	metrics *SessionMetrics
}

// NewSession creates a session over conn. A nil cfg uses job number 0 and the defaults.
func NewSession(conn io.ReadWriter, cfg *SessionConfig) (*Session, error) {
	if cfg == nil {
		var err error
		cfg, err = NewSessionConfig(0)
		if err != nil {
			return nil, err
		}
	}

	linkCfg, err := cfg.linkConfig()
	if err != nil {
		return nil, err
	}

	link := bsc.NewLink(conn, linkCfg)
	metrics := &SessionMetrics{}
	l := cfg.logger.With("job", cfg.jobNumber)

	return &Session{
		cfg:     cfg,
		link:    link,
		printer: newPrinter(cfg.tape, l, metrics),
		logger:  l,
		metrics: metrics,
	}, nil
}

// Config returns the session configuration.
func (s *Session) Config() *SessionConfig {
	return s.cfg
}

// Link returns the underlying BSC link.
func (s *Session) Link() *bsc.Link {
	return s.link
}

// GetMetrics returns the session metrics.
func (s *Session) GetMetrics() *SessionMetrics {
	return s.metrics
}

// Line returns the current physical line of the print form.
func (s *Session) Line() int {
	return s.printer.Line()
}

// Submit transmits a job deck.
//
// It bids for the line, then sends the sign-on card, the job-deck marker card, a
// submission notice, one 80-column card per deck line and finally the sign-off card
// ending the transmission with EOT. Every frame waits for the remote's response.
// An EOT from the remote ends the submission early without error.
func (s *Session) Submit(ctx context.Context, deck []string) error {
	s.logger.Info("rje: submitting job", "cards", len(deck))

	err := s.submit(ctx, deck)
	if errors.Is(err, errRemoteDisconnect) {
		s.logger.Info("rje: remote ended submission", "cards_sent", s.metrics.CardSendCount.Load())

		return nil
	}
	if err != nil {
		s.logger.Error("rje: submission failed", "error", err)

		return err
	}

	s.logger.Info("rje: job submitted", "cards_sent", s.metrics.CardSendCount.Load())

	return nil
}

func (s *Session) submit(ctx context.Context, deck []string) error {
	if err := s.sendFrame(ctx, "line bid", bsc.DialSequence(s.link.Config().SyncCount())); err != nil {
		return err
	}

	if err := s.sendText(ctx, "sign-on", ebcdic.Card(s.cfg.SignOnCard()), bsc.ETX); err != nil {
		return err
	}
	if err := s.sendText(ctx, "job deck marker", ebcdic.Card(deckMarkerCard), bsc.ETX); err != nil {
		return err
	}
	notice := fmt.Sprintf(noticeFormat, s.cfg.jobNumber)
	if err := s.sendText(ctx, "notice", ebcdic.Encode(notice), bsc.ETX); err != nil {
		return err
	}

	for i, line := range deck {
		if err := s.sendText(ctx, fmt.Sprintf("card %d", i+1), ebcdic.Card(line), bsc.ETX); err != nil {
			return err
		}
		s.metrics.incCardSendCount()
	}

	return s.sendText(ctx, "sign-off", ebcdic.Card(s.cfg.signOffCard), bsc.EOT)
}

func (s *Session) sendText(ctx context.Context, what string, text []byte, term bsc.ControlByte) error {
	frame, err := s.link.Encode(text, term)
	if err != nil {
		return fmt.Errorf("rje: encode %s: %w", what, err)
	}

	return s.sendFrame(ctx, what, frame)
}

// sendFrame sends frame and applies the negative policy to the response.
func (s *Session) sendFrame(ctx context.Context, what string, frame []byte) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := s.link.SendAndAwait(frame)
		if err != nil {
			return fmt.Errorf("rje: send %s: %w", what, err)
		}

		switch outcome {
		case bsc.Affirmative, bsc.AffirmativeRequest, bsc.AffirmativeRVI:
			s.metrics.incFrameSendCount()
			s.logger.Debug("rje: frame accepted", "frame", what, "outcome", outcome.String())

			return nil

		case bsc.NegativeDisconnect:
			return errRemoteDisconnect

		case bsc.Negative:
			s.metrics.incNegativeCount()

			switch s.cfg.policy {
			case AbortOnNegative:
				return fmt.Errorf("%w: %s", ErrNegativeAck, what)
			case RetryOnNegative:
				if attempt >= s.cfg.retryLimit {
					return fmt.Errorf("%w: %s after %d retries", ErrSendFailure, what, attempt)
				}
				s.metrics.incRetryCount()
				s.logger.Warn("rje: frame rejected, resending", "frame", what, "attempt", attempt+1)

				continue
			default:
				s.logger.Warn("rje: frame rejected, continuing", "frame", what)

				return nil
			}
		}
	}
}

// Retrieve receives job output until the remote ends the transmission with EOT.
//
// Each call is a new transmission: the acknowledgement parity restarts at even and
// output starts in print mode. The print line position carries over from earlier
// calls.
//
// It signals readiness with an acknowledgement, then decodes blocks: print records
// are formatted onto printOut and punch records are written verbatim to punch. A nil
// punch discards punch records with a warning.
func (s *Session) Retrieve(ctx context.Context, printOut, punch io.Writer) error {
	s.logger.Info("rje: retrieving job output")

	s.link.ResetReceive()
	decoder := bsc.NewDecoder(s.link)

	if err := s.link.Acknowledge(); err != nil {
		return fmt.Errorf("rje: signal ready: %w", err)
	}

	for rec, err := range decoder.Records() {
		if err != nil {
			s.logger.Error("rje: retrieval failed", "error", err, "line", s.printer.Line())

			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if rec.Punch {
			if err := s.writePunch(punch, rec.Data); err != nil {
				return err
			}

			continue
		}

		if err := s.printer.PrintRecord(printOut, rec.Data); err != nil {
			return err
		}
	}

	s.logger.Info("rje: job output received",
		"lines", s.metrics.LineCount.Load(),
		"punch_records", s.metrics.PunchRecordCount.Load(),
	)

	return nil
}

func (s *Session) writePunch(punch io.Writer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if punch == nil {
		s.logger.Warn("rje: no punch sink, dropping record", "bytes", len(data))

		return nil
	}

	if _, err := punch.Write(data); err != nil {
		return fmt.Errorf("%w: punch: %w", ErrSinkWrite, err)
	}
	s.metrics.incPunchRecordCount()

	return nil
}
