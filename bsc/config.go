package bsc

import (
	"errors"
	"fmt"

	"github.com/arloliu/go-rje/ebcdic"
	"github.com/arloliu/go-rje/logger"
)

const (
	// DefaultSyncCount is the number of SYN pad bytes sent before every frame.
	DefaultSyncCount = 2

	// MaxSyncCount bounds the sync preamble length.
	MaxSyncCount = 16

	// DefaultPunchMarker is the carriage-control code that switches a transmission
	// into punch mode when it is the first code of a block.
	DefaultPunchMarker = '4'
)

// LinkConfig holds the configuration of a BSC link.
type LinkConfig struct {
	// syncCount is the number of SYN bytes in the frame preamble.
	syncCount int

	// blockCheck appends and verifies a CRC-16 block check after data terminators.
	blockCheck bool

	// verifyParity rejects acknowledgements whose parity does not alternate.
	verifyParity bool

	// punchMarker is the host code of the punch-select carriage-control code.
	punchMarker byte

	logger logger.Logger
}

// NewLinkConfig creates a link configuration. opts are applied in order.
func NewLinkConfig(opts ...LinkOption) (*LinkConfig, error) {
	marker, _ := ebcdic.EncodeByte(DefaultPunchMarker)

	cfg := &LinkConfig{
		syncCount:   DefaultSyncCount,
		punchMarker: marker,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SyncCount returns the number of SYN bytes in the frame preamble.
func (cfg *LinkConfig) SyncCount() int { return cfg.syncCount }

// BlockCheck returns whether CRC-16 block check characters are in use.
func (cfg *LinkConfig) BlockCheck() bool { return cfg.blockCheck }

// VerifyParity returns whether acknowledgement parity is verified on send.
func (cfg *LinkConfig) VerifyParity() bool { return cfg.verifyParity }

// PunchMarker returns the host code of the punch-select code.
func (cfg *LinkConfig) PunchMarker() byte { return cfg.punchMarker }

// GetLogger returns the configured logger.
func (cfg *LinkConfig) GetLogger() logger.Logger { return cfg.logger }

// LinkOption is a functional option for configuring a LinkConfig.
type LinkOption interface {
	apply(*LinkConfig) error
}

type linkOptFunc func(*LinkConfig) error

func (f linkOptFunc) apply(cfg *LinkConfig) error { return f(cfg) }

// WithSyncCount sets the number of SYN bytes sent before each frame, 1 to MaxSyncCount.
func WithSyncCount(n int) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if n < 1 || n > MaxSyncCount {
			return fmt.Errorf("bsc: sync count %d out of range [1, %d]", n, MaxSyncCount)
		}
		cfg.syncCount = n

		return nil
	})
}

// WithBlockCheck enables or disables CRC-16 block check characters. Disabled by default.
func WithBlockCheck(enabled bool) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		cfg.blockCheck = enabled

		return nil
	})
}

// WithVerifyAckParity enables or disables verification that acknowledgements to sent
// frames alternate between even and odd. Disabled by default.
func WithVerifyAckParity(enabled bool) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		cfg.verifyParity = enabled

		return nil
	})
}

// WithPunchMarker sets the local character whose carriage-control code selects punch output.
func WithPunchMarker(r rune) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		b, ok := ebcdic.EncodeByte(r)
		if !ok {
			return fmt.Errorf("bsc: punch marker %q has no host code", r)
		}
		if b == byte(DLE) {
			return errors.New("bsc: punch marker must not be DLE")
		}
		cfg.punchMarker = b

		return nil
	})
}

// WithLogger sets the logger for the link.
func WithLogger(l logger.Logger) LinkOption {
	return linkOptFunc(func(cfg *LinkConfig) error {
		if l == nil {
			return errors.New("bsc: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
