package download

import (
	"errors"
	"hash"
)

// Option defines optional settings for saving files.
//
// WithChecksum enables checksum validation of the written data.
// h is a hash.Hash instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
//
// WithBackup keeps the previous file as path+".bak" once the new one is
// in place.
//
// WithProgress enables periodic debug-level progress logging via the
// logger supplied to Save.
type Option func(*options) error

type options struct {
	checksum *checksumVerifier
	backup   bool
	progress bool
}

func WithChecksum(h hash.Hash, expected string) Option {
	return func(opts *options) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

func WithBackup() Option {
	return func(opts *options) error {
		opts.backup = true
		return nil
	}
}

func WithProgress() Option {
	return func(opts *options) error {
		opts.progress = true
		return nil
	}
}
