// Package replay keeps the most recent replay of a running match and encodes
// it for transport.
package replay

import (
	"context"
	"encoding/base64"
	"time"
)

// DefaultInterval is the default time between periodic replay snapshots.
const DefaultInterval = 20 * time.Second

type (
	// Saver is something which can produce the replay of the current match.
	Saver interface {
		SaveReplay(ctx context.Context) ([]byte, error)
	}

	// Snapshotter caches the latest replay of a match, refreshing it when
	// the snapshot interval has elapsed.
	Snapshotter struct {
		saver    Saver
		interval time.Duration
		now      func() time.Time

		// last is when the snapshot timer was last reset
		last time.Time

		// data is the most recently saved replay
		data []byte
	}
)

// NewSnapshotter returns a snapshotter saving from s at most once per
// interval. now defaults to time.Now.
func NewSnapshotter(s Saver, interval time.Duration, now func() time.Time) *Snapshotter {
	if interval <= 0 {
		interval = DefaultInterval
	}

	if now == nil {
		now = time.Now
	}

	return &Snapshotter{
		saver:    s,
		interval: interval,
		now:      now,
		last:     now(),
	}
}

// Reset restarts the snapshot interval.
func (s *Snapshotter) Reset() {
	s.last = s.now()
}

// Tick saves a new snapshot if more than the interval has elapsed since the
// last one. It reports whether a snapshot was taken.
func (s *Snapshotter) Tick(ctx context.Context) (bool, error) {
	t := s.now()
	if t.Sub(s.last) <= s.interval {
		return false, nil
	}

	if err := s.save(ctx); err != nil {
		return false, err
	}

	s.last = t

	return true, nil
}

// Save takes a snapshot regardless of the interval. The cached replay is
// kept if saving fails.
func (s *Snapshotter) Save(ctx context.Context) error {
	if err := s.save(ctx); err != nil {
		return err
	}

	s.last = s.now()

	return nil
}

func (s *Snapshotter) save(ctx context.Context) error {
	data, err := s.saver.SaveReplay(ctx)
	if err != nil {
		return err
	}

	s.data = data

	return nil
}

// Data returns the latest replay, or nil if none has been saved.
func (s *Snapshotter) Data() []byte {
	return s.data
}

// Encoded returns the latest replay as transport-safe text, or an empty
// string if none has been saved.
func (s *Snapshotter) Encoded() string {
	return Encode(s.data)
}

// Encode converts raw replay bytes into transport-safe text.
func Encode(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	return base64.StdEncoding.EncodeToString(data)
}

// Decode converts replay text produced by Encode back into raw bytes.
func Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
