package record

import (
	"errors"
	"fmt"
	"io"

	"github.com/dshills/chordpack/internal/logging"
)

// Option configures a single unserialize or serialize operation.
type Option func(*options)

type options struct {
	partial    bool
	log        *logging.Logger
	conversion *ConversionPolicy
}

// WithPartial keeps everything decoded (or encoded) before a truncation or
// encoding failure instead of returning the error. The swallowed error is
// available from Instance.Incomplete.
func WithPartial() Option {
	return func(o *options) { o.partial = true }
}

// WithLogger traces fields at debug level and reports substituted
// conversions at warn level.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithConversion overrides every adapter's conversion policy for the operation.
func WithConversion(p ConversionPolicy) Option {
	return func(o *options) { o.conversion = &p }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stream is the cursor fields read from or write to. A reading stream wraps
// an io.ReadSeeker, a writing stream an io.WriteSeeker. Offsets reported by
// Tell are absolute even for sub-streams created by MetaSizeList.
type Stream struct {
	r    io.ReadSeeker
	w    io.WriteSeeker
	base int64
	opts *options
}

// NewReader returns a stream that unpacks from r.
func NewReader(r io.ReadSeeker, opts ...Option) *Stream {
	return &Stream{r: r, opts: buildOptions(opts)}
}

// NewWriter returns a stream that packs into w.
func NewWriter(w io.WriteSeeker, opts ...Option) *Stream {
	return &Stream{w: w, opts: buildOptions(opts)}
}

// sub returns a reading stream over r whose offsets start at base.
func (s *Stream) sub(r io.ReadSeeker, base int64) *Stream {
	return &Stream{r: r, base: base, opts: s.opts}
}

// Reading reports whether the stream unpacks.
func (s *Stream) Reading() bool { return s.r != nil }

func (s *Stream) seeker() io.Seeker {
	if s.r != nil {
		return s.r
	}
	return s.w
}

func (s *Stream) logger() *logging.Logger { return s.opts.log }

// Tell returns the absolute stream offset.
func (s *Stream) Tell() (int64, error) {
	pos, err := s.seeker().Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return pos + s.base, nil
}

// SeekTo moves to an absolute offset.
func (s *Stream) SeekTo(offset int64) error {
	if offset < s.base {
		return fmt.Errorf("seek to %d before stream start %d", offset, s.base)
	}
	_, err := s.seeker().Seek(offset-s.base, io.SeekStart)
	return err
}

// Read reads exactly n bytes for field.
func (s *Stream) Read(field string, n int) ([]byte, error) {
	if n < 0 {
		return nil, &EncodingError{Field: field, Value: n, Reason: "negative length"}
	}
	if s.r == nil {
		return nil, errors.New("record: read from a writing stream")
	}
	off, err := s.Tell()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	got, err := io.ReadFull(s.r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedInputError{Field: field, Offset: off, Want: n, Got: got}
		}
		return nil, err
	}
	return buf, nil
}

// Write writes p for field.
func (s *Stream) Write(field string, p []byte) error {
	if s.w == nil {
		return errors.New("record: write to a reading stream")
	}
	_, err := s.w.Write(p)
	if err != nil {
		return fmt.Errorf("writing %q: %w", field, err)
	}
	return nil
}

// Skip advances n bytes. When reading, skipping past the end of the
// input is a truncation.
func (s *Stream) Skip(field string, n int) error {
	if n < 0 {
		return &EncodingError{Field: field, Value: n, Reason: "negative length"}
	}
	if s.r == nil {
		_, err := s.w.Seek(int64(n), io.SeekCurrent)
		return err
	}
	cur, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	end, err := s.r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if cur+int64(n) > end {
		_, _ = s.r.Seek(end, io.SeekStart)
		return &TruncatedInputError{Field: field, Offset: cur + s.base, Want: n, Got: int(end - cur)}
	}
	_, err = s.r.Seek(cur+int64(n), io.SeekStart)
	return err
}

// Buffer is an in-memory io.ReadWriteSeeker. Writes past the end grow the
// buffer, zero-filling any gap left by a forward seek.
type Buffer struct {
	data []byte
	pos  int64
}

// NewBuffer returns a buffer holding b, positioned at the start.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{data: b}
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the buffer length.
func (b *Buffer) Len() int { return len(b.data) }

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if old := int64(len(b.data)); end > old {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, end*2)
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
			if b.pos > old {
				clear(b.data[old:b.pos])
			}
		}
	}
	copy(b.data[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("record: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("record: negative position")
	}
	b.pos = abs
	return abs, nil
}
