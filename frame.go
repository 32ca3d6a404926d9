package emigo

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/MatthewZMD/emigo/sexp"
)

// EncodeFrame renders v as one wire frame: a 6-lowercase-hex-digit length
// header followed by exactly that many UTF-8 bytes of s-expression text
// terminated by a trailing newline.
func EncodeFrame(v sexp.Value) []byte {
	payload := sexp.Encode(v) + "\n"
	header := fmt.Sprintf("%06x", len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

// readBuffer is a connection's append-only, left-to-right-consumed byte
// sequence: bytes are appended as they arrive and only fully-parsed frames
// are ever consumed from the front.
type readBuffer struct {
	mu   sync.Mutex
	data []byte
}

// append adds newly received bytes to the buffer.
func (b *readBuffer) append(p []byte) {
	b.mu.Lock()
	b.data = append(b.data, p...)
	b.mu.Unlock()
}

// next attempts to decode exactly one frame from the front of the buffer.
//
//   - consumed is false when there are not yet enough bytes buffered for a
//     full frame; callers should stop draining and wait for more bytes.
//   - fatalErr is non-nil when the 6-byte length header itself cannot be
//     parsed; the caller cannot know how many bytes to skip, so the
//     connection must be disconnected.
//   - frameErr is non-nil (with consumed true) when the header parsed fine
//     but the declared-length payload failed to decode as UTF-8
//     s-expression text, or declared a non-positive length; the declared
//     frame is still consumed (the declared length is trustworthy even when
//     its content isn't; a non-positive length consumes just the 6-byte
//     header), so the buffer advances and the caller logs and continues
//     draining subsequent frames.
func (b *readBuffer) next() (v sexp.Value, consumed bool, frameErr, fatalErr error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data) < 6 {
		return sexp.Value{}, false, nil, nil
	}

	length, err := strconv.ParseInt(string(b.data[:6]), 16, 64)
	if err != nil {
		return sexp.Value{}, false, nil, fmt.Errorf("emigo: malformed frame length header %q: %w", b.data[:6], err)
	}

	if length <= 0 {
		b.data = b.data[6:]
		return sexp.Value{}, true, fmt.Errorf("emigo: non-positive frame length %d", length), nil
	}

	if int64(len(b.data)-6) < length {
		return sexp.Value{}, false, nil, nil
	}

	payload := b.data[6 : 6+length]
	b.data = b.data[6+length:]

	text := strings.TrimSuffix(string(payload), "\n")
	v, err = sexp.Decode(text)
	if err != nil {
		return sexp.Value{}, true, fmt.Errorf("emigo: frame payload decode failed: %w", err), nil
	}
	return v, true, nil, nil
}
