package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"time"

	"github.com/udisondev/tttserver/internal/svcerr"
)

// EndOfStream is returned by ReadFrame when the peer closed the
// connection (or half-closed its write side) before a full header could
// be read, whether or not part of the header had already arrived. A
// short read partway through a payload is reported as a TransportError
// instead, since it indicates a peer that is misbehaving mid-frame
// rather than one that simply hung up.
var EndOfStream = io.EOF

// start anchors the monotonic clock used for Header.Timestamp*. The spec
// leaves wall-clock vs. monotonic as an open question and takes
// monotonic as the cleaner choice (clients must not rely on these
// fields); elapsed time since process start satisfies that without
// depending on the wall clock.
var start = time.Now()

// WriteFrame stamps hdr's timestamp fields from the monotonic clock and
// writes the header followed by payload to conn as two atomic writes,
// both expected to be called while the session's write lock is held.
func WriteFrame(conn net.Conn, hdr Header, payload []byte) error {
	elapsed := time.Since(start)
	hdr.TimestampSec = uint32(elapsed / time.Second)
	hdr.TimestampNsec = uint32(elapsed % time.Second)
	hdr.Size = uint16(len(payload))

	var buf [HeaderSize]byte
	buf[0] = byte(hdr.Type)
	buf[1] = hdr.ID
	buf[2] = hdr.Role
	binary.BigEndian.PutUint16(buf[3:5], hdr.Size)
	binary.BigEndian.PutUint32(buf[5:9], hdr.TimestampSec)
	binary.BigEndian.PutUint32(buf[9:13], hdr.TimestampNsec)

	n, err := conn.Write(buf[:])
	if err != nil || n != HeaderSize {
		return &svcerr.TransportError{Op: "write header", Err: err}
	}

	if len(payload) == 0 {
		return nil
	}
	n, err = conn.Write(payload)
	if err != nil || n != len(payload) {
		return &svcerr.TransportError{Op: "write payload", Err: err}
	}
	return nil
}

// ReadFrame reads one full frame (header plus payload) from conn.
//
// A logged-in session legitimately sits with no frame in flight for
// arbitrarily long (waiting on an invitation, waiting on a peer's
// move), so no deadline is applied while waiting for the next frame to
// start. Once the first byte of a header has arrived, partialFrameTimeout
// (if positive) bounds how long the rest of that frame may take,
// so a peer that starts a header but never finishes it cannot hold the
// session open forever. Pass zero to disable that bound too.
func ReadFrame(conn net.Conn, partialFrameTimeout time.Duration) (Header, []byte, error) {
	var buf [HeaderSize]byte

	_ = conn.SetReadDeadline(time.Time{})
	n, err := conn.Read(buf[:1])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Header{}, nil, EndOfStream
		}
		return Header{}, nil, &svcerr.TransportError{Op: "read header", Err: err}
	}
	if n == 0 {
		return Header{}, nil, &svcerr.TransportError{Op: "read header", Err: io.ErrNoProgress}
	}

	if partialFrameTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(partialFrameTimeout))
	}
	if _, err := io.ReadFull(conn, buf[1:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, EndOfStream
		}
		return Header{}, nil, &svcerr.TransportError{Op: "read header", Err: err}
	}

	hdr := Header{
		Type:          MessageType(buf[0]),
		ID:            buf[1],
		Role:          buf[2],
		Size:          binary.BigEndian.Uint16(buf[3:5]),
		TimestampSec:  binary.BigEndian.Uint32(buf[5:9]),
		TimestampNsec: binary.BigEndian.Uint32(buf[9:13]),
	}

	if hdr.Size == 0 {
		return hdr, nil, nil
	}

	payload := make([]byte, hdr.Size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return Header{}, nil, &svcerr.TransportError{Op: "read payload", Err: err}
	}
	return hdr, payload, nil
}
