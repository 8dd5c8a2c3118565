// Package persistence stores fit results in framed, checksummed binary
// files: snapshots of the fitted group entries and an append-only journal
// of fit runs.
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Frame layout: [Magic(1)][Kind(1)][Length(4)][CRC32(4)][Payload(N)],
// integers little endian, CRC over the payload only.
const (
	// MagicByte marks the start of every frame.
	MagicByte = 0xC7

	// HeaderSize is the fixed size of the frame header.
	HeaderSize = 10

	// KindSnapshot frames hold a gob-encoded []EntrySnapshot.
	KindSnapshot = 0x01
	// KindRun frames hold a gob-encoded RunRecord.
	KindRun = 0x02

	// MaxFrameSize bounds the payload length accepted from a header.
	MaxFrameSize = 64 << 20
)

var (
	// ErrInvalidMagic indicates the stream is not a frame file or lost sync.
	ErrInvalidMagic = errors.New("invalid magic byte")
	// ErrChecksumMismatch indicates a corrupted payload.
	ErrChecksumMismatch = errors.New("crc32 checksum mismatch")
	// ErrIncompleteFrame indicates the stream ended inside a frame.
	ErrIncompleteFrame = errors.New("incomplete frame")
	// ErrUnexpectedKind indicates a frame of another kind than requested.
	ErrUnexpectedKind = errors.New("unexpected frame kind")
	// ErrFrameTooLarge indicates a payload length above MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame too large")
)

// FrameWriter writes frames to an io.Writer.
type FrameWriter struct {
	w io.Writer
}

// NewFrameWriter wraps w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes payload as one frame of the given kind.
func (fw *FrameWriter) WriteFrame(kind byte, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	header := make([]byte, HeaderSize)
	header[0] = MagicByte
	header[1] = kind
	binary.LittleEndian.PutUint32(header[2:6], uint32(len(payload)))
	binary.LittleEndian.PutUint32(header[6:10], crc32.ChecksumIEEE(payload))

	if _, err := fw.w.Write(header); err != nil {
		return err
	}
	_, err := fw.w.Write(payload)
	return err
}

// ReadFrame reads and validates the next frame. It returns io.EOF only when
// the stream ends exactly on a frame boundary.
func ReadFrame(r io.Reader) (kind byte, payload []byte, err error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.EOF {
			return 0, nil, io.EOF
		}
		return 0, nil, ErrIncompleteFrame
	}
	if header[0] != MagicByte {
		return 0, nil, ErrInvalidMagic
	}
	kind = header[1]
	length := binary.LittleEndian.Uint32(header[2:6])
	expected := binary.LittleEndian.Uint32(header[6:10])

	if length > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: header declares %d bytes", ErrFrameTooLarge, length)
	}
	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, ErrIncompleteFrame
	}
	if crc32.ChecksumIEEE(payload) != expected {
		return 0, nil, ErrChecksumMismatch
	}
	return kind, payload, nil
}
