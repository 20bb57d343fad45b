package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, v)
	_, err := e.w.Write(buf[:n])
	return err
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(d.r, b[:])
	return b[0], err
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("string length %d exceeds limit", length)
	}

	if length > uint64(len(d.buf)) {
		d.buf = make([]byte, length)
	}

	n, err := io.ReadFull(d.r, d.buf[:length])
	if err != nil {
		return "", err
	}

	return string(d.buf[:n]), nil
}

// maxStringLen bounds a single decoded string
const maxStringLen = 16 << 20

// EncodeUpdate encodes an update frame, or an error frame when u.Error is set
func EncodeUpdate(u Update) []byte {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)

	if u.Error != "" {
		encoder.WriteBytes([]byte{byte(FrameError)})
		encoder.WriteUvarint(u.Seq)
		encoder.WriteString(u.Fixture)
		encoder.WriteString(u.Error)
		return buf.Bytes()
	}

	encoder.WriteBytes([]byte{byte(FrameUpdate)})
	encoder.WriteUvarint(u.Seq)
	encoder.WriteString(u.Fixture)
	encoder.WriteString(u.HTML)
	encoder.WriteString(u.CSS)
	return buf.Bytes()
}

// DecodeUpdate decodes an update or error frame
func DecodeUpdate(data []byte) (*Update, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame")
	}
	frameType := MessageType(data[0])
	if frameType != FrameUpdate && frameType != FrameError {
		return nil, fmt.Errorf("not an update frame: 0x%02x", data[0])
	}

	decoder := NewDecoder(bytes.NewReader(data[1:]))
	u := &Update{}
	var err error
	if u.Seq, err = decoder.ReadUvarint(); err != nil {
		return nil, fmt.Errorf("failed to decode sequence: %w", err)
	}
	if u.Fixture, err = decoder.ReadString(); err != nil {
		return nil, fmt.Errorf("failed to decode fixture name: %w", err)
	}

	if frameType == FrameError {
		if u.Error, err = decoder.ReadString(); err != nil {
			return nil, fmt.Errorf("failed to decode error: %w", err)
		}
		return u, nil
	}
	if u.HTML, err = decoder.ReadString(); err != nil {
		return nil, fmt.Errorf("failed to decode html: %w", err)
	}
	if u.CSS, err = decoder.ReadString(); err != nil {
		return nil, fmt.Errorf("failed to decode css: %w", err)
	}
	return u, nil
}

// EncodeControl encodes a control frame with its sequence number
func EncodeControl(msg string, seq uint64) []byte {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)
	encoder.WriteBytes([]byte{byte(FrameControl)})
	encoder.WriteString(msg)
	encoder.WriteUvarint(seq)
	return buf.Bytes()
}

// DecodeControl decodes a control frame
func DecodeControl(data []byte) (string, uint64, error) {
	if len(data) == 0 || MessageType(data[0]) != FrameControl {
		return "", 0, errors.New("not a control frame")
	}
	decoder := NewDecoder(bytes.NewReader(data[1:]))
	msg, err := decoder.ReadString()
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode control message type: %w", err)
	}
	seq, err := decoder.ReadUvarint()
	if err != nil {
		return "", 0, fmt.Errorf("failed to decode control sequence: %w", err)
	}
	return msg, seq, nil
}
