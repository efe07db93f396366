// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package vento

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Direction indicates datagram flow relative to this host
type Direction uint8

const (
	// DirectionIn is a datagram received from the network
	DirectionIn Direction = 0
	// DirectionOut is a datagram sent by this host
	DirectionOut Direction = 1
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// CaptureRecord is a single raw datagram in a capture file.
// Data holds the bytes as seen on the wire, decodable or not.
type CaptureRecord struct {
	Time      time.Time `cbor:"1,keyasint"`
	Direction Direction `cbor:"2,keyasint"`
	Peer      string    `cbor:"3,keyasint,omitempty"`
	Data      []byte    `cbor:"4,keyasint"`
	Session   string    `cbor:"5,keyasint,omitempty"`
}

// Decode decodes the captured bytes as a packet
func (r CaptureRecord) Decode() (*Packet, error) {
	return Decode(r.Data)
}

var (
	captureEncMode cbor.EncMode
	captureDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	captureEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	captureDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// CaptureWriter appends capture records to a stream.
// It is safe for concurrent use.
type CaptureWriter struct {
	mu      sync.Mutex
	closer  io.Closer
	encoder *cbor.Encoder
	closed  bool
}

// NewCaptureWriter creates a writer that encodes records to w
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	cw := &CaptureWriter{encoder: captureEncMode.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// CreateCaptureFile opens path for appending, creating it if needed
func CreateCaptureFile(path string) (*CaptureWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return NewCaptureWriter(f), nil
}

// Write appends a record
func (w *CaptureWriter) Write(rec CaptureRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return os.ErrClosed
	}
	return w.encoder.Encode(rec)
}

// Close closes the underlying stream if it is closable.
// Calling Close more than once is a no-op.
func (w *CaptureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// CaptureReader streams records from a capture file
type CaptureReader struct {
	closer  io.Closer
	decoder *cbor.Decoder
}

// NewCaptureReader creates a reader that decodes records from r
func NewCaptureReader(r io.Reader) *CaptureReader {
	cr := &CaptureReader{decoder: captureDecMode.NewDecoder(r)}
	if c, ok := r.(io.Closer); ok {
		cr.closer = c
	}
	return cr
}

// OpenCaptureFile opens a capture file for reading
func OpenCaptureFile(path string) (*CaptureReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewCaptureReader(f), nil
}

// Next returns the next record.
// Returns io.EOF when no more records are available.
func (r *CaptureReader) Next() (CaptureRecord, error) {
	var rec CaptureRecord
	if err := r.decoder.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return CaptureRecord{}, io.EOF
		}
		return CaptureRecord{}, fmt.Errorf("read capture record: %w", err)
	}
	return rec, nil
}

// Close closes the underlying stream if it is closable
func (r *CaptureReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
