package auditlog

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"encoding/binary"
	"io"
	"os"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// Record is one verified journal entry.
type Record struct {
	Timestamp time.Time
	Type      schema.RecordType
	Payload   []byte
}

// Scanner decodes and verifies journal frames sequentially. It is a
// forward-only, non-restartable pass over the file: Next returns io.EOF at
// the natural end of valid data, and a fatal error stops the scan at that
// frame without invalidating records already yielded.
type Scanner struct {
	file      *os.File
	r         *bufio.Reader
	key       []byte
	headerBuf [headerSize]byte
	payload   []byte
	done      bool
}

// OpenScanner opens the journal for verified reading. A missing file yields
// an empty sequence rather than an error.
func OpenScanner(path string, key []byte) (*Scanner, error) {
	if len(key) == 0 {
		return nil, ErrKeyMissing
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Scanner{done: true}, nil
		}
		return nil, errors.Wrap(err, "open audit log")
	}
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return &Scanner{
		file: file,
		r:    bufio.NewReader(file),
		key:  keyCopy,
	}, nil
}

// Next returns the next verified record. The payload slice is only valid
// until the following call to Next.
//
// A short read at end-of-file ends the sequence silently: an incomplete
// trailing frame is treated as the end of valid data, not as damage.
func (s *Scanner) Next() (Record, error) {
	if s.done {
		return Record{}, io.EOF
	}

	if _, err := io.ReadFull(s.r, s.headerBuf[:]); err != nil {
		return Record{}, s.finish(err)
	}
	if !bytes.Equal(s.headerBuf[0:4], frameMarker[:]) {
		s.done = true
		return Record{}, ErrBadMarker
	}
	ticks := int64(binary.LittleEndian.Uint64(s.headerBuf[5:13]))
	recordType := schema.RecordType(s.headerBuf[13])
	payloadLen := int32(binary.LittleEndian.Uint32(s.headerBuf[14:18]))
	if payloadLen < 0 {
		s.done = true
		return Record{}, ErrBadLength
	}

	if payloadLen > 0 {
		if cap(s.payload) < int(payloadLen) {
			s.payload = make([]byte, payloadLen)
		}
		s.payload = s.payload[:payloadLen]
		if _, err := io.ReadFull(s.r, s.payload); err != nil {
			return Record{}, s.finish(err)
		}
	} else {
		s.payload = s.payload[:0]
	}

	var tag [tagSize]byte
	if _, err := io.ReadFull(s.r, tag[:]); err != nil {
		return Record{}, s.finish(err)
	}

	expected := computeTag(s.key, s.headerBuf[:], s.payload)
	if !hmac.Equal(tag[:], expected[:]) {
		s.done = true
		return Record{}, ErrTagMismatch
	}

	return Record{
		Timestamp: schema.TimeFromTicks(ticks),
		Type:      recordType,
		Payload:   s.payload,
	}, nil
}

// Close releases the file handle and zeroes the key copy.
func (s *Scanner) Close() error {
	s.done = true
	zeroKey(s.key)
	s.key = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *Scanner) finish(err error) error {
	s.done = true
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return err
}

// Replay scans the journal from the start, invoking fn for each verified
// record in order. The record payload is reused between calls; fn must copy
// it to retain it.
func Replay(path string, key []byte, fn func(Record) error) error {
	scanner, err := OpenScanner(path, key)
	if err != nil {
		return err
	}
	defer func() { _ = scanner.Close() }()

	for {
		record, err := scanner.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}
