package auditlog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// Log is a single-writer, append-only, tamper-evident journal. Every frame
// carries a keyed integrity tag over its header and payload bytes. Written
// bytes never change; the file only grows.
type Log struct {
	mu        sync.Mutex
	file      *os.File
	key       []byte
	size      int64
	headerBuf [headerSize]byte
	now       func() time.Time
}

// Open creates parent directories as needed and opens the journal for
// append-only writing. The key is copied; the caller's slice is not retained.
func Open(path string, key []byte) (*Log, error) {
	if len(key) == 0 {
		return nil, ErrKeyMissing
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create audit log directory")
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open audit log")
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "stat audit log")
	}
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return &Log{
		file: file,
		key:  keyCopy,
		size: info.Size(),
		now:  time.Now,
	}, nil
}

// Append writes one frame and blocks until it is flushed to storage. The
// record is guaranteed to survive an immediate crash once Append returns.
func (l *Log) Append(recordType schema.RecordType, payload []byte) error {
	if len(payload) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ErrClosed
	}

	encodeHeader(l.headerBuf[:], schema.Ticks(l.now()), recordType, len(payload))
	tag := computeTag(l.key, l.headerBuf[:], payload)

	frame := make([]byte, 0, headerSize+len(payload)+tagSize)
	frame = append(frame, l.headerBuf[:]...)
	frame = append(frame, payload...)
	frame = append(frame, tag[:]...)

	if _, err := l.file.Write(frame); err != nil {
		return errors.Wrap(err, "write audit frame")
	}
	if err := l.file.Sync(); err != nil {
		return errors.Wrap(err, "sync audit log")
	}
	l.size += int64(len(frame))
	return nil
}

// Size returns the current byte length of the journal.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Close closes the journal and zeroes the key copy.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	zeroKey(l.key)
	l.key = nil
	return err
}

func zeroKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
