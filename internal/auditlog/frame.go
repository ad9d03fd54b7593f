package auditlog

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"main/internal/schema"
)

const (
	frameVersion byte = 1
	headerSize        = 18
	tagSize           = sha256.Size
)

const maxPayloadLen = int(^uint32(0) >> 1)

var frameMarker = [4]byte{'A', 'U', 'D', 'T'}

var (
	ErrBadMarker       = errors.New("audit log invalid frame marker")
	ErrBadLength       = errors.New("audit log invalid payload length")
	ErrTagMismatch     = errors.New("audit log integrity tag mismatch")
	ErrPayloadTooLarge = errors.New("audit log payload too large")
	ErrKeyMissing      = errors.New("audit log key is empty")
	ErrClosed          = errors.New("audit log closed")
)

func encodeHeader(dst []byte, ticks int64, recordType schema.RecordType, payloadLen int) {
	_ = dst[headerSize-1]
	copy(dst[0:4], frameMarker[:])
	dst[4] = frameVersion
	binary.LittleEndian.PutUint64(dst[5:13], uint64(ticks))
	dst[13] = byte(recordType)
	binary.LittleEndian.PutUint32(dst[14:18], uint32(int32(payloadLen)))
}

// computeTag authenticates exactly the header and payload bytes of one frame.
func computeTag(key []byte, header []byte, payload []byte) [tagSize]byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(header)
	mac.Write(payload)
	var tag [tagSize]byte
	mac.Sum(tag[:0])
	return tag
}
