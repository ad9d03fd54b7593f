package codec

import (
	"encoding/binary"
	"time"

	"main/internal/schema"
)

// CompactDecisionPayloadSize is the legacy fixed layout: timestamp ticks
// plus the approved flag. All other decision fields are discarded.
const CompactDecisionPayloadSize = 9

const maxFieldLen = int(^uint16(0))

// EncodeGovernanceDecisionCompact serializes a decision into the legacy
// 9-byte payload. Kept for reading journals written before the full
// encoding existed.
func EncodeGovernanceDecisionCompact(dst []byte, decision schema.GovernanceDecision) []byte {
	if cap(dst) < CompactDecisionPayloadSize {
		dst = make([]byte, CompactDecisionPayloadSize)
	} else {
		dst = dst[:CompactDecisionPayloadSize]
	}
	binary.LittleEndian.PutUint64(dst[0:8], uint64(schema.Ticks(decision.Timestamp)))
	dst[8] = encodeBool(decision.Approved)
	return dst
}

// DecodeGovernanceDecisionCompact parses a legacy 9-byte decision payload.
func DecodeGovernanceDecisionCompact(src []byte) (time.Time, bool, bool) {
	if len(src) < CompactDecisionPayloadSize {
		return time.Time{}, false, false
	}
	ts := schema.TimeFromTicks(int64(binary.LittleEndian.Uint64(src[0:8])))
	return ts, src[8] != 0, true
}

// EncodeGovernanceDecision serializes a full decision record with
// length-prefixed variable fields. Returns false if any field exceeds the
// uint16 length prefix.
func EncodeGovernanceDecision(dst []byte, decision schema.GovernanceDecision) ([]byte, bool) {
	if len(decision.ID) > maxFieldLen ||
		len(decision.PolicyName) > maxFieldLen ||
		len(decision.ApproverID) > maxFieldLen ||
		len(decision.Rationale) > maxFieldLen ||
		len(decision.Signature) > maxFieldLen {
		return nil, false
	}

	dst = dst[:0]
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(schema.Ticks(decision.Timestamp)))
	dst = append(dst, scratch[:]...)
	dst = append(dst, encodeBool(decision.Approved))
	dst = appendField(dst, []byte(decision.ID))
	dst = appendField(dst, []byte(decision.PolicyName))
	dst = appendField(dst, []byte(decision.ApproverID))
	dst = appendField(dst, []byte(decision.Rationale))
	dst = appendField(dst, decision.Signature)
	return dst, true
}

// DecodeGovernanceDecision parses a full decision payload.
func DecodeGovernanceDecision(src []byte) (schema.GovernanceDecision, bool) {
	if len(src) < CompactDecisionPayloadSize {
		return schema.GovernanceDecision{}, false
	}
	decision := schema.GovernanceDecision{
		Timestamp: schema.TimeFromTicks(int64(binary.LittleEndian.Uint64(src[0:8]))),
		Approved:  src[8] != 0,
	}
	rest := src[9:]

	var (
		field []byte
		ok    bool
	)
	if field, rest, ok = readField(rest); !ok {
		return schema.GovernanceDecision{}, false
	}
	decision.ID = string(field)
	if field, rest, ok = readField(rest); !ok {
		return schema.GovernanceDecision{}, false
	}
	decision.PolicyName = string(field)
	if field, rest, ok = readField(rest); !ok {
		return schema.GovernanceDecision{}, false
	}
	decision.ApproverID = string(field)
	if field, rest, ok = readField(rest); !ok {
		return schema.GovernanceDecision{}, false
	}
	decision.Rationale = string(field)
	if field, _, ok = readField(rest); !ok {
		return schema.GovernanceDecision{}, false
	}
	if len(field) > 0 {
		decision.Signature = make([]byte, len(field))
		copy(decision.Signature, field)
	}
	return decision, true
}

func appendField(dst []byte, field []byte) []byte {
	var prefix [2]byte
	binary.LittleEndian.PutUint16(prefix[:], uint16(len(field)))
	dst = append(dst, prefix[:]...)
	return append(dst, field...)
}

func readField(src []byte) ([]byte, []byte, bool) {
	if len(src) < 2 {
		return nil, nil, false
	}
	n := int(binary.LittleEndian.Uint16(src[0:2]))
	if len(src) < 2+n {
		return nil, nil, false
	}
	return src[2 : 2+n], src[2+n:], true
}

func encodeBool(v bool) byte {
	if v {
		return 1
	}
	return 0
}
