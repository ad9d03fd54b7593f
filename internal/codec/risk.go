package codec

import (
	"encoding/binary"
	"math"

	"main/internal/schema"
)

const riskDecisionFixedSize = 18

// EncodeRiskDecision serializes an order-admission verdict for the audit
// journal. Returns false if a variable field exceeds the uint16 prefix.
func EncodeRiskDecision(dst []byte, orderID uint64, result schema.RiskCheckResult) ([]byte, bool) {
	if len(result.Reason) > maxFieldLen || len(result.ModelID) > maxFieldLen {
		return nil, false
	}

	dst = dst[:0]
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], orderID)
	dst = append(dst, scratch[:]...)
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(result.Confidence))
	dst = append(dst, scratch[:]...)
	dst = append(dst, encodeBool(result.Allowed))
	dst = append(dst, encodeBool(result.RequiresOverride))
	dst = appendField(dst, []byte(result.Reason))
	dst = appendField(dst, []byte(result.ModelID))
	return dst, true
}

// DecodeRiskDecision parses an order-admission verdict payload.
func DecodeRiskDecision(src []byte) (uint64, schema.RiskCheckResult, bool) {
	if len(src) < riskDecisionFixedSize {
		return 0, schema.RiskCheckResult{}, false
	}
	orderID := binary.LittleEndian.Uint64(src[0:8])
	result := schema.RiskCheckResult{
		Confidence:       math.Float64frombits(binary.LittleEndian.Uint64(src[8:16])),
		Allowed:          src[16] != 0,
		RequiresOverride: src[17] != 0,
	}
	rest := src[riskDecisionFixedSize:]

	field, rest, ok := readField(rest)
	if !ok {
		return 0, schema.RiskCheckResult{}, false
	}
	result.Reason = string(field)
	if field, _, ok = readField(rest); !ok {
		return 0, schema.RiskCheckResult{}, false
	}
	result.ModelID = string(field)
	return orderID, result, true
}
