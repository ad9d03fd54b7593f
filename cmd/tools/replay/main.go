package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"main/internal/auditlog"
	"main/internal/codec"
	"main/internal/schema"
)

func main() {
	path := flag.String("path", "testdata/audit/journal.log", "Audit journal path")
	keyEnv := flag.String("key-env", "GATE_AUDIT_KEY", "Environment variable holding the hex audit key")
	decode := flag.Bool("decode", false, "Decode known payload types")
	flag.Parse()

	key, err := keyFromEnv(*keyEnv)
	if err != nil {
		log.Fatalf("key load failed: %v", err)
	}

	var index int
	err = auditlog.Replay(*path, key, func(r auditlog.Record) error {
		index++
		fmt.Printf("%06d ts=%s type=%s len=%d\n",
			index, r.Timestamp.Format("2006-01-02T15:04:05.0000000Z07:00"), recordTypeName(r.Type), len(r.Payload))
		if *decode {
			printDecoded(r.Type, r.Payload)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("replay failed after %d verified records: %v", index, err)
	}
	fmt.Printf("verified %d records\n", index)
}

func keyFromEnv(name string) ([]byte, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("env %s is not set", name)
	}
	return hex.DecodeString(raw)
}

func recordTypeName(t schema.RecordType) string {
	switch t {
	case schema.RecordGovernanceDecision:
		return "GovernanceDecision"
	case schema.RecordRiskDecision:
		return "RiskDecision"
	case schema.RecordHeartbeat:
		return "Heartbeat"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

func printDecoded(t schema.RecordType, payload []byte) {
	switch t {
	case schema.RecordGovernanceDecision:
		if decision, ok := codec.DecodeGovernanceDecision(payload); ok {
			fmt.Printf("  gov id=%s policy=%s approver=%s approved=%t rationale=%q\n",
				decision.ID, decision.PolicyName, decision.ApproverID, decision.Approved, decision.Rationale)
			return
		}
		if ts, approved, ok := codec.DecodeGovernanceDecisionCompact(payload); ok {
			fmt.Printf("  gov(compact) ts=%s approved=%t\n", ts.Format("2006-01-02T15:04:05Z07:00"), approved)
			return
		}
		fmt.Println("  decode GovernanceDecision failed")
	case schema.RecordRiskDecision:
		orderID, result, ok := codec.DecodeRiskDecision(payload)
		if !ok {
			fmt.Println("  decode RiskDecision failed")
			return
		}
		fmt.Printf("  risk order=%d allowed=%t model=%s confidence=%.2f override=%t reason=%q\n",
			orderID, result.Allowed, result.ModelID, result.Confidence, result.RequiresOverride, result.Reason)
	default:
	}
}
