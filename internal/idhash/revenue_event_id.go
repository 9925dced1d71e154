package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"funding-ledger/internal/domain"
)

// ComputeRevenueEventID computes a deterministic revenue event id using SHA256.
// Formula: SHA256(bot_id|lower(tx_hash)|event_type|timestamp_us)
// Returns hex-encoded hash (64 characters).
//
// The timestamp is in microseconds, the precision events are stored at.
// The same fact ingested twice yields the same id, so stores reject it as a duplicate.
func ComputeRevenueEventID(
	botID string,
	transactionHash string,
	eventType domain.EventType,
	timestampUs int64,
) string {
	return hashFields(
		botID,
		strings.ToLower(strings.TrimSpace(transactionHash)),
		string(eventType),
		fmt.Sprintf("%d", timestampUs),
	)
}

// ComputeUntimedRevenueEventID is the id of an event reported without a timestamp.
// Formula: SHA256(bot_id|lower(tx_hash)|event_type)
//
// Retries of such a report map to the same id regardless of when they arrive.
func ComputeUntimedRevenueEventID(
	botID string,
	transactionHash string,
	eventType domain.EventType,
) string {
	return hashFields(
		botID,
		strings.ToLower(strings.TrimSpace(transactionHash)),
		string(eventType),
	)
}

func hashFields(fields ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(hash[:])
}
