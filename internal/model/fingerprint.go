package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// fingerprintBucket is the granularity used when bucketing device timestamps,
// so re-deliveries of the same message with timestamp jitter still collide.
const fingerprintBucket = time.Minute

// Fingerprint creates the deduplication key for a message, scoped per user.
// Messages differing only in whitespace or case map to the same fingerprint.
func Fingerprint(userID string, msg IncomingMessage) string {
	bucket := msg.ReceivedAt().Truncate(fingerprintBucket).UnixMilli()
	data := fmt.Sprintf("%s:%s:%d:%s",
		userID,
		normalizeToken(msg.Sender),
		bucket,
		normalizeToken(msg.Body))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// normalizeToken lowercases and collapses all whitespace runs to a single
// space so formatting variance does not change the digest.
func normalizeToken(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
