package gateway

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignPayload serializes the payload to JSON, base64-encodes it and
// computes the X-VERIFY checksum the gateway requires:
//
//	sha256(base64Payload + endpointPath + saltKey) in hex, then "###" + saltIndex
//
// endpointPath is the gateway API path suffix (e.g. "/pg/v1/pay"), not
// the full URL, and must match the gateway's own computation exactly.
func SignPayload(payload interface{}, endpointPath, saltKey, saltIndex string) (encoded, checksum string, err error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	encoded = base64.StdEncoding.EncodeToString(raw)
	checksum = Checksum(encoded+endpointPath, saltKey, saltIndex)
	return encoded, checksum, nil
}

// Checksum computes sha256(input + saltKey) formatted as
// "<hex-digest>###<saltIndex>"
func Checksum(input, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(input + saltKey))
	return hex.EncodeToString(sum[:]) + "###" + saltIndex
}

// VerifyCallback checks the X-VERIFY header of a server-to-server
// callback against the base64 response body. Callback checksums are
// computed over the body alone, without a path component.
func VerifyCallback(encodedBody, saltKey, saltIndex, xVerify string) bool {
	return Checksum(encodedBody, saltKey, saltIndex) == xVerify
}
