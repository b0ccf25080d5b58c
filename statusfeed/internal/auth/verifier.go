package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"time"
)

// Verification failures. All are client-caused; the handler maps them to 401.
var (
	ErrMissingHeaders = errors.New("missing signing headers")
	ErrBadTimestamp   = errors.New("timestamp is not a number")
	ErrTimestampSkew  = errors.New("timestamp outside freshness window")
	ErrBadSignature   = errors.New("signature mismatch")
)

// Verifier checks the HMAC request signature carried by probe reports.
// The canonical signing string is "{ts}.{nonce}.{body}" over the exact
// wire bytes, so callers must capture the body before any JSON parsing.
type Verifier struct {
	secret  []byte
	maxSkew time.Duration
}

func NewVerifier(secret string, maxSkew time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), maxSkew: maxSkew}
}

// Verify checks header completeness, timestamp freshness and the HMAC
// signature. Pure: no state is kept, the nonce only feeds the signature.
// Malformed input degrades to a verification error, never a panic.
func (v *Verifier) Verify(ts, nonce, sig string, body []byte, now time.Time) error {
	if ts == "" || nonce == "" || sig == "" {
		return ErrMissingHeaders
	}

	tsMillis, err := strconv.ParseFloat(ts, 64)
	if err != nil || math.IsInf(tsMillis, 0) || math.IsNaN(tsMillis) {
		return ErrBadTimestamp
	}
	if math.Abs(float64(now.UnixMilli())-tsMillis) > float64(v.maxSkew.Milliseconds()) {
		return ErrTimestampSkew
	}

	expected := v.compute(ts, nonce, body)
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) != len(expected) {
		return ErrBadSignature
	}
	if !hmac.Equal(got, expected) {
		return ErrBadSignature
	}
	return nil
}

// Sign produces the hex signature a probe should send for the given
// timestamp, nonce and body.
func (v *Verifier) Sign(ts, nonce string, body []byte) string {
	return hex.EncodeToString(v.compute(ts, nonce, body))
}

func (v *Verifier) compute(ts, nonce string, body []byte) []byte {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(ts))
	mac.Write([]byte{'.'})
	mac.Write([]byte(nonce))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return mac.Sum(nil)
}
