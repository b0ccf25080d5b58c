package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/auth"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/model"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/reconcile"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/snapshot"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

// maxBodyBytes caps ingest request bodies at 256 KiB.
const maxBodyBytes = 256 << 10

// Signing headers required on /api/ingest.
const (
	HeaderTimestamp = "x-ts"
	HeaderNonce     = "x-nonce"
	HeaderSignature = "x-signature"
)

// HealthHandler answers liveness probes.
func HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// IngestHandler authenticates and applies a probe report. The body is read
// raw before parsing: the signature covers the exact wire bytes, not a
// re-serialization.
func IngestHandler(verifier *auth.Verifier, rec *reconcile.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body_too_large"})
			return
		}

		err = verifier.Verify(
			c.GetHeader(HeaderTimestamp),
			c.GetHeader(HeaderNonce),
			c.GetHeader(HeaderSignature),
			body,
			time.Now(),
		)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": authCode(err)})
			return
		}

		var req model.IngestRequest
		if err := json.Unmarshal(body, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
			return
		}

		if err := rec.Ingest(c.Request.Context(), req); err != nil {
			if errors.Is(err, reconcile.ErrMissingFields) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
				return
			}
			slog.Error("ingest store failure", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// SnapshotHandler serves the consolidated dashboard view.
func SnapshotHandler(asm *snapshot.Assembler) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := asm.Snapshot(c.Request.Context())
		if err != nil {
			slog.Error("snapshot store failure", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// AckHandler flips one warning/alarm entry to acknowledged. Not-found,
// already-acknowledged, and wrong-type all collapse into one error code.
func AckHandler(logs store.LogStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := logs.Acknowledge(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotAckable) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "not_ackable"})
				return
			}
			slog.Error("ack store failure", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "log": entry})
	}
}

// authCode maps verifier errors to the machine-readable codes in responses.
func authCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingHeaders):
		return "missing_headers"
	case errors.Is(err, auth.ErrBadTimestamp):
		return "bad_timestamp"
	case errors.Is(err, auth.ErrTimestampSkew):
		return "timestamp_skew"
	default:
		return "bad_signature"
	}
}
