package statusfeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FL-AZ-EIC/fezwd-backend/internal/config"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/api"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/auth"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/notifier"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/reconcile"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/snapshot"
	"github.com/FL-AZ-EIC/fezwd-backend/statusfeed/internal/store"
)

// Module wires the status-ingestion components together.
type Module struct {
	verifier   *auth.Verifier
	reconciler *reconcile.Reconciler
	assembler  *snapshot.Assembler
	logs       store.LogStore
	notifier   *notifier.Notifier
}

// Initialize builds the module and its stores. db selects the storage
// engine: a MongoDB database when the mongo driver is configured, nil for
// the in-memory engine.
func Initialize(db *mongo.Database, cfg *config.Config) *Module {
	slog.Info("initializing status feed module",
		"retention", cfg.Logs.Retention, "driver", cfg.Storage.Driver)

	var statuses store.StatusStore
	var logs store.LogStore
	if db != nil {
		statuses = store.NewMongoStatusStore(db)
		logs = store.NewMongoLogStore(db, cfg.Logs.Retention)
	} else {
		statuses = store.NewMemoryStatusStore()
		logs = store.NewMemoryLogStore(cfg.Logs.Retention)
	}

	return &Module{
		verifier:   auth.NewVerifier(cfg.Auth.Secret, time.Duration(cfg.Auth.MaxSkewMS)*time.Millisecond),
		reconciler: reconcile.NewReconciler(statuses, logs),
		assembler:  snapshot.NewAssembler(statuses, logs, cfg.Logs.Retention),
		logs:       logs,
		notifier:   notifier.NewNotifier(logs, cfg),
	}
}

// Start launches background work (the Telegram digest, when enabled).
func (m *Module) Start(ctx context.Context) {
	m.notifier.Start(ctx)
}

// RegisterRoutes attaches the module's HTTP surface to the gin engine.
func (m *Module) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", api.HealthHandler())

	g := r.Group("/api")
	{
		// Probe reports (HMAC-signed, high frequency)
		g.POST("/ingest", api.IngestHandler(m.verifier, m.reconciler))

		// Dashboard surface
		g.GET("/snapshot", api.SnapshotHandler(m.assembler))
		g.POST("/logs/:id/ack", api.AckHandler(m.logs))
	}
}
