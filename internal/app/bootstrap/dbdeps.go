// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/churchroll/internal/app/store/audit"
	churchstore "github.com/dalemusser/churchroll/internal/app/store/churches"
	memberstore "github.com/dalemusser/churchroll/internal/app/store/members"
	reportstore "github.com/dalemusser/churchroll/internal/app/store/reports"
	historystore "github.com/dalemusser/churchroll/internal/app/store/transferhistory"
	transferstore "github.com/dalemusser/churchroll/internal/app/store/transfers"
	userstore "github.com/dalemusser/churchroll/internal/app/store/users"
	"github.com/dalemusser/churchroll/internal/app/system/tasks"
	"github.com/dalemusser/churchroll/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DBDeps holds database/back-end dependencies for the app. The Mongo fields
// are nil when the memory backend is selected.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Backend store.Backend

	// Tasks runs background jobs and is stopped by Shutdown.
	Tasks *tasks.Scheduler
}

// mongoBackend wires every repository to its collection in db.
func mongoBackend(client *mongo.Client, db *mongo.Database, logger *zap.Logger) store.Backend {
	return store.Backend{
		Users:     userstore.New(db),
		Churches:  churchstore.New(db),
		Members:   memberstore.New(db),
		Transfers: transferstore.New(db),
		History:   historystore.New(db),
		Reports:   reportstore.New(db),
		Audit:     audit.New(db),
		Tx:        txn.New(client, logger),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
	}
}
