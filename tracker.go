// Package parttrack tracks part records across procurement,
// industrialization and quality workflows: spreadsheet uploads are
// normalized and upserted per project and stock code, every save keeps
// a one-level undo snapshot and a column-level audit trail, and the
// three categories join into a single summary view with a lead-time
// overlap metric.
package parttrack

import (
	"database/sql"

	"go.uber.org/zap"

	"parttrack/internal/attach"
	"parttrack/internal/config"
	"parttrack/internal/roster"
	"parttrack/internal/store"
)

// Tracker owns the database handle and exposes the component stores.
// All components share one persistence substrate; callers hold one
// Tracker per database.
type Tracker struct {
	db  *sql.DB
	log *zap.Logger

	Store       *store.Store
	Attachments *attach.Store
	Roster      *roster.Store
}

// Open opens (creating if needed) the tracker database described by
// cfg and wires up the component stores. A nil logger builds one from
// cfg.Logging.
func Open(cfg *config.Config, logger *zap.Logger) (*Tracker, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		var err error
		logger, err = newLogger(cfg.Logging.Env)
		if err != nil {
			return nil, err
		}
	}

	db, err := store.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	rosterStore := roster.New(db, logger)
	rosterStore.Cost = cfg.Auth.BcryptCost

	attachStore := attach.New(db, logger)
	attachStore.MaxBytes = cfg.Uploads.MaxBytes

	return &Tracker{
		db:          db,
		log:         logger,
		Store:       store.New(db, logger),
		Attachments: attachStore,
		Roster:      rosterStore,
	}, nil
}

// Close releases the database handle.
func (t *Tracker) Close() error {
	t.log.Sync()
	return t.db.Close()
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
