package config

import (
	"database/sql"
	"fmt"
	"path"

	"github.com/mkobayashi/jiten/app/dictdb"
)

// Stores bundles the storage handles of one data directory: the
// sqlite dictionary database and the bleve gloss index.
type Stores struct {
	DB    *sql.DB
	Store *dictdb.SQLiteStore
	Gloss *dictdb.GlossIndex
}

func OpenStores(dataDir string) (*Stores, error) {
	dbPath := path.Join(dataDir, "jiten.db")
	db, err := sql.Open(dictdb.SQLiteDriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}

	store := dictdb.NewSQLiteStore(db)
	if err := store.Init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing dictionary database: %w", err)
	}

	gloss, err := dictdb.OpenGlossIndex(path.Join(dataDir, "gloss.bleve"))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening gloss index: %w", err)
	}

	return &Stores{DB: db, Store: store, Gloss: gloss}, nil
}

func (s *Stores) Close() error {
	if err := s.Gloss.Close(); err != nil {
		s.DB.Close()
		return err
	}
	return s.DB.Close()
}
