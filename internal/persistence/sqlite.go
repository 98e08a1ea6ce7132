package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"voxtrace/internal/world"
)

type sqliteDB struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

func openSQLite(path string, log *zap.Logger) (*sqliteDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteDB{db: db, path: path, log: log}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		blocks BLOB NOT NULL,
		PRIMARY KEY (x, y, z)
	);`)
	return err
}

func (s *sqliteDB) Load(edge int, gen world.Generator) (*world.ChunkStore, error) {
	rows, err := s.db.QueryContext(context.Background(), `SELECT x, y, z, blocks FROM chunks ORDER BY x, y, z`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs := world.NewChunkStore(edge, gen)
	for rows.Next() {
		var (
			c      world.ChunkCoord
			blocks []byte
		)
		if err := rows.Scan(&c.X, &c.Y, &c.Z, &blocks); err != nil {
			return nil, err
		}
		ch, err := world.DecodeBlocks(edge, blocks)
		if err != nil {
			return nil, fmt.Errorf("chunk %v: %w", c, err)
		}
		cs.AddChunk(c, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.log.Info("world loaded", zap.Int("chunks", cs.Len()))
	return cs, nil
}

// Save upserts every chunk in one transaction.
func (s *sqliteDB) Save(store *world.ChunkStore) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (x, y, z, blocks) VALUES (?, ?, ?, ?)
		ON CONFLICT (x, y, z) DO UPDATE SET blocks = excluded.blocks`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var buf []byte
	for _, c := range store.Coords() {
		ch := store.Chunk(c)
		if ch == nil {
			continue
		}
		buf = world.AppendBlocks(buf[:0], ch)
		if _, err := stmt.ExecContext(ctx, c.X, c.Y, c.Z, buf); err != nil {
			return fmt.Errorf("save chunk %v: %w", c, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("world saved", zap.Int("chunks", store.Len()))
	return nil
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}
