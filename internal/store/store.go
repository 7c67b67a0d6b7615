// Package store implements C2, the relational store: a typed query layer
// over an embedded sqlite database holding files, tags, their many-to-many
// associations, tag groups, pins, and collection metadata (spec.md §4.2).
//
// Every exported mutating method opens exactly one transaction and commits
// or rolls back before returning, so a filesystem call from C3 maps to a
// single transaction as spec.md §4.2 requires.
package store

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amoffat/supertag/internal/engineerr"
)

// Store wraps the sqlite connection for one collection.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates/migrates) the sqlite database at
// filename against the full schema of spec.md §3.
func Open(filename string) (*Store, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.ExternalIOError, "opening database", err)
	}
	// sqlite serializes writers; a single open connection avoids
	// SQLITE_BUSY between goroutines without adding a separate
	// application-level mutex, and keeps the "single transaction per
	// call" contract simple to reason about (§5 concurrency model).
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, engineerr.Wrap(engineerr.IntegrityFailure, "migrating schema", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error (including a panic, which is re-raised after
// rollback).
func (s *Store) withTx(fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "beginning transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return engineerr.Wrap(engineerr.ExternalIOError, "committing transaction", err)
	}
	return nil
}

func nowUnix() int64 { return time.Now().Unix() }

func unixToTime(v int64) time.Time { return time.Unix(v, 0).UTC() }

func scanErr(op string, err error) error {
	if err == sql.ErrNoRows {
		return engineerr.New(engineerr.NotFound, op)
	}
	return engineerr.Wrap(engineerr.ExternalIOError, op, err)
}
