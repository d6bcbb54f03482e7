// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/jinterlante1206/RecipeStudio/services/studio/datatypes"
)

// DraftConfig configures the local draft store.
type DraftConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is true.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool
}

// DefaultDraftConfig returns the production configuration.
func DefaultDraftConfig(path string) DraftConfig {
	return DraftConfig{Path: path, SyncWrites: true}
}

// InMemoryDraftConfig returns a configuration for tests.
func InMemoryDraftConfig() DraftConfig {
	return DraftConfig{InMemory: true}
}

// DraftStore keeps the latest unsaved recipe per editing session in an
// embedded BadgerDB, so a crash mid-edit doesn't lose the user's graph.
//
// Drafts are overwritten on every autosave and deleted after a successful
// remote save; the store never grows beyond one entry per session.
//
// Thread Safety: safe for concurrent use (BadgerDB transactions).
type DraftStore struct {
	db *badger.DB
}

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any)   { slog.Error(fmt.Sprintf(format, args...)) }
func (badgerLogger) Warningf(format string, args ...any) { slog.Warn(fmt.Sprintf(format, args...)) }
func (badgerLogger) Infof(format string, args ...any)    { slog.Debug(fmt.Sprintf(format, args...)) }
func (badgerLogger) Debugf(format string, args ...any)   { slog.Debug(fmt.Sprintf(format, args...)) }

// OpenDrafts opens the draft store.
func OpenDrafts(cfg DraftConfig) (*DraftStore, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft store: %w", err)
	}
	return &DraftStore{db: db}, nil
}

func draftKey(sessionID string) []byte {
	return []byte("draft/" + sessionID)
}

// Put stores the session's current recipe as its draft.
func (s *DraftStore) Put(sessionID string, recipe datatypes.Recipe) error {
	raw, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(draftKey(sessionID), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}

// Get returns the session's draft, if one exists.
func (s *DraftStore) Get(sessionID string) (datatypes.Recipe, bool, error) {
	var recipe datatypes.Recipe
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(draftKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &recipe); err != nil {
				return fmt.Errorf("failed to decode draft: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return datatypes.Recipe{}, false, fmt.Errorf("failed to read draft: %w", err)
	}
	return recipe, found, nil
}

// Delete removes the session's draft. Missing drafts are not an error.
func (s *DraftStore) Delete(sessionID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(draftKey(sessionID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *DraftStore) Close() error {
	return s.db.Close()
}
