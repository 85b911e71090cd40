// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/jac-lang/jac/internal/config"
	"github.com/jac-lang/jac/internal/graphmem"
	"github.com/jac-lang/jac/internal/usermgr"
)

// openStorage opens Graph Memory and the User Manager over the same
// Badger handle, honoring cfg.Storage.InMemory for `--faux` dev runs
// that shouldn't touch disk.
func openStorage(cfg config.StorageConfig, srv config.ServerConfig) (*graphmem.DB, *graphmem.Store, *usermgr.Manager, error) {
	var db *graphmem.DB
	var err error
	if cfg.InMemory {
		db, err = graphmem.OpenInMemory()
	} else {
		dbCfg := graphmem.DefaultConfig()
		dbCfg.Path = cfg.DataDir
		dbCfg.SyncWrites = cfg.SyncWrites
		db, err = graphmem.Open(dbCfg)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening graph memory: %w", err)
	}

	store := graphmem.NewStore(db)
	signingKey := usermgr.NewSigningKey()
	users := usermgr.New(db.Raw(), signingKey, srv.JWTIssuer, srv.AccessTTL, srv.RefreshWindow)
	return db, store, users, nil
}
