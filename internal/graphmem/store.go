// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graphmem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/jac-lang/jac/internal/jacerr"
)

const anchorKeyPrefix = "anchor:"

func anchorKey(id string) []byte {
	return []byte(anchorKeyPrefix + id)
}

// Store is Graph Memory: the persistent anchor store for nodes, edges,
// walkers, and roots, with every read and write gated by the requesting
// root's access to the target anchor.
//
// # Thread Safety
//
// Store is safe for concurrent use; every operation runs inside a
// Badger transaction.
type Store struct {
	db *DB
}

// NewStore wraps db as a Graph Memory anchor store.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// CreateRoot allocates a new root anchor, the top-level owner identity
// that every other anchor's OwnerRootID points back to.
func (s *Store) CreateRoot(ctx context.Context) (*Anchor, error) {
	id := uuid.NewString()
	now := time.Now()
	a := &Anchor{
		ID:          id,
		Kind:        KindRoot,
		Archetype:   "root",
		OwnerRootID: id,
		Access:      AccessPrivate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateNode allocates a new node anchor owned by ownerRootID.
func (s *Store) CreateNode(ctx context.Context, ownerRootID, archetype string, access Access, data map[string]any) (*Anchor, error) {
	return s.createAnchor(ctx, KindNode, ownerRootID, archetype, access, data)
}

// CreateWalker allocates a new walker anchor owned by ownerRootID.
func (s *Store) CreateWalker(ctx context.Context, ownerRootID, archetype string, access Access, data map[string]any) (*Anchor, error) {
	return s.createAnchor(ctx, KindWalker, ownerRootID, archetype, access, data)
}

func (s *Store) createAnchor(ctx context.Context, kind Kind, ownerRootID, archetype string, access Access, data map[string]any) (*Anchor, error) {
	now := time.Now()
	a := &Anchor{
		ID:          uuid.NewString(),
		Kind:        kind,
		Archetype:   archetype,
		OwnerRootID: ownerRootID,
		Access:      access,
		Data:        data,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Connect creates an edge anchor from one node to another and appends it
// to from's Edges list. requesterRootID must be able to write to from.
func (s *Store) Connect(ctx context.Context, requesterRootID, fromID, toID, archetype string, access Access, data map[string]any) (*Anchor, error) {
	var edge *Anchor
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		from, err := s.getTxn(txn, requesterRootID, fromID)
		if err != nil {
			return err
		}
		if !from.writableBy(requesterRootID) {
			return jacerr.ErrNotFound
		}
		if _, err := s.getTxn(txn, requesterRootID, toID); err != nil {
			return err
		}

		now := time.Now()
		edge = &Anchor{
			ID:          uuid.NewString(),
			Kind:        KindEdge,
			Archetype:   archetype,
			OwnerRootID: requesterRootID,
			Access:      access,
			Data:        data,
			From:        fromID,
			To:          toID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.putTxn(txn, edge); err != nil {
			return err
		}

		from.Edges = append(from.Edges, edge.ID)
		from.UpdatedAt = now
		return s.putTxn(txn, from)
	})
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Get returns the anchor identified by id, reporting ErrNotFound both
// when the anchor does not exist and when requesterRootID is not
// permitted to see it — the two cases are indistinguishable to callers
// by design, so a private anchor's existence never leaks.
func (s *Store) Get(ctx context.Context, requesterRootID, id string) (*Anchor, error) {
	var a *Anchor
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		got, err := s.getTxn(txn, requesterRootID, id)
		if err != nil {
			return err
		}
		a = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Neighbors returns the node anchors reachable from id's outgoing edges,
// skipping any edge or destination requesterRootID cannot see.
func (s *Store) Neighbors(ctx context.Context, requesterRootID, id string) ([]*Anchor, error) {
	var out []*Anchor
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		a, err := s.getTxn(txn, requesterRootID, id)
		if err != nil {
			return err
		}
		for _, edgeID := range a.Edges {
			edge, err := s.getTxn(txn, requesterRootID, edgeID)
			if err != nil {
				continue
			}
			dst, err := s.getTxn(txn, requesterRootID, edge.To)
			if err != nil {
				continue
			}
			out = append(out, dst)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites the Data of the anchor identified by id.
// requesterRootID must own the anchor.
func (s *Store) Update(ctx context.Context, requesterRootID, id string, data map[string]any) (*Anchor, error) {
	var a *Anchor
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		got, err := s.getTxn(txn, requesterRootID, id)
		if err != nil {
			return err
		}
		if !got.writableBy(requesterRootID) {
			return jacerr.ErrNotFound
		}
		got.Data = data
		got.UpdatedAt = time.Now()
		if err := s.putTxn(txn, got); err != nil {
			return err
		}
		a = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes the anchor identified by id. requesterRootID must own
// it, and a root anchor may never be deleted. Deleting an edge also
// strips its id from both its From and To anchors' Edges lists, so a
// later Neighbors call never walks into a dangling reference.
func (s *Store) Delete(ctx context.Context, requesterRootID, id string) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		a, err := s.getTxn(txn, requesterRootID, id)
		if err != nil {
			return err
		}
		if a.Kind == KindRoot {
			return fmt.Errorf("graphmem: %w: root anchors cannot be deleted", jacerr.ErrRootRequired)
		}
		if !a.writableBy(requesterRootID) {
			return jacerr.ErrNotFound
		}
		if a.Kind == KindEdge {
			if err := s.detachEdge(txn, requesterRootID, a); err != nil {
				return err
			}
		}
		return txn.Delete(anchorKey(id))
	})
}

// detachEdge removes edge.ID from the Edges list of both its From and
// To endpoints, skipping an endpoint that no longer exists or isn't
// visible to requesterRootID rather than failing the whole delete.
func (s *Store) detachEdge(txn *badger.Txn, requesterRootID string, edge *Anchor) error {
	for _, endpointID := range []string{edge.From, edge.To} {
		if endpointID == "" {
			continue
		}
		endpoint, err := s.getTxn(txn, requesterRootID, endpointID)
		if err != nil {
			continue
		}
		endpoint.Edges = removeString(endpoint.Edges, edge.ID)
		if err := s.putTxn(txn, endpoint); err != nil {
			return err
		}
	}
	return nil
}

func removeString(ss []string, target string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

// ListByFilter narrows a ListBy scan to anchors matching its non-empty
// fields; a zero-value field imposes no constraint.
type ListByFilter struct {
	Kind      Kind
	Archetype string
	OwnerID   string
}

// ListBy enumerates every anchor requesterRootID can see that matches
// filter — Graph Memory's list_by(kind=, owner=, archetype=) operation
// (spec.md §4.7), the index-free counterpart to Neighbors for queries
// like "every Task node I own" that don't start from a held edge.
func (s *Store) ListBy(ctx context.Context, requesterRootID string, filter ListByFilter) ([]*Anchor, error) {
	var out []*Anchor
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		prefix := []byte(anchorKeyPrefix)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var a Anchor
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &a)
			}); err != nil {
				return fmt.Errorf("graphmem: decoding anchor: %w", err)
			}
			if !a.visibleTo(requesterRootID) {
				continue
			}
			if filter.Kind != "" && a.Kind != filter.Kind {
				continue
			}
			if filter.Archetype != "" && a.Archetype != filter.Archetype {
				continue
			}
			if filter.OwnerID != "" && a.OwnerRootID != filter.OwnerID {
				continue
			}
			anchor := a
			out = append(out, &anchor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) getTxn(txn *badger.Txn, requesterRootID, id string) (*Anchor, error) {
	item, err := txn.Get(anchorKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, jacerr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("graphmem: reading anchor %s: %w", id, err)
	}
	var a Anchor
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &a)
	}); err != nil {
		return nil, fmt.Errorf("graphmem: decoding anchor %s: %w", id, err)
	}
	if !a.visibleTo(requesterRootID) {
		return nil, jacerr.ErrNotFound
	}
	return &a, nil
}

func (s *Store) putTxn(txn *badger.Txn, a *Anchor) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("graphmem: encoding anchor %s: %w", a.ID, err)
	}
	return txn.Set(anchorKey(a.ID), b)
}

func (s *Store) put(ctx context.Context, a *Anchor) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return s.putTxn(txn, a)
	})
}
