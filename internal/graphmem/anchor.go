// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package graphmem

import "time"

// Kind distinguishes the four anchor shapes Graph Memory persists.
type Kind string

const (
	KindRoot   Kind = "root"
	KindNode   Kind = "node"
	KindEdge   Kind = "edge"
	KindWalker Kind = "walker"
)

// Access is the visibility level attached to every anchor.
type Access string

const (
	// AccessPublic anchors are readable by any requesting root.
	AccessPublic Access = "public"
	// AccessProtected anchors are readable by any authenticated root but
	// only writable by their owner.
	AccessProtected Access = "protected"
	// AccessPrivate anchors are readable and writable only by their
	// owner.
	AccessPrivate Access = "private"
)

// Anchor is the persisted unit of Graph Memory: a root, node, edge, or
// walker record, each owned by exactly one root and gated by Access.
type Anchor struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Archetype   string         `json:"archetype"`
	OwnerRootID string         `json:"owner_root_id"`
	Access      Access         `json:"access"`
	Data        map[string]any `json:"data,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// From and To hold the connected node anchor IDs; set only when
	// Kind == KindEdge.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Edges lists the outgoing edge anchor IDs reachable from this
	// anchor; set only when Kind == KindNode or KindRoot.
	Edges []string `json:"edges,omitempty"`
}

// visibleTo reports whether requester may read a, applying the same
// collapse-to-not-found rule the store enforces: a caller who cannot see
// an anchor gets ErrNotFound, never a distinguishable "forbidden".
func (a *Anchor) visibleTo(requesterRootID string) bool {
	switch a.Access {
	case AccessPublic:
		return true
	case AccessProtected:
		return requesterRootID != ""
	case AccessPrivate:
		return requesterRootID != "" && requesterRootID == a.OwnerRootID
	default:
		return false
	}
}

// writableBy reports whether requester may mutate or delete a.
func (a *Anchor) writableBy(requesterRootID string) bool {
	return requesterRootID != "" && requesterRootID == a.OwnerRootID
}
