// Copyright 2025 The Jac Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package usermgr implements the User Manager: registration,
// authentication, and JWT issue/validate/refresh against a
// Badger-persisted user table, with the signing key held in a
// memguard-locked buffer so it is never swapped to disk or left exposed
// in a heap dump for longer than one access.
package usermgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jac-lang/jac/internal/jacerr"
)

const userKeyPrefix = "user:"

func userKey(username string) []byte {
	return []byte(userKeyPrefix + username)
}

// User is a persisted account record.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	RootID       string    `json:"root_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims is the JWT payload issued to an authenticated user.
type Claims struct {
	jwt.Claims
	RootID string `json:"root_id"`
}

// Manager owns the user table and the JWT signing key.
//
// # Thread Safety
//
// Manager is safe for concurrent use; every store access runs inside a
// Badger transaction and the signing key's LockedBuffer is read under
// its own internal lock.
type Manager struct {
	db            *badger.DB
	signingKey    *memguard.LockedBuffer
	issuer        string
	accessTTL     time.Duration
	refreshWindow time.Duration
}

// New returns a Manager backed by db, signing tokens with signingKey
// (which Manager takes ownership of and destroys on Close).
func New(db *badger.DB, signingKey *memguard.LockedBuffer, issuer string, accessTTL, refreshWindow time.Duration) *Manager {
	return &Manager{
		db:            db,
		signingKey:    signingKey,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshWindow: refreshWindow,
	}
}

// NewSigningKey allocates a fresh random signing key in locked,
// guard-paged memory. Callers pass the result to New and keep no other
// copy; Manager.Close destroys it.
func NewSigningKey() *memguard.LockedBuffer {
	return memguard.NewBufferRandom(32)
}

// Close destroys the signing key's locked buffer.
func (m *Manager) Close() {
	m.signingKey.Destroy()
}

// Register creates a new user with a freshly spawned root, rejecting a
// username already on file.
func (m *Manager) Register(ctx context.Context, username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("usermgr: hashing password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		RootID:       uuid.NewString(),
		CreatedAt:    time.Now(),
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(username)); err == nil {
			return jacerr.ErrUserExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		b, err := json.Marshal(u)
		if err != nil {
			return err
		}
		return txn.Set(userKey(username), b)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies username/password and issues an access token
// bound to the user's root. It returns ErrInvalidCredentials for both a
// missing user and a wrong password, never distinguishing the two.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (string, error) {
	u, err := m.lookupUser(username)
	if err != nil {
		return "", jacerr.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", jacerr.ErrInvalidCredentials
	}
	return m.issueToken(u)
}

// Validate verifies a bearer token's signature and expiry (honoring the
// refresh window) and returns its claims.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseSigned(tokenStr, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, fmt.Errorf("usermgr: %w", jacerr.ErrTokenInvalid)
	}

	var claims Claims
	if err := tok.Claims(m.signingKey.Bytes(), &claims); err != nil {
		return nil, fmt.Errorf("usermgr: %w", jacerr.ErrTokenInvalid)
	}

	if err := claims.Claims.Validate(jwt.Expected{Issuer: m.issuer, Time: time.Now()}); err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			// Per spec.md §4.10/P6, the refresh window is measured from
			// issuance, not from expiry: a token stays refreshable for
			// refreshWindow after it was minted, regardless of accessTTL.
			if time.Since(claims.IssuedAt.Time()) <= m.refreshWindow {
				return &claims, jacerr.ErrTokenExpired
			}
		}
		return nil, fmt.Errorf("usermgr: %w", jacerr.ErrTokenInvalid)
	}
	return &claims, nil
}

// Refresh reissues an access token for a still-within-window expired
// token, without requiring the password again.
func (m *Manager) Refresh(tokenStr string) (string, error) {
	claims, err := m.Validate(tokenStr)
	if err != nil && !errors.Is(err, jacerr.ErrTokenExpired) {
		return "", err
	}
	if claims == nil {
		return "", jacerr.ErrTokenInvalid
	}
	return m.issueTokenFor(claims.Subject, claims.RootID)
}

func (m *Manager) issueToken(u *User) (string, error) {
	return m.issueTokenFor(u.Username, u.RootID)
}

func (m *Manager) issueTokenFor(username, rootID string) (string, error) {
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: m.signingKey.Bytes()}, nil)
	if err != nil {
		return "", fmt.Errorf("usermgr: building signer: %w", err)
	}

	now := time.Now()
	claims := Claims{
		Claims: jwt.Claims{
			Subject:  username,
			Issuer:   m.issuer,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:       uuid.NewString(),
		},
		RootID: rootID,
	}
	return jwt.Signed(signer).Claims(claims).Serialize()
}

func (m *Manager) lookupUser(username string) (*User, error) {
	var u User
	err := m.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &u)
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
