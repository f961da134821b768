// Package memstate holds the tables behind the in-memory repositories.
//
// Writers are serialized by WriteMu; readers only take Mu. A transaction
// works on a Clone and is published with Replace while WriteMu is held, so
// concurrent readers see either all of its writes or none.
package memstate

import (
	"sync"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

type DB struct {
	WriteMu sync.Mutex
	Mu      sync.RWMutex

	Accounts      map[string]*models.Account
	Addresses     map[string]*models.Address
	RefreshTokens map[string]*models.RefreshToken
}

func New() *DB {
	return &DB{
		Accounts:      make(map[string]*models.Account),
		Addresses:     make(map[string]*models.Address),
		RefreshTokens: make(map[string]*models.RefreshToken),
	}
}

// Clone deep-copies every table.
func (d *DB) Clone() *DB {
	d.Mu.RLock()
	defer d.Mu.RUnlock()

	c := New()
	for k, v := range d.Accounts {
		c.Accounts[k] = v.Clone()
	}
	for k, v := range d.Addresses {
		addr := *v
		c.Addresses[k] = &addr
	}
	for k, v := range d.RefreshTokens {
		rt := *v
		c.RefreshTokens[k] = &rt
	}
	return c
}

// Replace swaps in the tables of other. The caller holds d.WriteMu.
func (d *DB) Replace(other *DB) {
	d.Mu.Lock()
	defer d.Mu.Unlock()

	d.Accounts = other.Accounts
	d.Addresses = other.Addresses
	d.RefreshTokens = other.RefreshTokens
}

// Write runs fn with exclusive access to the tables.
func (d *DB) Write(fn func() error) error {
	d.WriteMu.Lock()
	defer d.WriteMu.Unlock()
	d.Mu.Lock()
	defer d.Mu.Unlock()
	return fn()
}

// Read runs fn with shared access to the tables.
func (d *DB) Read(fn func() error) error {
	d.Mu.RLock()
	defer d.Mu.RUnlock()
	return fn()
}
