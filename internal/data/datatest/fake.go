// Package datatest provides an in-memory data.Database for tests.
package datatest

import (
	"errors"
	"net/netip"
	"sync"

	"github.com/TomasB/proxylookup/internal/data"
)

// ErrIO is the error returned for addresses registered with Fail.
var ErrIO = errors.New("simulated read error")

// Database is a fixture database keyed by exact address.
type Database struct {
	Rows     map[netip.Addr]data.Row
	Failing  map[netip.Addr]bool
	Meta     data.Metadata
	mu       sync.Mutex
	queries  []netip.Addr
	isClosed bool
}

// New returns an empty fixture database with the given metadata.
func New(meta data.Metadata) *Database {
	return &Database{
		Rows:    make(map[netip.Addr]data.Row),
		Failing: make(map[netip.Addr]bool),
		Meta:    meta,
	}
}

// Add registers a row for ip.
func (d *Database) Add(ip string, row data.Row) *Database {
	d.Rows[netip.MustParseAddr(ip)] = row
	return d
}

// Fail makes every query for ip return ErrIO.
func (d *Database) Fail(ip string) *Database {
	d.Failing[netip.MustParseAddr(ip)] = true
	return d
}

// Query implements data.Database.
func (d *Database) Query(ip netip.Addr) (data.Row, error) {
	d.mu.Lock()
	d.queries = append(d.queries, ip)
	d.mu.Unlock()

	if d.Failing[ip] {
		return nil, ErrIO
	}
	row, ok := d.Rows[ip]
	if !ok {
		return nil, data.ErrNotFound
	}
	return row, nil
}

// Metadata implements data.Database.
func (d *Database) Metadata() data.Metadata {
	return d.Meta
}

// Close implements data.Database.
func (d *Database) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isClosed = true
	return nil
}

// Queries returns the addresses queried so far, in call order.
func (d *Database) Queries() []netip.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]netip.Addr(nil), d.queries...)
}

// Closed reports whether Close was called.
func (d *Database) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isClosed
}
