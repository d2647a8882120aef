package data

import (
	"errors"
	"net/netip"
)

// ErrNotFound is returned by Query when no record covers the address.
var ErrNotFound = errors.New("no record for address")

// Row is a classification record as stored in the database. It is passed
// through to clients unmodified.
type Row map[string]any

// Metadata describes the open database. All fields are read from the handle,
// never from the data section.
type Metadata struct {
	PackageVersion uint8
	Day            uint8
	Month          uint8
	Year           uint8
	RowsIPv4       uint32
	RowsIPv6       uint32
}

// Database defines the interface for proxy classification lookups.
//
// Implementations are immutable once opened and safe for concurrent use.
type Database interface {
	// Query returns every column of the record covering ip.
	// Returns ErrNotFound if no record matches, or a wrapped engine error
	// if the database cannot be read.
	Query(ip netip.Addr) (Row, error)

	// Metadata returns the header fields of the open database.
	Metadata() Metadata

	// Close releases any resources held by the database.
	Close() error
}
