// Package lookup translates query parameters into database lookups and maps
// the outcomes onto response payloads shared by the HTTP and gRPC surfaces.
package lookup

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/TomasB/proxylookup/internal/data"
)

var (
	// ErrMalformedInput is returned when an address or address list cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")
	// ErrEngine is returned when the database could not be read for a query.
	ErrEngine = errors.New("engine failure")
)

// Status is the snapshot of the database header returned by /status.
type Status struct {
	PX       uint8  `json:"px"`
	Day      uint8  `json:"day"`
	Month    uint8  `json:"month"`
	Year     uint8  `json:"year"`
	RowsIPv4 uint32 `json:"rows_ipv4"`
	RowsIPv6 uint32 `json:"rows_ipv6"`
}

// Gateway runs lookups against a shared, read-only database handle.
type Gateway struct {
	db data.Database
}

// NewGateway creates a gateway over the given database.
func NewGateway(db data.Database) *Gateway {
	return &Gateway{db: db}
}

// ParseAddr parses a single IPv4 or IPv6 address.
func ParseAddr(raw string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: invalid IP address %q", ErrMalformedInput, raw)
	}
	if addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("%w: zoned IP address %q", ErrMalformedInput, raw)
	}
	return addr, nil
}

// ParseBatch parses a comma-delimited address list. The whole list is
// rejected if any element is invalid. An empty string is an empty list.
func ParseBatch(raw string) ([]netip.Addr, error) {
	if raw == "" {
		return []netip.Addr{}, nil
	}
	parts := strings.Split(raw, ",")
	addrs := make([]netip.Addr, 0, len(parts))
	for i, part := range parts {
		addr, err := ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// Single returns the record for ip. It returns data.ErrNotFound when nothing
// matches and an error wrapping ErrEngine when the database fails.
func (g *Gateway) Single(ip netip.Addr) (data.Row, error) {
	row, err := g.db.Query(ip)
	switch {
	case err == nil:
		return row, nil
	case errors.Is(err, data.ErrNotFound):
		return nil, data.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrEngine, ip, err)
	}
}

// Batch looks up every address in order. The result has one entry per input
// address; a nil entry means no match. Any engine failure fails the batch.
func (g *Gateway) Batch(ips []netip.Addr) ([]data.Row, error) {
	rows := make([]data.Row, len(ips))
	for i, ip := range ips {
		row, err := g.Single(ip)
		if errors.Is(err, data.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		rows[i] = row
	}
	return rows, nil
}

// Status reads the header fields of the database. It is recomputed on every call.
func (g *Gateway) Status() Status {
	meta := g.db.Metadata()
	return Status{
		PX:       meta.PackageVersion,
		Day:      meta.Day,
		Month:    meta.Month,
		Year:     meta.Year,
		RowsIPv4: meta.RowsIPv4,
		RowsIPv6: meta.RowsIPv6,
	}
}
