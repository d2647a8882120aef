package data

import (
	"fmt"
	"math"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// DefaultFileName is the database file looked up when the configured path is a directory.
const DefaultFileName = "proxy.mmdb"

// MmdbDatabase implements Database on top of a MaxMind DB file.
type MmdbDatabase struct {
	db   *maxminddb.Reader
	meta Metadata
}

// ResolvePath returns the database file for path. A directory resolves to
// DefaultFileName inside it; anything else, including a path that does not
// exist yet, is returned cleaned.
func ResolvePath(path string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return filepath.Join(path, DefaultFileName)
	}
	return filepath.Clean(path)
}

// OpenMmdb opens the database file at the given path.
//
// Per-family row counts are not part of the MMDB header, so they are counted
// once here and kept on the handle alongside the header fields.
func OpenMmdb(path string) (*MmdbDatabase, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}

	v4, v6, err := countNetworks(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read database networks: %w", err)
	}

	built := time.Unix(int64(db.Metadata.BuildEpoch), 0).UTC()
	return &MmdbDatabase{
		db: db,
		meta: Metadata{
			PackageVersion: clampUint8(db.Metadata.BinaryFormatMajorVersion),
			Day:            uint8(built.Day()),
			Month:          uint8(built.Month()),
			Year:           uint8(built.Year() % 100),
			RowsIPv4:       v4,
			RowsIPv6:       v6,
		},
	}, nil
}

// Query returns the full record covering ip.
func (r *MmdbDatabase) Query(ip netip.Addr) (Row, error) {
	var row Row
	_, ok, err := r.db.LookupNetwork(ip.AsSlice(), &row)
	if err != nil {
		return nil, fmt.Errorf("record lookup failed: %w", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return row, nil
}

// Metadata returns the header fields captured when the database was opened.
func (r *MmdbDatabase) Metadata() Metadata {
	return r.meta
}

// BuildTime returns the time the database was built.
func (r *MmdbDatabase) BuildTime() time.Time {
	return time.Unix(int64(r.db.Metadata.BuildEpoch), 0).UTC()
}

// Close releases the database resources.
func (r *MmdbDatabase) Close() error {
	return r.db.Close()
}

func countNetworks(db *maxminddb.Reader) (v4, v6 uint32, err error) {
	networks := db.Networks(maxminddb.SkipAliasedNetworks)
	for networks.Next() {
		var record any
		network, err := networks.Network(&record)
		if err != nil {
			return 0, 0, err
		}
		if len(network.IP) == net.IPv4len {
			v4++
		} else {
			v6++
		}
	}
	return v4, v6, networks.Err()
}

func clampUint8(v uint) uint8 {
	if v > math.MaxUint8 {
		return math.MaxUint8
	}
	return uint8(v)
}
