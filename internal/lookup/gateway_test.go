package lookup

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasB/proxylookup/internal/data"
	"github.com/TomasB/proxylookup/internal/data/datatest"
)

var fixtureMeta = data.Metadata{PackageVersion: 4, Day: 17, Month: 10, Year: 26, RowsIPv4: 1200, RowsIPv6: 340}

func newFixture() *datatest.Database {
	return datatest.New(fixtureMeta).
		Add("1.2.3.4", data.Row{"isProxy": true, "country": "US"}).
		Add("2001:db8::1", data.Row{"isProxy": false, "country": "DE"}).
		Fail("192.0.2.66")
}

func TestParseAddr(t *testing.T) {
	for _, raw := range []string{"1.2.3.4", "2001:db8::1", "::ffff:1.2.3.4"} {
		addr, err := ParseAddr(raw)
		require.NoError(t, err, raw)
		assert.True(t, addr.IsValid())
	}

	for _, raw := range []string{"", "not-an-ip", "1.2.3", " 1.2.3.4", "fe80::1%eth0", "1.2.3.4/24"} {
		_, err := ParseAddr(raw)
		assert.ErrorIs(t, err, ErrMalformedInput, raw)
	}
}

func TestParseBatch(t *testing.T) {
	addrs, err := ParseBatch("1.2.3.4,203.0.113.9,1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, []netip.Addr{
		netip.MustParseAddr("1.2.3.4"),
		netip.MustParseAddr("203.0.113.9"),
		netip.MustParseAddr("1.2.3.4"),
	}, addrs)

	addrs, err = ParseBatch("")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	_, err = ParseBatch("1.2.3.4,bogus")
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = ParseBatch("1.2.3.4,")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestSingle(t *testing.T) {
	gw := NewGateway(newFixture())

	row, err := gw.Single(netip.MustParseAddr("1.2.3.4"))
	require.NoError(t, err)
	assert.Equal(t, data.Row{"isProxy": true, "country": "US"}, row)

	_, err = gw.Single(netip.MustParseAddr("203.0.113.9"))
	assert.ErrorIs(t, err, data.ErrNotFound)
	assert.NotErrorIs(t, err, ErrEngine)

	_, err = gw.Single(netip.MustParseAddr("192.0.2.66"))
	assert.ErrorIs(t, err, ErrEngine)
	assert.ErrorIs(t, err, datatest.ErrIO)
}

func TestBatch_PreservesOrderAndLength(t *testing.T) {
	db := newFixture()
	gw := NewGateway(db)

	ips, err := ParseBatch("203.0.113.9,1.2.3.4,2001:db8::1,1.2.3.4,198.51.100.1")
	require.NoError(t, err)

	rows, err := gw.Batch(ips)
	require.NoError(t, err)
	require.Len(t, rows, len(ips))

	for i, ip := range ips {
		single, err := gw.Single(ip)
		if errors.Is(err, data.ErrNotFound) {
			assert.Nil(t, rows[i], "position %d", i)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, single, rows[i], "position %d", i)
	}

	// duplicates are looked up independently
	assert.Equal(t, ips, db.Queries()[:len(ips)])
}

func TestBatch_Empty(t *testing.T) {
	rows, err := NewGateway(newFixture()).Batch(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBatch_EngineFailureFailsRequest(t *testing.T) {
	gw := NewGateway(newFixture())

	ips, err := ParseBatch("1.2.3.4,192.0.2.66")
	require.NoError(t, err)

	rows, err := gw.Batch(ips)
	assert.ErrorIs(t, err, ErrEngine)
	assert.Nil(t, rows)
}

func TestStatus(t *testing.T) {
	gw := NewGateway(newFixture())

	first := gw.Status()
	assert.Equal(t, Status{PX: 4, Day: 17, Month: 10, Year: 26, RowsIPv4: 1200, RowsIPv6: 340}, first)
	assert.Equal(t, first, gw.Status())
}
