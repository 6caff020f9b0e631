// Copyright (c) 2019 The Calyx developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package calyx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calyxlabs/calyx/calyx"
)

func TestAddress(t *testing.T) {
	addr := calyx.BytesToAddress([]byte("address"))
	assert.Equal(t, calyx.Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 'a', 'd', 'd', 'r', 'e', 's', 's'}, addr)
	assert.Equal(t, "0x0000000000000000000000000061646472657373", addr.String())

	// cropped from the left when longer than 20 bytes
	long := make([]byte, 30)
	long[9] = 0xff
	long[29] = 0x01
	assert.Equal(t, byte(0x01), calyx.BytesToAddress(long)[19])
	assert.Equal(t, byte(0), calyx.BytesToAddress(long)[0])

	assert.True(t, calyx.Address{}.IsZero())
	assert.False(t, addr.IsZero())

	parsed, err := calyx.ParseAddress(addr.String())
	assert.Nil(t, err)
	assert.Equal(t, addr, parsed)

	_, err = calyx.ParseAddress("0x123")
	assert.NotNil(t, err)
	_, err = calyx.ParseAddress("zx0000000000000000000000000000000000000000")
	assert.NotNil(t, err)

	assert.Equal(t, addr, calyx.MustParseAddress(addr.String()))
	assert.Panics(t, func() { calyx.MustParseAddress("short") })
}

func TestBytes32(t *testing.T) {
	b32 := calyx.BytesToBytes32([]byte("bytes32"))
	assert.Equal(t, []byte("bytes32"), b32.Bytes()[32-7:])
	assert.Equal(t, byte(0), b32[0])

	// cropped from the left when longer than 32 bytes
	long := make([]byte, 40)
	long[7] = 0xff
	long[39] = 0x01
	assert.Equal(t, byte(0x01), calyx.BytesToBytes32(long)[31])
	assert.Equal(t, byte(0), calyx.BytesToBytes32(long)[0])

	assert.True(t, calyx.Bytes32{}.IsZero())
	assert.False(t, b32.IsZero())

	parsed, err := calyx.ParseBytes32(b32.String())
	assert.Nil(t, err)
	assert.Equal(t, b32, parsed)

	_, err = calyx.ParseBytes32("0xzz")
	assert.NotNil(t, err)

	assert.Equal(t, b32, calyx.MustParseBytes32(b32.String()))
	assert.Panics(t, func() { calyx.MustParseBytes32("nope") })
}
