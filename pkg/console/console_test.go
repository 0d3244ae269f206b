// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package console_test

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/console"
	"github.com/lassandro/lc3vm/pkg/machine"
)

var _ machine.Keyboard = (*console.Console)(nil)

func TestPipeKeyboard(t *testing.T) {
	assert := assert.New(t)

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()

	c := console.New(reader, os.Stdout)

	assert.False(c.IsTerminal())
	assert.NoError(c.EnterRawMode())
	assert.NoError(c.ExitRawMode())

	assert.False(c.Pending())
	assert.False(c.Pending())

	_, err = writer.Write([]byte("ok"))
	require.NoError(t, err)

	assert.True(c.Pending())

	key, err := c.ReadByte()
	assert.NoError(err)
	assert.Equal(byte('o'), key)

	key, err = c.ReadByte()
	assert.NoError(err)
	assert.Equal(byte('k'), key)

	require.NoError(t, writer.Close())

	// Hang up is readable, the read reports the end of input
	assert.True(c.Pending())

	_, err = c.ReadByte()
	assert.ErrorIs(err, io.EOF)
}

func TestMachineKeyboardStatus(t *testing.T) {
	assert := assert.New(t)

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	defer reader.Close()
	defer writer.Close()

	mc := machine.New(&machine.DeviceHandler{Keyboard: console.New(reader, os.Stdout)})

	// LDR R0, R1, #0 ; LDR R2, R3, #0
	mc.State.Memory[0x3000] = 0b0110_000_001_000000
	mc.State.Memory[0x3001] = 0b0110_010_011_000000
	mc.State.Memory[0x3002] = 0b0110_000_001_000000
	mc.State.Registers[1] = 0xFE00
	mc.State.Registers[3] = 0xFE02

	require.NoError(t, mc.Step())
	assert.Equal(uint16(0x0000), mc.State.Registers[0])

	_, err = writer.Write([]byte("a"))
	require.NoError(t, err)

	require.NoError(t, mc.Step())
	require.NoError(t, mc.Step())
	assert.Equal(uint16(0x8000), mc.State.Registers[0])
	assert.Equal(uint16('a'), mc.State.Memory[0xFE02])
	assert.Equal(uint16(0x0000), mc.State.Registers[2])
}
