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

package machine_test

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/machine"
)

func imageBytes(words ...uint16) []byte {
	result := make([]byte, 0, len(words)*2)

	for _, word := range words {
		result = append(result, byte(word>>8), byte(word))
	}

	return result
}

func TestLoadImage(t *testing.T) {
	assert := assert.New(t)

	mc := machine.New(nil)

	require.NoError(t, mc.LoadImage(bytes.NewReader(
		imageBytes(0x3000, 0x1234, 0xABCD),
	)))

	assert.Equal(uint16(0x1234), mc.State.Memory[0x3000])
	assert.Equal(uint16(0xABCD), mc.State.Memory[0x3001])
	assert.Equal(uint16(0x0000), mc.State.Memory[0x3002])
	assert.Equal(uint16(0x3000), mc.State.Program)
}

func TestLoadImageShared(t *testing.T) {
	assert := assert.New(t)

	mc := machine.New(nil)

	require.NoError(t, mc.LoadImage(bytes.NewReader(
		imageBytes(0x3000, 0x1111, 0x2222, 0x3333),
	)))
	require.NoError(t, mc.LoadImage(bytes.NewReader(
		imageBytes(0x3001, 0xAAAA),
	)))

	assert.Equal(uint16(0x1111), mc.State.Memory[0x3000])
	assert.Equal(uint16(0xAAAA), mc.State.Memory[0x3001])
	assert.Equal(uint16(0x3333), mc.State.Memory[0x3002])
}

func TestLoadImageTruncated(t *testing.T) {
	assert := assert.New(t)

	mc := machine.New(nil)

	require.NoError(t, mc.LoadImage(bytes.NewReader(
		imageBytes(0xFFFD, 0x0001, 0x0002, 0x0003, 0x0004),
	)))

	assert.Equal(uint16(0x0001), mc.State.Memory[0xFFFD])
	assert.Equal(uint16(0x0002), mc.State.Memory[0xFFFE])
	assert.Equal(uint16(0x0000), mc.State.Memory[0xFFFF])
	assert.Equal(uint16(0x0000), mc.State.Memory[0x0000])
}

func TestLoadImageOddLength(t *testing.T) {
	mc := machine.New(nil)

	image := append(imageBytes(0x4000, 0xBEEF), 0x7F)

	require.NoError(t, mc.LoadImage(bytes.NewReader(image)))
	assert.Equal(t, uint16(0xBEEF), mc.State.Memory[0x4000])
	assert.Equal(t, uint16(0x0000), mc.State.Memory[0x4001])
}

func TestLoadImageEmpty(t *testing.T) {
	mc := machine.New(nil)

	assert.ErrorIs(t, mc.LoadImage(bytes.NewReader(nil)), io.ErrUnexpectedEOF)
	assert.ErrorIs(t, mc.LoadImage(bytes.NewReader([]byte{0x30})), io.ErrUnexpectedEOF)
}

func TestLoadImageFile(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "prog.obj")

	require.NoError(t, os.WriteFile(path, imageBytes(0x3000, 0x1025, 0xF025), 0666))

	mc := machine.New(nil)

	require.NoError(t, mc.LoadImageFile(path))

	err := mc.LoadImageFile(filepath.Join(dir, "missing.obj"))

	var loadErr *machine.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(filepath.Join(dir, "missing.obj"), loadErr.Path)
	assert.ErrorIs(err, fs.ErrNotExist)

	// Failed loads leave earlier images alone
	assert.Equal(uint16(0x1025), mc.State.Memory[0x3000])
	assert.Equal(uint16(0xF025), mc.State.Memory[0x3001])
}
