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

package machine

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// LoadImage copies a program image into memory. The first big-endian word is
// the origin, every following word is stored from the origin upwards until
// the input ends or the top of the address space is reached. Memory outside
// the image is left as is, so several images can share the address space.
func (mc *Machine) LoadImage(reader io.Reader) error {
	buffered := bufio.NewReader(reader)
	scratch := make([]byte, 2)

	if _, err := io.ReadFull(buffered, scratch); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return err
	}

	origin := binary.BigEndian.Uint16(scratch)

	for addr := uint32(origin); addr < MEMSPACE_SIZE-1; addr++ {
		_, err := io.ReadFull(buffered, scratch)

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil
		} else if err != nil {
			return err
		}

		mc.State.Memory[addr] = binary.BigEndian.Uint16(scratch)
	}

	return nil
}

func (mc *Machine) LoadImageFile(path string) error {
	file, err := os.Open(path)

	if err != nil {
		return &LoadError{path, err}
	}

	defer file.Close()

	if err := mc.LoadImage(file); err != nil {
		return &LoadError{path, err}
	}

	return nil
}
