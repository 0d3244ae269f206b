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

package debugger

type WatchpointType uint

const (
	ReadWatch WatchpointType = 1 << iota
	WriteWatch

	ReadWriteWatch = ReadWatch | WriteWatch
)

var trapNames = map[uint16]string{
	0x20: "GETC",
	0x21: "OUT",
	0x22: "PUTS",
	0x23: "IN",
	0x24: "PUTSP",
	0x25: "HALT",
}
