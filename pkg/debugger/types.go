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

import (
	"io"
	"log"
	"sync/atomic"

	"github.com/lassandro/lc3vm/pkg/assembler"
	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

type Watchpoint struct {
	Addr uint16
	Type WatchpointType
}

type Breakpoint struct {
	Addr uint16
}

// Debugger implements machine.MachineDebugger. Handlers are optional; a nil
// handler ignores the event.
type Debugger struct {
	// Break stops at the next instruction. Safe to set from a signal
	// handler goroutine.
	Break atomic.Bool

	Breakpoints []Breakpoint
	Watchpoints []Watchpoint

	SymTable *assembler.SymTable

	// Trace logs every instruction before it executes.
	Trace *log.Logger

	// Output receives listings, os.Stdout when nil.
	Output io.Writer

	HandleBreak func(*Debugger, *machine.Machine)
	HandleRead  func(uint16, *Debugger, *machine.Machine)
	HandleWrite func(uint16, *Debugger, *machine.Machine)
}

func (w WatchpointType) String() string {
	switch w {
	case ReadWatch:
		return "R"
	case WriteWatch:
		return "W"
	case ReadWriteWatch:
		return "RW"
	default:
		return "<invalid>"
	}
}
