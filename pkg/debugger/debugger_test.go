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

package debugger_test

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/assembler"
	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/machine"
)

var program = []string{
	".ORIG x3000",
	"      AND R0, R0, #0",
	"LOOP  ADD R0, R0, #1",
	"      ADD R1, R0, #-3",
	"      BRn LOOP",
	"      ST R0, DATA",
	"      LD R2, DATA",
	"      HALT",
	"DATA  .FILL #0",
}

func load(t *testing.T, dbg *debugger.Debugger) *machine.Machine {
	obj, errs := assembler.Assemble(strings.NewReader(strings.Join(program, "\n")))
	require.Empty(t, errs)

	var image bytes.Buffer
	_, err := obj.WriteTo(&image)
	require.NoError(t, err)

	mc := machine.New(&machine.DeviceHandler{Display: new(bytes.Buffer)})
	require.NoError(t, mc.LoadImage(&image))

	dbg.SymTable = &obj.Symbols
	mc.Debugger = dbg

	return mc
}

func TestBreakpoint(t *testing.T) {
	var hits []uint16

	dbg := &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits = append(hits, mc.State.Registers[0])
		},
	}

	mc := load(t, dbg)

	addr, err := dbg.Resolve("LOOP")
	require.NoError(t, err)
	assert.True(t, dbg.AddBreakpoint(addr))
	assert.False(t, dbg.AddBreakpoint(addr))

	require.NoError(t, mc.Run())
	assert.Equal(t, []uint16{0, 1, 2}, hits)
}

func TestBreakFlag(t *testing.T) {
	var hits []uint16

	dbg := &debugger.Debugger{
		HandleBreak: func(dbg *debugger.Debugger, mc *machine.Machine) {
			hits = append(hits, mc.State.Program)

			if len(hits) == 2 {
				dbg.Break.Store(false)
			}
		},
	}
	dbg.Break.Store(true)

	mc := load(t, dbg)

	require.NoError(t, mc.Run())
	assert.Equal(t, []uint16{0x3001, 0x3002}, hits)
}

func TestWatchpoint(t *testing.T) {
	var reads, writes []uint16

	dbg := &debugger.Debugger{
		HandleRead: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			reads = append(reads, addr)
		},
		HandleWrite: func(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
			writes = append(writes, addr)
			assert.Equal(t, uint16(3), mc.State.Memory[addr])
		},
	}

	mc := load(t, dbg)

	data, err := dbg.Resolve("DATA")
	require.NoError(t, err)
	require.Equal(t, uint16(0x3007), data)

	assert.True(t, dbg.AddWatchpoint(data, debugger.WriteWatch))
	assert.True(t, dbg.AddWatchpoint(data, debugger.ReadWatch))
	assert.False(t, dbg.AddWatchpoint(data, debugger.ReadWatch))

	require.NoError(t, mc.Run())
	assert.Equal(t, []uint16{data}, reads)
	assert.Equal(t, []uint16{data}, writes)
}

func TestRemove(t *testing.T) {
	assert := assert.New(t)

	var dbg debugger.Debugger

	dbg.AddBreakpoint(0x3000)
	dbg.AddBreakpoint(0x3001)
	dbg.AddWatchpoint(0x4000, debugger.ReadWriteWatch)

	assert.False(dbg.RemoveBreakpoint(2))
	assert.True(dbg.RemoveBreakpoint(0))
	assert.Equal([]debugger.Breakpoint{{Addr: 0x3001}}, dbg.Breakpoints)

	assert.False(dbg.RemoveWatchpoint(-1))
	assert.True(dbg.RemoveWatchpoint(0))
	assert.Empty(dbg.Watchpoints)
}

func TestResolve(t *testing.T) {
	assert := assert.New(t)

	dbg := debugger.Debugger{
		SymTable: &assembler.SymTable{
			Labels: map[uint16]string{0x3005: "MAIN", 0x3000: "START"},
		},
	}

	addr, err := dbg.Resolve("MAIN")
	assert.NoError(err)
	assert.Equal(uint16(0x3005), addr)

	addr, err = dbg.Resolve("x4000")
	assert.NoError(err)
	assert.Equal(uint16(0x4000), addr)

	_, err = dbg.Resolve("NOWHERE")
	assert.Error(err)

	label, ok := dbg.Label(0x3000)
	assert.True(ok)
	assert.Equal("START", label)

	assert.Equal([]uint16{0x3000, 0x3005}, dbg.Labels())
}

func TestTrace(t *testing.T) {
	var trace bytes.Buffer

	dbg := &debugger.Debugger{Trace: log.New(&trace, "", 0)}
	mc := load(t, dbg)

	require.NoError(t, mc.Run())

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	require.NotEmpty(t, lines)

	require.Len(t, lines, 13)

	assert.True(t, strings.HasPrefix(lines[0], "[0x3000]            AND R0, R0, #0 "))
	assert.Contains(t, lines[0], "CC=z")
	assert.True(t, strings.HasPrefix(lines[1], "[0x3001] LOOP       ADD R0, R0, #1 "))
	assert.Contains(t, trace.String(), "BRn x3001")
	assert.Contains(t, trace.String(), "ST R0, x3007")

	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "[0x3006]            HALT "), last)
	assert.Regexp(t, `R2=0x0*3 `, last)
	assert.NotContains(t, trace.String(), "[0x3007]")
}

func TestPrintMem(t *testing.T) {
	var out bytes.Buffer
	var state machine.MachineState

	state.Memory[0x4000] = 0x1234
	state.Memory[0x4004] = 0xABCD

	dbg := debugger.Debugger{Output: &out}
	dbg.PrintMem(&state, 0x4000, 5)

	assert.Contains(t, out.String(), "[0x4000]")
	assert.Contains(t, out.String(), "0x1234")
	assert.Contains(t, out.String(), "[0x4004]\033[0m 0xabcd")
}

func TestPrintCode(t *testing.T) {
	var out bytes.Buffer

	dbg := &debugger.Debugger{Output: &out}
	mc := load(t, dbg)

	dbg.PrintCode(&mc.State, 0x3000, 2)

	assert.Equal(t,
		">\033[1m[0x3000]\033[0m            AND R0, R0, #0\n"+
			" \033[1m[0x3001]\033[0m LOOP       ADD R0, R0, #1\n",
		out.String(),
	)
}

func TestPrintSource(t *testing.T) {
	var out bytes.Buffer

	path := filepath.Join(t.TempDir(), "loop.asm")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(program, "\n")), 0666))

	dbg := &debugger.Debugger{Output: &out}
	load(t, dbg)
	dbg.SymTable.Source = path

	dbg.PrintSource(0x3001, 2)

	assert.Contains(t, out.String(), "[0x3001]\033[0m LOOP  ADD R0, R0, #1")
	assert.Contains(t, out.String(), "[0x3002]\033[0m       ADD R1, R0, #-3")
	assert.NotContains(t, out.String(), "BRn")

	out.Reset()
	dbg.PrintSource(0x5000, 1)
	assert.Contains(t, out.String(), "0x5000")
}
