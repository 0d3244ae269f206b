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

// Package debugger provides breakpoints, watchpoints and instruction tracing
// for a running machine.
package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) Fetch(
	addr uint16, instruction uint16, mc *machine.Machine,
) {
	if dbg.Trace != nil {
		dbg.trace(addr, instruction, &mc.State)
	}
}

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break.Load() {
		if dbg.HandleBreak != nil {
			dbg.HandleBreak(dbg, mc)
		}
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			if dbg.HandleBreak != nil {
				dbg.HandleBreak(dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&ReadWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type&WriteWatch == 0 {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) trace(
	pc, instruction uint16, mc *machine.MachineState,
) {
	label, _ := dbg.Label(pc)

	dbg.Trace.Printf(
		"[%#04x] %-10s %-20s R0=%#04x R1=%#04x R2=%#04x R3=%#04x "+
			"R4=%#04x R5=%#04x R6=%#04x R7=%#04x CC=%s",
		pc,
		label,
		Disassemble(instruction, pc),
		mc.Registers[0], mc.Registers[1], mc.Registers[2], mc.Registers[3],
		mc.Registers[4], mc.Registers[5], mc.Registers[6], mc.Registers[7],
		Condition(mc.Condition),
	)
}

// AddBreakpoint reports false when addr already has a breakpoint.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(i int) bool {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return false
	}

	dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
	return true
}

// AddWatchpoint reports false when an identical watchpoint exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) bool {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return false
	}

	dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
	return true
}

// Label returns the label declared at addr.
func (dbg *Debugger) Label(addr uint16) (string, bool) {
	if dbg.SymTable == nil {
		return "", false
	}

	label, ok := dbg.SymTable.Labels[addr]
	return label, ok
}

// Resolve turns a label or hex address into an address.
func (dbg *Debugger) Resolve(arg string) (uint16, error) {
	if dbg.SymTable != nil {
		for addr, label := range dbg.SymTable.Labels {
			if label == arg {
				return addr, nil
			}
		}
	}

	addr, err := encoding.DecodeHex(arg)

	if err != nil {
		return 0, errors.New(f("unknown label or address '%s'", arg))
	}

	return addr, nil
}

// Labels returns the symbol table addresses in ascending order.
func (dbg *Debugger) Labels() []uint16 {
	if dbg.SymTable == nil {
		return nil
	}

	keys := make([]uint16, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	out := dbg.out()

	for i, register := range mc.Registers {
		fmt.Fprintf(out, "\033[1mR%d:\033[0m %#04x\t", i, register)
		if i == (len(mc.Registers)-1)/2 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(
		out,
		"\033[1mPC:\033[0m %#04x\t\033[1mCC:\033[0m %s\n",
		mc.Program,
		Condition(mc.Condition),
	)
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for n := uint16(0); n < count; n++ {
		i := addr + n

		if n == 0 {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		} else if n%4 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mc.Memory[i]

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#04x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#04x ", result)
		}
	}

	fmt.Fprintln(out)
}

// PrintCode lists count instructions starting at addr, disassembled.
func (dbg *Debugger) PrintCode(mc *machine.MachineState, addr, count uint16) {
	out := dbg.out()

	for n := uint16(0); n < count; n++ {
		i := addr + n

		marker := " "
		if i == mc.Program {
			marker = ">"
		}

		label, _ := dbg.Label(i)

		fmt.Fprintf(
			out, "%s\033[1m[%#04x]\033[0m %-10s %s\n",
			marker, i, label, Disassemble(mc.Memory[i], i),
		)
	}
}

// PrintSource lists count lines of the assembly source starting at the line
// that produced addr.
func (dbg *Debugger) PrintSource(addr uint16, count int) {
	out := dbg.out()

	if dbg.SymTable == nil || dbg.SymTable.Source == "" {
		fmt.Fprintln(out, f("No source file loaded"))
		return
	}

	start, exists := dbg.SymTable.Lines[addr]

	if !exists {
		fmt.Fprintln(out, f("No instruction found at %#04x", addr))
		return
	}

	file, err := os.Open(dbg.SymTable.Source)

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	defer file.Close()

	addrs := make(map[int]uint16, len(dbg.SymTable.Lines))
	for lineaddr, line := range dbg.SymTable.Lines {
		addrs[line] = lineaddr
	}

	scanner := bufio.NewScanner(file)

	for lineno := 1; lineno < start+count && scanner.Scan(); lineno++ {
		if lineno < start {
			continue
		}

		if lineaddr, ok := addrs[lineno]; ok {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(out, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(out, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(out, err)
	}
}
