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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

const prompt = "\033[1;30m(dbg)\033[0m "

var lastcmd []string

type lineReader interface {
	ReadLine() (string, error)
}

// scanReader serves the REPL when stdin is not a terminal.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scanReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, prompt)

	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}

	return r.scanner.Text(), nil
}

var terminal *term.Terminal
var scanner *scanReader

// openREPL switches stdin to full raw mode for line editing. The returned
// function restores the previous mode.
func openREPL() (lineReader, io.Writer, func()) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		if scanner == nil {
			scanner = &scanReader{bufio.NewScanner(os.Stdin), os.Stdout}
		}
		return scanner, os.Stdout, func() {}
	}

	state, err := term.MakeRaw(fd)

	if err != nil {
		fmt.Println(err)
		fallback := &scanReader{bufio.NewScanner(os.Stdin), os.Stdout}
		return fallback, os.Stdout, func() {}
	}

	if terminal == nil {
		terminal = term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}, prompt)
	}

	return terminal, terminal, func() { term.Restore(fd, state) }
}

func parseIndex(arg string, count int) (int, error) {
	i, err := strconv.ParseInt(arg, 10, 64)

	if err != nil {
		return 0, err
	}

	if i < 0 || i >= int64(count) {
		return 0, errors.New(f("Invalid index %s", arg))
	}

	return int(i), nil
}

func indexFormat(count int, suffix string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %s\n", int64(digits)+1, suffix)
}

func debugBreak(dbg *debugger.Debugger, out io.Writer, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####|label]"

		if len(args) != 1 {
			fmt.Fprintln(out, usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			fmt.Fprintln(out, err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Fprintln(out, f("Breakpoint added [%#04x]", addr))
		}

	case "l", "ls", "list":
		format := indexFormat(len(dbg.Breakpoints), "%#04x %s")

		for i, breakpoint := range dbg.Breakpoints {
			label, _ := dbg.Label(breakpoint.Addr)
			fmt.Fprintf(out, format, i, breakpoint.Addr, label)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			fmt.Fprintln(out, usage)
			return
		}

		i, err := parseIndex(args[0], len(dbg.Breakpoints))

		if err != nil {
			fmt.Fprintln(out, err)
			return
		}

		dbg.RemoveBreakpoint(i)
		fmt.Fprintln(out, f("Breakpoint removed [%s]", args[0]))

	case "clear":
		dbg.Breakpoints = nil
		fmt.Fprintln(out, f("Breakpoints reset"))

	default:
		fmt.Fprintln(out, usage)
	}
}

func debugWatch(dbg *debugger.Debugger, out io.Writer, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####|label] [read|write|readwrite]"

		if len(args) != 2 {
			fmt.Fprintln(out, usage)
			return
		}

		addr, err := dbg.Resolve(args[0])

		if err != nil {
			fmt.Fprintln(out, err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			fmt.Fprintln(out, usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Fprintln(out, f("Watchpoint added [%#04x] (%s)", addr, wtype))
		}

	case "l", "ls", "list":
		format := indexFormat(len(dbg.Watchpoints), "%#04x %s")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Fprintf(out, format, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch remove [#]"

		if len(args) != 1 {
			fmt.Fprintln(out, usage)
			return
		}

		i, err := parseIndex(args[0], len(dbg.Watchpoints))

		if err != nil {
			fmt.Fprintln(out, err)
			return
		}

		dbg.RemoveWatchpoint(i)
		fmt.Fprintln(out, f("Watchpoint removed [%s]", args[0]))

	case "clear":
		dbg.Watchpoints = nil
		fmt.Fprintln(out, f("Watchpoints reset"))

	default:
		fmt.Fprintln(out, usage)
	}
}

func debugReg(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "register [R#|PC|CC] [0x####]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		fmt.Fprintln(out, usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7':
		mc.Registers[name[1]-'0'] = value
	case name == "PC":
		mc.Program = value
	case name == "CC":
		if value != machine.FLAG_POS && value != machine.FLAG_ZERO &&
			value != machine.FLAG_NEG {
			fmt.Fprintln(out, f("Condition must be exactly one flag"))
			return
		}
		mc.Condition = value
	default:
		fmt.Fprintln(out, f("Invalid register"))
		return
	}

	fmt.Fprintf(out, "\033[1m%s:\033[0m %#04x\n", name, value)
}

// addrCount parses the [0x####|label] [#] arguments shared by listings.
func addrCount(
	dbg *debugger.Debugger, mc *machine.MachineState,
	args []string, count uint16,
) (uint16, uint16, error) {
	addr := mc.Program

	if len(args) > 0 {
		var err error

		if addr, err = dbg.Resolve(args[0]); err != nil {
			value, perr := strconv.ParseUint(args[0], 10, 16)

			if perr != nil {
				return 0, 0, err
			}

			addr = mc.Program
			count = uint16(value)
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			return 0, 0, err
		}

		count = uint16(value)
	}

	return addr, count, nil
}

func debugMemory(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "memory [0x####|label|#] [#]"

	if len(args) > 2 {
		fmt.Fprintln(out, usage)
		return
	}

	addr, count, err := addrCount(dbg, mc, args, 1)

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	dbg.PrintMem(mc, addr, count)
}

func debugCode(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "code [0x####|label|#] [#]"

	if len(args) > 2 {
		fmt.Fprintln(out, usage)
		return
	}

	addr, count, err := addrCount(dbg, mc, args, 8)

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	dbg.PrintCode(mc, addr, count)
}

func debugSource(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "source [0x####|label|#] [#]"

	if len(args) > 2 {
		fmt.Fprintln(out, usage)
		return
	}

	addr, count, err := addrCount(dbg, mc, args, 3)

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	dbg.PrintSource(addr, int(count))
}

func debugLabels(dbg *debugger.Debugger, out io.Writer, args []string) {
	if dbg.SymTable == nil {
		fmt.Fprintln(out, f("No symbol table loaded"))
		return
	}

	for _, addr := range dbg.Labels() {
		fmt.Fprintf(
			out, "\033[1m[%#04x]\033[0m %s\n", addr, dbg.SymTable.Labels[addr],
		)
	}
}

func debugJump(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "jump [0x####|label]"

	if len(args) != 1 {
		fmt.Fprintln(out, usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	mc.Program = addr
	fmt.Fprintf(out, "\033[1mPC:\033[0m %#04x\n", addr)
}

func debugSet(
	dbg *debugger.Debugger, mc *machine.MachineState,
	out io.Writer, args []string,
) {
	const usage = "set [0x####|label] [0x####]"

	if len(args) != 2 {
		fmt.Fprintln(out, usage)
		return
	}

	addr, err := dbg.Resolve(args[0])

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	mc.Memory[addr] = value
	dbg.PrintMem(mc, addr, 1)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	reader, out, restore := openREPL()
	defer restore()

	dbg.Output = out
	defer func() { dbg.Output = nil }()

	for {
		line, err := reader.ReadLine()

		if err != nil {
			fmt.Fprintln(out)
			mc.State.Running = false
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, out, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, out, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, out, args)

		case "s", "src", "source":
			debugSource(dbg, &mc.State, out, args)

		case "d", "code", "disassemble":
			debugCode(dbg, &mc.State, out, args)

		case "l", "label", "labels":
			debugLabels(dbg, out, args)

		case "j", "jmp", "jump":
			debugJump(dbg, &mc.State, out, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, out, args)

		case "set":
			debugSet(dbg, &mc.State, out, args)

		case "c", "continue":
			dbg.Break.Store(false)
			return

		case "n", "next":
			dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			mc.State.Running = false
			return

		case "clear":
			fmt.Fprint(out, "\033[H\033[2J")

		default:
			fmt.Fprintln(out, f("error: '%s' is not a valid command", cmd))
		}
	}
}

func stopped() {
	fmt.Println()
	fmt.Println(f("Program stopped"))
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break.Load() {
		stopped()
	}

	dbg.PrintCode(&mc.State, mc.State.Program, 1)
	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	stopped()
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	stopped()
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
