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
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/lassandro/lc3vm/pkg/assembler"
	"github.com/lassandro/lc3vm/pkg/console"
	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

var helpvar bool
var debugvar bool
var tracevar bool

const usage = "lc3vm [-debug] [-trace] image-file1 ..."

// Exit status of a process aborted by an illegal opcode, as SIGABRT.
const exitAbort = 134

// Exit status after an interrupt, as SIGINT.
const exitInterrupt = 130

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, f("Displays command usage"))
	flag.BoolVar(
		&debugvar, "debug", false, f("Runs the machine in a debug CLI"),
	)
	flag.BoolVar(
		&tracevar, "trace", false,
		f("Logs every instruction and the registers to stderr"),
	)
	flag.Parse()
}

// symbolPath names the symbol table written by lc3vm-asm beside an image.
func symbolPath(image string) string {
	return strings.TrimSuffix(image, filepath.Ext(image)) + ".sym"
}

func loadSymbols(path string) (*assembler.SymTable, error) {
	file, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer file.Close()

	var symtable assembler.SymTable

	if err := gob.NewDecoder(file).Decode(&symtable); err != nil {
		return nil, err
	}

	return &symtable, nil
}

func lc3vm() int {
	if helpvar {
		fmt.Println(f(usage))
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) == 0 {
		log.Println(f(usage))
		return 2
	}

	con := console.New(os.Stdin, os.Stdout)
	display := bufio.NewWriter(con)
	mc := machine.New(&machine.DeviceHandler{Keyboard: con, Display: display})

	for _, path := range args {
		if err := mc.LoadImageFile(path); err != nil {
			log.Println(f("failed to load image: %s", path))
			log.Println(err)
			return 1
		}
	}

	var dbg *debugger.Debugger

	if debugvar || tracevar {
		dbg = &debugger.Debugger{}
		mc.Debugger = dbg

		if symtable, err := loadSymbols(symbolPath(args[0])); err == nil {
			dbg.SymTable = symtable
		} else if debugvar {
			log.Println(f("Error loading symbol file"))
			log.Println(err)
		}
	}

	if tracevar {
		dbg.Trace = log.New(os.Stderr, "", 0)
	}

	if err := con.EnterRawMode(); err != nil {
		log.Println(err)
		return 1
	}

	defer con.ExitRawMode()

	if debugvar {
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				dbg.Break.Store(true)
			}
		}()

		debugREPL(dbg, mc)
	} else {
		stop := con.RestoreOnInterrupt(func() {
			os.Exit(exitInterrupt)
		})
		defer stop()
	}

	err := mc.Run()

	if flushErr := display.Flush(); err == nil {
		err = flushErr
	}

	var illegal *machine.IllegalOpcodeError

	if errors.As(err, &illegal) {
		log.Println(err)
		return exitAbort
	} else if err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(lc3vm())
}
