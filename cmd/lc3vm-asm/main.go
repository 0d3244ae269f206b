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
	"bytes"
	"encoding/gob"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/lc3vm/pkg/assembler"
	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

var helpvar bool
var symvar bool
var outvar string

const usage = "lc3vm-asm [-sym] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, f("Displays command usage"))
	flag.BoolVar(
		&symvar, "sym", false,
		f("Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'.sym'"),
	)
	flag.StringVar(
		&outvar, "out", "",
		f("Specifies a precise name for the output file, "+
			"overriding the default means of determining it"),
	)
	flag.Parse()
}

// report prints an error with the offending source line underlined.
func report(err error, lines []string) {
	tokenErr, ok := err.(assembler.TokenError)

	if !ok {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if cursor.Line < 1 || cursor.Line > len(lines) {
		log.Println(err)
		return
	}

	size := cursor.Size
	if size < 1 {
		size = 1
	}

	underlinefmt := fmt.Sprintf(
		"%% %ds%s", cursor.Column, strings.Repeat("~", size-1),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		lines[cursor.Line-1],
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)

	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}

	return file.Close()
}

func lc3vm_asm() int {
	if helpvar {
		fmt.Println(f(usage))
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var infile string
	var input io.Reader

	stat, err := os.Stdin.Stat()
	piped := err == nil && stat.Mode()&os.ModeCharDevice == 0

	if len(args) == 0 && piped {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if outvar == "" {
			outvar = "out.obj"
		}
	} else {
		if len(args) != 1 {
			log.Println(f(usage))
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Println(f("%s is not a valid LC3 assembly file", filename))
			return 1
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if outvar == "" {
			outvar = strings.TrimSuffix(
				file.Name(), filepath.Ext(filename),
			) + ".obj"
		}
	}

	source, err := io.ReadAll(input)

	if err != nil {
		log.Println(err)
		return 1
	}

	obj, errs := assembler.Assemble(bytes.NewReader(source))

	if len(errs) > 0 {
		lines := strings.Split(string(source), "\n")

		for _, err := range errs {
			report(err, lines)
		}

		return 1
	}

	if err := writeFile(outvar, func(w io.Writer) error {
		_, err := obj.WriteTo(w)
		return err
	}); err != nil {
		log.Println(f("Error writing output file"))
		log.Println(err)
		return 1
	}

	if symvar {
		if infile != "" {
			if obj.Symbols.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				obj.Symbols.Source = ""
			}
		}

		filename := strings.TrimSuffix(outvar, filepath.Ext(outvar)) + ".sym"

		if err := writeFile(filename, func(w io.Writer) error {
			return gob.NewEncoder(w).Encode(obj.Symbols)
		}); err != nil {
			log.Println(f("Error writing symbol table"))
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(lc3vm_asm())
}
