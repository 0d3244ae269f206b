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

// Package translate formats the messages lc3vm shows on the machine display
// and on stderr for the host locale. Keys are en-US Sprintf() formats.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

const fallback = "en-US"

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()

	if err != nil {
		log.Printf("lc3vm: locale unavailable, using %s: %v", fallback, err)
	}

	printer = newPrinter(locales)
}

// newPrinter picks the best supported language from the host preferences.
func newPrinter(locales []string) *message.Printer {
	if len(locales) == 0 {
		locales = []string{fallback}
	}

	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From formats key with args for the host locale.
func From(key message.Reference, args ...interface{}) string {
	return printer.Sprintf(key, args...)
}
