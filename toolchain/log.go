//
// Copyright (c) 2025 Sumicare
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package toolchain

import (
	"fmt"
	"io"
	"os"
)

// Logger writes the single-line, colorized status messages zigup prints for
// successes and failures. It is deliberately not a structured logger: the
// teacher's own Msgf/Errf never carry fields, only a formatted line.
type Logger struct {
	Out io.Writer
	Err io.Writer
}

// Stdlog is the package-level logger used by Msgf/Errf and the command
// dispatch in main. Tests that want to assert on output construct their own
// Logger instead of going through the package-level funcs.
var Stdlog = &Logger{Out: os.Stderr, Err: os.Stderr} //nolint:gochecknoglobals // mirrors teacher's package-level httpClient pattern

// Successf prints a green status line.
func (l *Logger) Successf(format string, args ...any) {
	fmt.Fprintf(l.Out, "\033[32m"+format+"\033[39m\n", args...)
}

// Errorf prints a red status line.
func (l *Logger) Errorf(format string, args ...any) {
	fmt.Fprintf(l.Err, "\033[31m"+format+"\033[39m\n", args...)
}

// Warnf prints a yellow status line, used for advisory failures such as a
// ZLS build that failed while the compiler install itself succeeded.
func (l *Logger) Warnf(format string, args ...any) {
	fmt.Fprintf(l.Err, "\033[33m"+format+"\033[39m\n", args...)
}
