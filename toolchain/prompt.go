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
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter isolates every interactive stdin prompt behind one interface, so
// ZlsProvisioner's confirmations and commit-resolution loop can be driven by
// a scripted double in tests instead of a real terminal.
type Prompter interface {
	// Confirm asks a yes/no question, returning defaultYes when the user
	// enters an empty line.
	Confirm(question string, defaultYes bool) bool
	// MustConfirm asks a yes/no question with no default: the caller must
	// give an explicit y/n answer, and an empty, unrecognized, or EOF
	// response is reported as ErrPromptNoAnswer rather than silently
	// resolved either way.
	MustConfirm(question string) (bool, error)
	// Line asks an open-ended question and returns the raw entered line.
	Line(question string) string
}

// StdPrompter is the real, terminal-backed Prompter used outside tests.
type StdPrompter struct {
	In  io.Reader
	Out io.Writer
}

// NewStdPrompter returns a StdPrompter reading from in and writing prompts to out.
func NewStdPrompter(in io.Reader, out io.Writer) *StdPrompter {
	return &StdPrompter{In: in, Out: out}
}

// Confirm implements Prompter.
func (p *StdPrompter) Confirm(question string, defaultYes bool) bool {
	hint := "y/N"
	if defaultYes {
		hint = "Y/n"
	}

	fmt.Fprintf(p.Out, "%s [%s] ", question, hint)

	line := p.readLine()

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// MustConfirm implements Prompter.
func (p *StdPrompter) MustConfirm(question string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/n] ", question)

	switch strings.ToLower(strings.TrimSpace(p.readLine())) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, ErrPromptNoAnswer
	}
}

// Line implements Prompter.
func (p *StdPrompter) Line(question string) string {
	fmt.Fprintf(p.Out, "%s ", question)

	return strings.TrimSpace(p.readLine())
}

func (p *StdPrompter) readLine() string {
	reader := bufio.NewReader(p.In)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}

	return line
}

// ScriptedPrompter is a test double that answers Confirm/Line/MustConfirm
// calls from fixed, in-order scripts. Once a script is exhausted, Confirm
// returns the question's default, Line returns an empty string, and
// MustConfirm reports ErrPromptNoAnswer.
type ScriptedPrompter struct {
	Confirms     []bool
	Lines        []string
	MustConfirms []bool

	confirmIdx     int
	lineIdx        int
	mustConfirmIdx int
}

// Confirm implements Prompter.
func (p *ScriptedPrompter) Confirm(_ string, defaultYes bool) bool {
	if p.confirmIdx >= len(p.Confirms) {
		return defaultYes
	}

	answer := p.Confirms[p.confirmIdx]
	p.confirmIdx++

	return answer
}

// MustConfirm implements Prompter, failing with ErrPromptNoAnswer once the
// scripted answers are exhausted rather than falling back to a default.
func (p *ScriptedPrompter) MustConfirm(_ string) (bool, error) {
	if p.mustConfirmIdx >= len(p.MustConfirms) {
		return false, ErrPromptNoAnswer
	}

	answer := p.MustConfirms[p.mustConfirmIdx]
	p.mustConfirmIdx++

	return answer, nil
}

// Line implements Prompter.
func (p *ScriptedPrompter) Line(_ string) string {
	if p.lineIdx >= len(p.Lines) {
		return ""
	}

	answer := p.Lines[p.lineIdx]
	p.lineIdx++

	return answer
}
