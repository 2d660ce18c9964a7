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

// Command zigup-launcher is the source of the launcher template spliced by
// toolchain.LauncherPointer. Built once per release, its own compiled bytes
// become toolchain/launcher/template.bin after locating the marker.
//
//go:build windows

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/windows"
)

// zigExeString holds the marker and its null-terminated path buffer. Its
// address in the compiled binary is what toolchain.LauncherPointer splices
// a target path into.
var zigExeString = [32768 + 1 + 64]byte{}

func init() {
	copy(zigExeString[:], []byte("!!!THIS MARKS THE zig_exe_string MEMORY!!#"))
}

func main() {
	os.Exit(run())
}

func run() int {
	nul := bytes.IndexByte(zigExeString[:], 0)
	if nul < 0 {
		fmt.Fprintln(os.Stderr, "zigup-launcher: corrupt launcher payload")

		return 1
	}

	target := string(zigExeString[len("!!!THIS MARKS THE zig_exe_string MEMORY!!#"):nul])
	if target == "" {
		fmt.Fprintln(os.Stderr, "zigup-launcher: no target configured")

		return 1
	}

	cmd := exec.Command(target, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// Forward console control events (Ctrl-C etc.) to the child rather than
	// letting the launcher itself die first, per spec.md §4.6.
	_ = windows.SetConsoleCtrlHandler(nil, true) //nolint:errcheck // best-effort; absence of a handler just means default Go behavior

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}

		fmt.Fprintln(os.Stderr, "zigup-launcher:", err)

		return 1
	}

	return 0
}
