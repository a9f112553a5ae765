// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd holds implementations of the slist subcommands.
package cmd

import (
	"fmt"
	"os"

	"gvisor.dev/intrusive/cmd/slist/config"
	"gvisor.dev/intrusive/pkg/log"
)

// Fatalf logs to stderr and exits with a failure status code.
func Fatalf(format string, args ...any) {
	log.WarningfAtDepth(1, "FATAL ERROR: "+format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(128)
}

// configFrom extracts the configuration passed to subcommands.Execute.
func configFrom(args []any) *config.Config {
	if len(args) == 0 {
		Fatalf("missing configuration")
	}
	conf, ok := args[0].(*config.Config)
	if !ok {
		Fatalf("unexpected subcommand argument %T", args[0])
	}
	return conf
}
