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

// Binary slist exercises the intrusive singly-linked list.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	"golang.org/x/sys/unix"
	"gvisor.dev/intrusive/cmd/slist/cmd"
	"gvisor.dev/intrusive/cmd/slist/config"
	"gvisor.dev/intrusive/pkg/log"
	"gvisor.dev/intrusive/pkg/refs"
)

var configFile = flag.String("config", "", "path to a TOML file supplying defaults for any of the flags below.")

func main() {
	// Help and flags commands are generated automatically.
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")

	subcommands.Register(new(cmd.Demo), "")
	subcommands.Register(new(cmd.Bench), "")
	subcommands.Register(new(cmd.Verify), "")

	config.RegisterFlags(flag.CommandLine)

	// All subcommands must be registered before flag parsing.
	flag.Parse()

	if *configFile != "" {
		if err := config.LoadFile(flag.CommandLine, *configFile); err != nil {
			cmd.Fatalf("%v", err)
		}
	}
	conf, err := config.NewFromFlags(flag.CommandLine)
	if err != nil {
		cmd.Fatalf("%v", err)
	}

	w := &log.Writer{Next: os.Stderr}
	switch conf.LogFormat {
	case "json":
		log.SetTarget(log.JSONEmitter{Writer: w})
	default:
		log.SetTarget(log.GoogleEmitter{Writer: w})
	}
	if conf.Debug {
		log.SetLevel(log.Debug)
	}
	if err := log.CopyStandardLogTo(log.Info); err != nil {
		cmd.Fatalf("%v", err)
	}

	refs.SetLeakMode(conf.ReferenceLeak)
	log.Debugf("slist config: %+v", conf)

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	status := subcommands.Execute(ctx, conf)
	stop()

	refs.DoLeakCheck()
	os.Exit(int(status))
}
