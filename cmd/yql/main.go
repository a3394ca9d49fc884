// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Command yql runs a streaming SQL-over-events job described by a YAML
// job file. There is no SQL parser here (that's an external
// collaborator, per spec.md §6.4): the job file directly encodes the
// logical plan a parser would otherwise produce.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/stream"
)

var stdoutWriter io.Writer = os.Stdout

var (
	dashv          bool
	dashJob        string
	dashCheckpoint string
	dashRestore    string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.StringVar(&dashJob, "job", "", "path to the job YAML file")
	flag.StringVar(&dashCheckpoint, "checkpoint", "", "write a final checkpoint blob to this path once the run completes")
	flag.StringVar(&dashRestore, "restore", "", "resume from a checkpoint blob at this path before running")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(1)
}

func logf(f string, args ...interface{}) {
	if !dashv {
		return
	}
	log.Printf(f, args...)
}

func loadJobFile(path string) *jobSpec {
	if path == "" {
		exitf("usage: -job <path> is required\n")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		exitf("reading job file: %s\n", err)
	}
	job, err := loadJob(data)
	if err != nil {
		exitf("%s\n", err)
	}
	return job
}

func lowerJob(job *jobSpec) *plan.Lowered {
	lp, err := job.buildPlan()
	if err != nil {
		exitf("%s\n", err)
	}
	lowered, err := plan.Lower(lp)
	if err != nil {
		exitf("lowering plan: %s\n", err)
	}
	return lowered
}

// entry point for 'yql validate'
func validate(job *jobSpec) {
	lowered := lowerJob(job)
	fmt.Printf("plan ok: %d operator(s), %d source(s)\n", lowered.NodeCount, lowered.SourceCount)
}

// entry point for 'yql run'
func run(job *jobSpec) {
	lowered := lowerJob(job)
	sinkDriver, err := job.Sink.buildDriver()
	if err != nil {
		exitf("%s\n", err)
	}
	d, err := stream.NewDataStream(lowered, sinkDriver)
	if err != nil {
		exitf("building pipeline: %s\n", err)
	}

	if dashRestore != "" {
		state, err := os.ReadFile(dashRestore)
		if err != nil {
			exitf("reading checkpoint: %s\n", err)
		}
		if err := d.Restore(state); err != nil {
			exitf("restoring checkpoint: %s\n", err)
		}
		logf("yql: restored from %s", dashRestore)
	}

	if err := d.Run(); err != nil {
		exitf("run: %s\n", err)
	}
	logf("yql: run complete")

	if dashCheckpoint != "" {
		state, err := d.Checkpoint(context.Background(), true)
		if err != nil {
			exitf("checkpoint: %s\n", err)
		}
		if err := os.WriteFile(dashCheckpoint, state, 0o644); err != nil {
			exitf("writing checkpoint: %s\n", err)
		}
		logf("yql: checkpoint written to %s", dashCheckpoint)
	}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "usage:\n")
		fmt.Fprintf(os.Stderr, "    %s -job <job.yaml> run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        run a job to completion\n")
		fmt.Fprintf(os.Stderr, "    %s -job <job.yaml> validate\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "        parse and lower a job without running it\n")
		fmt.Fprintf(os.Stderr, "flag usage:\n")
		flag.Usage()
		os.Exit(1)
	}

	job := loadJobFile(dashJob)
	switch args[0] {
	case "run":
		run(job)
	case "validate":
		validate(job)
	default:
		exitf("commands: run, validate\n")
	}
}
