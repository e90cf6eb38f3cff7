/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cloudwego/unisonpass"
	"github.com/cloudwego/unisonpass/compiler"
	"github.com/cloudwego/unisonpass/debug"
	"github.com/cloudwego/unisonpass/internal/opts"
	"github.com/tebeka/atexit"
	"tlog.app/go/tlog"
)

func main() {
	doMain(os.Args[1:], os.Stdin, os.Stdout, os.Stderr, atexit.Exit)
}

// doMain is separated out for the purpose of unit testing.
func doMain(args []string, stdIn io.Reader, stdOut io.Writer, stdErr io.Writer, exit func(code int)) {
	flags := flag.NewFlagSet("unisonc", flag.ContinueOnError)
	flags.SetOutput(stdErr)

	var enabled bool
	flags.BoolVar(&enabled, "unison", false, "Run Unison on every function, not only the annotated ones")

	var single string
	flags.StringVar(&single, "unison-single-function", "", "Run Unison only on the named function")

	var verbose bool
	flags.BoolVar(&verbose, "unison-verbose", false, "Show Unison command lines and process output")

	var noClean bool
	flags.BoolVar(&noClean, "unison-no-clean", false, "Do not clean Unison temporary files")

	var lint bool
	flags.BoolVar(&lint, "unison-lint", false, "Run Unison lint on the output of every Unison command")

	var maxBlockSize int
	flags.IntVar(&maxBlockSize, "unison-maxblocksize", opts.MaxBlockSize, "--maxblocksize parameter passed to Unison import")

	var psTimeout int
	flags.IntVar(&psTimeout, "unison-ps-timeout", opts.PresolveTimeout, "Unison presolver timeout in seconds")

	var shadowBlock bool
	flags.BoolVar(&shadowBlock, "unison-shadow-block", false, "Keep the stack pointer shadow of the cost model until the end of the block")

	stageFlags := make(map[string]*string, len(opts.Stages))
	for _, st := range opts.Stages {
		stageFlags[st] = flags.String("unison-"+st+"-flags", "", fmt.Sprintf("Extra flags passed to the %s stage", st))
	}

	var triple, cpu, output string
	flags.StringVar(&triple, "mtriple", "hexagon", "Target triple")
	flags.StringVar(&cpu, "mcpu", "hexagonv4", "Target CPU")
	flags.StringVar(&output, "o", "-", "Output file, '-' for the standard output")

	var iselCost, dumpCosts bool
	flags.BoolVar(&iselCost, "isel-cost", false, "Print the instruction selection cost of every function as JSON")
	flags.BoolVar(&dumpCosts, "dump-isel-w-costs", false, "Print every function with the cost of each instruction")

	if err := flags.Parse(args); errors.Is(err, flag.ErrHelp) {
		exit(0)
	} else if err != nil {
		exit(2)
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(stdErr, "missing path to MIR file")
		flags.Usage()
		exit(1)
	}

	if maxBlockSize <= 0 || psTimeout <= 0 {
		fmt.Fprintln(stdErr, "unisonc: -unison-maxblocksize and -unison-ps-timeout must be positive")
		exit(1)
	}

	options := []unisonpass.Option{
		unisonpass.WithEnabled(enabled),
		unisonpass.WithSingleFunction(single),
		unisonpass.WithVerbose(verbose),
		unisonpass.WithNoClean(noClean),
		unisonpass.WithLint(lint),
		unisonpass.WithMaxBlockSize(maxBlockSize),
		unisonpass.WithPresolveTimeout(psTimeout),
		unisonpass.WithShadowBlock(shadowBlock),
	}
	for st, v := range stageFlags {
		options = append(options, unisonpass.WithStageFlags(st, *v))
	}

	if verbose {
		atexit.Register(func() {
			st := debug.GetStats()
			tlog.Printw("unison stats", "runs", st.Driver.Runs, "skipped", st.Driver.Skipped,
				"tools", st.Tools.Invoked, "failed", st.Tools.Failed, "tempfiles", st.Tools.TempFiles)
		})
	}

	src, err := readInput(flags.Arg(0), stdIn)
	if err != nil {
		fmt.Fprintf(stdErr, "unisonc: error reading MIR file: %v\n", err)
		exit(1)
	}

	unit, err := compiler.Parse(src, triple, cpu, options...)
	if err != nil {
		fmt.Fprintf(stdErr, "unisonc: %v\n", err)
		exit(1)
	}

	switch {
	case iselCost:
		err = writeReports(unit, stdOut)
	case dumpCosts:
		err = unit.DumpWithCosts(stdOut)
	default:
		err = runPipeline(unit, output, stdOut)
	}

	if err != nil {
		fmt.Fprintf(stdErr, "unisonc: %v\n", err)
		exit(1)
	} else {
		exit(0)
	}
}

func readInput(path string, stdIn io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdIn)
	} else {
		return os.ReadFile(path)
	}
}

func writeReports(unit *compiler.Unit, stdOut io.Writer) error {
	reps, err := unit.Reports()
	if err != nil {
		return err
	}
	for _, rep := range reps {
		if err = rep.WriteJSON(stdOut); err != nil {
			return err
		}
	}
	return nil
}

func runPipeline(unit *compiler.Unit, output string, stdOut io.Writer) error {
	if _, err := unit.Run(); err != nil {
		return err
	}
	if output == "-" {
		_, err := io.WriteString(stdOut, unit.Module.String())
		return err
	} else {
		return os.WriteFile(output, []byte(unit.Module.String()), 0644)
	}
}
