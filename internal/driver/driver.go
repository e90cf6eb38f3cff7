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

package driver

import (
    `os`
    `strconv`
    `sync/atomic`

    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/cloudwego/unisonpass/internal/opts`
    `github.com/cloudwego/unisonpass/internal/sandbox`
    `github.com/cloudwego/unisonpass/internal/target`
    `github.com/cloudwego/unisonpass/internal/utils`
    `tlog.app/go/errors`
    `tlog.app/go/tlog`
)

const (
    _P_uni       = "uni"
    _P_presolver = "gecode-presolver"
    _P_solver    = "gecode-solver"
)

const (
    _A_unison = "unison"
)

var (
    RunCount  uint64
    SkipCount uint64
)

// Driver replaces the register allocation and instruction scheduling of a
// function with the Unison pipeline. The following executables must be
// found in PATH:
//   - uni
//   - gecode-presolver
//   - gecode-solver
type Driver struct {
    Target  *target.Target
    Options opts.Options
    PreMIR  string
    state   State
    files   sandbox.TempFiles
    progs   map[string]sandbox.Program
}

func New(t *target.Target, o opts.Options) *Driver {
    return &Driver {
        Target  : t,
        Options : o,
    }
}

// State is the pipeline stage the driver is in, or the final state of the
// last run.
func (self *Driver) State() State {
    return self.state
}

// Active tells whether fn should go through the Unison pipeline. A single
// function filter takes precedence over every other activation.
func (self *Driver) Active(fn *mir.Function) bool {
    if self.Options.SingleFunction != "" {
        return fn.Name == self.Options.SingleFunction
    } else {
        return self.Options.Enabled || fn.HasAnnotation(_A_unison)
    }
}

func (self *Driver) Apply(fn *mir.Function) (bool, error) {
    return self.RunOnFunction(fn)
}

// RunOnFunction runs the whole pipeline on fn, and replaces the body of fn
// with the solution. Any failure aborts the pipeline.
func (self *Driver) RunOnFunction(fn *mir.Function) (ret bool, err error) {
    self.reset()
    defer self.files.Cleanup()

    /* check for activation */
    if !self.Active(fn) {
        atomic.AddUint64(&SkipCount, 1)
        return false, nil
    }

    /* mark as aborted on failure */
    defer func() {
        if err != nil {
            tlog.V("driver").Printw("aborted", "func", fn.Name, "state", self.state, "err", err)
            self.state = Aborted
        }
    }()

    /* run the pipeline */
    atomic.AddUint64(&RunCount, 1)
    if err = self.run(fn); err != nil {
        return false, err
    }

    /* all done */
    self.state = Done
    return true, nil
}

func (self *Driver) reset() {
    self.state = Idle
    self.progs = nil
    self.files = sandbox.TempFiles { NoClean: self.Options.NoClean }
}

func (self *Driver) run(fn *mir.Function) error {
    var err error
    var p *_Paths

    /* check the target */
    if self.Target == nil {
        return utils.ETarget("(none)", "")
    }

    /* resolve the executables */
    if err = self.resolve(); err != nil {
        return err
    }

    /* allocate all the artifacts */
    if p, err = self.paths(); err != nil {
        return err
    }

    /* 0. export the baseline and the input */
    self.state = Exporting
    if err = self.export(fn, p); err != nil {
        return err
    }

    /* 1. ~ 9. */
    for _, st := range self.stages(fn, p) {
        self.state = st.state
        tlog.V("driver").Printw("stage", "func", fn.Name, "state", st.state)

        /* build and run the command */
        if err = st.cmd.Run(); err != nil {
            return err
        }
    }

    /* 10. load the solution */
    self.state = ReImporting
    return self.reimport(fn, p.unison)
}

func (self *Driver) resolve() error {
    self.progs = make(map[string]sandbox.Program, 3)
    for _, name := range []string { _P_uni, _P_presolver, _P_solver } {
        if p, err := sandbox.Resolve(name); err != nil {
            return err
        } else {
            self.progs[name] = p
        }
    }
    return nil
}

type _Paths struct {
    mir    string
    asm    string
    uni    string
    lssa   string
    ext    string
    alt    string
    llvm   string
    json   string
    extj   string
    out    string
    unison string
}

func (self *Driver) paths() (*_Paths, error) {
    var err error
    var ret _Paths

    /* every artifact, in pipeline order */
    tab := []struct {
        fp     *string
        suffix string
    } {
        { &ret.asm    , "asm.mir"    },
        { &ret.uni    , "uni"        },
        { &ret.lssa   , "lssa.uni"   },
        { &ret.ext    , "ext.uni"    },
        { &ret.alt    , "alt.uni"    },
        { &ret.llvm   , "llvm.mir"   },
        { &ret.json   , "json"       },
        { &ret.extj   , "ext.json"   },
        { &ret.out    , "out.json"   },
        { &ret.unison , "unison.mir" },
    }

    /* the input may have been exported already */
    if ret.mir = self.PreMIR; ret.mir == "" {
        if ret.mir, err = self.files.Create("mir"); err != nil {
            return nil, err
        }
    }

    /* create the rest */
    for _, v := range tab {
        if *v.fp, err = self.files.Create(v.suffix); err != nil {
            return nil, err
        }
    }

    /* all done */
    return &ret, nil
}

func (self *Driver) export(fn *mir.Function, p *_Paths) error {
    src := []byte((&mir.Module { Functions: []*mir.Function { fn } }).String())

    /* the baseline is always written */
    if err := os.WriteFile(p.asm, src, 0644); err != nil {
        return errors.Wrap(err, "export %s", fn.Name)
    }

    /* the pipeline input only when not provided */
    if self.PreMIR != "" {
        return nil
    } else if err := os.WriteFile(p.mir, src, 0644); err != nil {
        return errors.Wrap(err, "export %s", fn.Name)
    } else {
        return nil
    }
}

type _Stage struct {
    state State
    cmd   sandbox.Command
}

func (self *Driver) stages(fn *mir.Function, p *_Paths) []_Stage {
    goal := "speed"
    if fn.OptSize {
        goal = "size"
    }

    /* pipeline stages, in order */
    return []_Stage {
        self.uni(Importing, opts.StageImport, p.mir, p.uni, true,
            "--function=" + fn.Name,
            "--maxblocksize=" + strconv.Itoa(self.Options.MaxBlockSize),
            "--goal=" + goal,
        ),
        self.uni(Linearizing , opts.StageLinearize , p.uni  , p.lssa , true),
        self.uni(Extending   , opts.StageExtend    , p.lssa , p.ext  , true),
        self.uni(Augmenting  , opts.StageAugment   , p.ext  , p.alt  , true),
        self.uni(Normalizing , opts.StageNormalize , p.asm  , p.llvm , false),
        self.uni(Modeling    , opts.StageModel     , p.alt  , p.json , false,
            "--basefile=" + p.llvm, "+RTS", "-K20M", "-RTS",
        ),
        self.gecode(Presolving, opts.StagePresolver, _P_presolver, p.json, p.extj,
            "--timeout", strconv.Itoa(self.Options.PresolveTimeout * 1000),
        ),
        self.gecode(Solving, opts.StageSolver, _P_solver, p.extj, p.out,
            "--verbose",
        ),
        self.uni(ExportingFinal, opts.StageExport, p.alt, p.unison, false,
            "--basefile=" + p.llvm,
            "--solfile=" + p.out,
        ),
    }
}

func (self *Driver) uni(state State, stage string, in string, out string, lint bool, args ...string) _Stage {
    argv := []string { stage, "--target=" + self.Target.Name, in, "-o", out }
    argv = append(argv, args...)
    argv = append(argv, self.Options.StageFlags(stage)...)

    /* lint the output if needed */
    if lint && self.Options.Lint {
        argv = append(argv, "--lint")
    }

    /* build the stage */
    return _Stage {
        state: state,
        cmd: sandbox.Command {
            Stage   : stage,
            Prog    : self.progs[_P_uni],
            Args    : argv,
            Verbose : self.Options.Verbose,
        },
    }
}

func (self *Driver) gecode(state State, stage string, prog string, in string, out string, args ...string) _Stage {
    argv := append([]string { "-o", out }, args...)
    argv = append(argv, self.Options.StageFlags(stage)...)

    /* the input goes last */
    return _Stage {
        state: state,
        cmd: sandbox.Command {
            Stage   : stage,
            Prog    : self.progs[prog],
            Args    : append(argv, in),
            Verbose : self.Options.Verbose,
        },
    }
}

func (self *Driver) reimport(fn *mir.Function, fp string) error {
    buf, err := os.ReadFile(fp)
    if err != nil {
        return errors.Wrap(err, "read solution of %s", fn.Name)
    }

    /* parse the solved module */
    m, err := mir.Parse(string(buf), self.Target)
    if err != nil {
        return errors.Wrap(err, "parse solution of %s", fn.Name)
    }

    /* find the solved function */
    sol := m.Function(fn.Name)
    if sol == nil {
        return utils.ETool(opts.StageExport, _P_uni, "no solution for function " + fn.Name)
    }

    /* replace the body */
    fn.ReplaceBody(sol)
    return fn.Verify()
}
