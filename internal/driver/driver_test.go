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
    `path/filepath`
    `runtime`
    `strings`
    `testing`

    `github.com/cloudwego/unisonpass`
    `github.com/cloudwego/unisonpass/internal/mir`
    `github.com/cloudwego/unisonpass/internal/opts`
    `github.com/cloudwego/unisonpass/internal/target`
    `github.com/stretchr/testify/require`
)

const fakeUni = `#!/bin/sh
tool=$1
in=$3
out=$5
echo "$*" >> "$UNI_LOG"
if [ "$tool" = "export" ]; then
    for a in "$@"; do
        case "$a" in --basefile=*) base="${a#--basefile=}" ;; esac
    done
    if [ -n "$UNI_SOLUTION" ]; then cp "$UNI_SOLUTION" "$out"; else cp "$base" "$out"; fi
else
    cp "$in" "$out"
fi
if [ "$tool" = "$UNI_FAIL" ]; then
    echo "uni: $tool exploded" >&2
    exit 1
fi
`

const fakeGecode = `#!/bin/sh
echo "$(basename "$0") $*" >> "$UNI_LOG"
out=$2
for a in "$@"; do last=$a; done
cp "$last" "$out"
`

const testFunc = `--- f
attributes: unison
bb.0:
  successors: %bb.1
  %0 = COPY $r29
  S2_storeri_io %0, 0, %1
  J2_jump %bb.1
bb.1:
  JMPret
`

type fakeTools struct {
    dir string
    log string
}

func setupTools(t *testing.T, progs ...string) *fakeTools {
    if runtime.GOOS == "windows" {
        t.Skip("requires a POSIX shell")
    }

    /* install the fake tools */
    ft := &fakeTools { dir: t.TempDir() }
    ft.log = filepath.Join(ft.dir, "calls.log")
    for _, p := range progs {
        src := fakeGecode
        if p == _P_uni { src = fakeUni }
        require.NoError(t, os.WriteFile(filepath.Join(ft.dir, p), []byte(src), 0755))
    }

    /* put them in front of everything else */
    t.Setenv("PATH", ft.dir + string(os.PathListSeparator) + os.Getenv("PATH"))
    t.Setenv("UNI_LOG", ft.log)
    t.Setenv("UNI_FAIL", "")
    t.Setenv("UNI_SOLUTION", "")
    return ft
}

func (self *fakeTools) calls(t *testing.T) []string {
    buf, err := os.ReadFile(self.log)
    if os.IsNotExist(err) {
        return nil
    }
    require.NoError(t, err)
    return strings.Split(strings.TrimSpace(string(buf)), "\n")
}

func parseFunc(t *testing.T, src string) *mir.Function {
    m, err := mir.Parse(src, target.Hexagon)
    require.NoError(t, err)
    return m.Functions[0]
}

func newDriver(options ...unisonpass.Option) *Driver {
    return New(target.Hexagon, unisonpass.GetOptions(options...))
}

func TestDriver_Inactive(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    fn := parseFunc(t, strings.Replace(testFunc, "attributes: unison\n", "", 1))
    src := fn.String()
    d := newDriver()
    ok, err := d.RunOnFunction(fn)
    require.NoError(t, err)
    require.False(t, ok)
    require.Equal(t, Idle, d.State())
    require.Equal(t, src, fn.String())
    require.Empty(t, ft.calls(t))
}

func TestDriver_SingleFunction(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    fn := parseFunc(t, testFunc)
    d := newDriver(unisonpass.WithEnabled(true), unisonpass.WithSingleFunction("g"))
    require.False(t, d.Active(fn))
    ok, err := d.RunOnFunction(fn)
    require.NoError(t, err)
    require.False(t, ok)
    require.Empty(t, ft.calls(t))

    /* the filter also enables functions without annotation */
    d = newDriver(unisonpass.WithSingleFunction("f"))
    require.True(t, d.Active(parseFunc(t, strings.Replace(testFunc, "attributes: unison\n", "", 1))))
}

func TestDriver_Pipeline(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    fn := parseFunc(t, testFunc)
    src := fn.String()
    d := newDriver()
    ok, err := d.RunOnFunction(fn)
    require.NoError(t, err)
    require.True(t, ok)
    require.Equal(t, Done, d.State())

    /* the baseline comes back unchanged */
    require.Equal(t, src, fn.String())

    /* every stage ran in order */
    calls := ft.calls(t)
    require.Len(t, calls, 9)
    var tools []string
    for _, c := range calls {
        tools = append(tools, strings.Fields(c)[0])
    }
    require.Equal(t, []string {
        "import", "linearize", "extend", "augment", "normalize", "model", _P_presolver, _P_solver, "export",
    }, tools)

    /* check the arguments */
    imp := strings.Fields(calls[0])
    require.Equal(t, "--target=Hexagon", imp[1])
    require.Equal(t, "-o", imp[3])
    require.Equal(t, []string { "--function=f", "--maxblocksize=25", "--goal=speed" }, imp[5:])
    require.True(t, strings.HasSuffix(imp[2], ".mir"))
    require.Contains(t, calls[5], " +RTS -K20M -RTS")
    require.Contains(t, calls[6], " --timeout 180000 ")
    require.Contains(t, calls[7], " --verbose ")
    require.Contains(t, calls[8], " --solfile=")

    /* every artifact is gone */
    require.NoFileExists(t, imp[2])
    require.NoFileExists(t, imp[4])
}

func TestDriver_Solution(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    sol := filepath.Join(ft.dir, "solution.mir")
    require.NoError(t, os.WriteFile(sol, []byte("--- other\nbb.0:\n  JMPret\n\n--- f\nbb.7:\n  successors: %bb.9\n  %3 = L2_loadri_io $r29, 4\n  J2_jump %bb.9\nbb.9:\n  JMPret\n"), 0644))
    t.Setenv("UNI_SOLUTION", sol)

    /* the body is replaced with the solution */
    fn := parseFunc(t, testFunc)
    ok, err := newDriver().RunOnFunction(fn)
    require.NoError(t, err)
    require.True(t, ok)
    require.Equal(t, "--- f\nattributes: unison\nbb.0:\n  successors: %bb.1\n  %3 = L2_loadri_io $r29, 4\n  J2_jump %bb.1\nbb.1:\n  JMPret", fn.String())
}

func TestDriver_MissingSolution(t *testing.T) {
    var te unisonpass.ToolError
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    sol := filepath.Join(ft.dir, "solution.mir")
    require.NoError(t, os.WriteFile(sol, []byte("--- other\nbb.0:\n  JMPret\n"), 0644))
    t.Setenv("UNI_SOLUTION", sol)
    d := newDriver()
    _, err := d.RunOnFunction(parseFunc(t, testFunc))
    require.ErrorAs(t, err, &te)
    require.Equal(t, opts.StageExport, te.Stage)
    require.Equal(t, Aborted, d.State())
}

func TestDriver_ToolFailure(t *testing.T) {
    var te unisonpass.ToolError
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    t.Setenv("UNI_FAIL", "extend")
    fn := parseFunc(t, testFunc)
    src := fn.String()
    d := newDriver()
    ok, err := d.RunOnFunction(fn)
    require.False(t, ok)
    require.ErrorAs(t, err, &te)
    require.Equal(t, "extend", te.Stage)
    require.Equal(t, _P_uni, te.Tool)
    require.Equal(t, "uni: extend exploded", te.Diag)
    require.Equal(t, "unison: 'uni extend' failed: uni: extend exploded", err.Error())
    require.Equal(t, Aborted, d.State())
    require.Equal(t, src, fn.String())

    /* no further stage ran, and the artifacts are gone */
    calls := ft.calls(t)
    require.Len(t, calls, 3)
    require.NoFileExists(t, strings.Fields(calls[0])[2])
}

func TestDriver_MissingProgram(t *testing.T) {
    var pe unisonpass.PreconditionError
    setupTools(t, _P_uni)
    t.Setenv("PATH", filepath.Dir(os.Getenv("UNI_LOG")))
    d := newDriver()
    _, err := d.RunOnFunction(parseFunc(t, testFunc))
    require.ErrorAs(t, err, &pe)
    require.Equal(t, "unison: Program 'gecode-presolver' not found", err.Error())
    require.Equal(t, Aborted, d.State())
}

func TestDriver_NoTarget(t *testing.T) {
    var pe unisonpass.PreconditionError
    d := New(nil, unisonpass.GetOptions(unisonpass.WithEnabled(true)))
    _, err := d.RunOnFunction(parseFunc(t, testFunc))
    require.ErrorAs(t, err, &pe)
}

func TestDriver_Flags(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    fn := parseFunc(t, testFunc)
    fn.OptSize = true
    d := newDriver(
        unisonpass.WithLint(true),
        unisonpass.WithMaxBlockSize(10),
        unisonpass.WithPresolveTimeout(2),
        unisonpass.WithStageFlags(opts.StageImport, "  -a   -b "),
        unisonpass.WithStageFlags(opts.StageSolver, "--seed 3"),
    )
    _, err := d.RunOnFunction(fn)
    require.NoError(t, err)

    /* check the arguments */
    calls := ft.calls(t)
    require.True(t, strings.HasSuffix(calls[0], " --function=f --maxblocksize=10 --goal=size -a -b --lint"))
    require.True(t, strings.HasSuffix(calls[1], " --lint"))
    require.False(t, strings.HasSuffix(calls[4], " --lint"))
    require.Contains(t, calls[6], " --timeout 2000 ")
    require.Contains(t, calls[7], " --verbose --seed 3 ")
}

func TestDriver_NoClean(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    _, err := newDriver(unisonpass.WithNoClean(true)).RunOnFunction(parseFunc(t, testFunc))
    require.NoError(t, err)

    /* the artifacts are kept */
    for _, c := range ft.calls(t)[:6] {
        fp := strings.Fields(c)[4]
        require.FileExists(t, fp)
        require.NoError(t, os.Remove(fp))
    }
}

func TestDriver_PreMIR(t *testing.T) {
    ft := setupTools(t, _P_uni, _P_presolver, _P_solver)
    pre := filepath.Join(ft.dir, "input.mir")
    require.NoError(t, os.WriteFile(pre, []byte(testFunc), 0644))
    d := newDriver()
    d.PreMIR = pre
    _, err := d.RunOnFunction(parseFunc(t, testFunc))
    require.NoError(t, err)
    require.Equal(t, pre, strings.Fields(ft.calls(t)[0])[2])
    require.FileExists(t, pre)
}

func TestState_String(t *testing.T) {
    require.Equal(t, "idle", Idle.String())
    require.Equal(t, "exporting-final", ExportingFinal.String())
    require.Equal(t, "aborted", Aborted.String())
    require.Equal(t, "(invalid)", State(100).String())
}
