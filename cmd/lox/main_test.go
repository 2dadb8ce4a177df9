package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// runCLI runs the front end with a private lox.toml so the upward search
// never picks up a real project file.
func runCLI(t *testing.T, config, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lox.toml")
	if err := os.WriteFile(path, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	code = run(append([]string{"-config", path}, args...), strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func writeSource(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// File mode
// ---------------------------------------------------------------------------

func TestRunFile(t *testing.T) {
	tests := []struct {
		name       string
		source     string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"value", "1 + 2", exitOK, "3\n", ""},
		{"compile error", "1 +", exitDataErr, "", "[line 1] Error at end: Expect expression.\n"},
		{"runtime error", "-nil", exitSoftware, "", "Operand must be a number.\n[line 1] in script\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSource(t, "prog.lox", tt.source)
			code, stdout, stderr := runCLI(t, "", "", path)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if stdout != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.wantStdout)
			}
			if stderr != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunFile_Missing(t *testing.T) {
	code, _, stderr := runCLI(t, "", "", filepath.Join(t.TempDir(), "nope.lox"))
	if code != exitIOErr {
		t.Errorf("exit code = %d, want %d", code, exitIOErr)
	}
	if !strings.Contains(stderr, "Could not read file") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"a.lox", "b.lox"},
		{"-nosuchflag"},
		{"build"},
		{"run"},
		{"disasm", "a", "b"},
		{"lsp", "extra"},
	} {
		code, _, _ := runCLI(t, "", "", args...)
		if code != exitUsage {
			t.Errorf("%v: exit code = %d, want %d", args, code, exitUsage)
		}
	}
}

func TestFileNamedLikeCommand(t *testing.T) {
	// Written with a directory, a file called "run" is a program, not the
	// run command.
	path := writeSource(t, "run", "1 + 1")
	code, stdout, stderr := runCLI(t, "", "", path)
	if code != exitOK || stdout != "2\n" {
		t.Errorf("code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}
}

func TestHelp(t *testing.T) {
	code, _, stderr := runCLI(t, "", "", "-h")
	if code != exitOK {
		t.Errorf("exit code = %d, want 0", code)
	}
	for _, want := range []string{"Usage: lox [path]", "lox ./build"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("usage missing %q:\n%s", want, stderr)
		}
	}
}

func TestBadConfig(t *testing.T) {
	code, _, stderr := runCLI(t, "[run]\nbogus = 1\n", "", "x.lox")
	if code != exitIOErr {
		t.Errorf("exit code = %d, want %d", code, exitIOErr)
	}
	if !strings.Contains(stderr, "Error loading config") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestDisasmFromConfig(t *testing.T) {
	path := writeSource(t, "prog.lox", "!true")
	code, stdout, _ := runCLI(t, "[run]\ndisassemble = true\n", "", path)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"== " + path + " ==", "OP_TRUE", "OP_NOT", "false\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestTraceFlag(t *testing.T) {
	path := writeSource(t, "prog.lox", "1 + 2")
	code, stdout, stderr := runCLI(t, "", "", "-trace", path)
	if code != exitOK || stdout != "3\n" {
		t.Fatalf("code = %d, stdout = %q", code, stdout)
	}
	if !strings.Contains(stderr, "OP_ADD") {
		t.Errorf("trace missing from stderr:\n%s", stderr)
	}
}

// ---------------------------------------------------------------------------
// build / run / disasm
// ---------------------------------------------------------------------------

func TestBuildAndRunImage(t *testing.T) {
	src := writeSource(t, "calc.lox", "(1 + 2) * 3 == 9")

	code, _, stderr := runCLI(t, "", "", "build", src)
	if code != exitOK {
		t.Fatalf("build exit code = %d: %s", code, stderr)
	}
	image := strings.TrimSuffix(src, ".lox") + ".loxc"
	if _, err := os.Stat(image); err != nil {
		t.Fatalf("image not written: %v", err)
	}

	code, stdout, stderr := runCLI(t, "", "", "run", image)
	if code != exitOK {
		t.Fatalf("run exit code = %d: %s", code, stderr)
	}
	if stdout != "true\n" {
		t.Errorf("stdout = %q, want true", stdout)
	}
}

func TestBuildOutputFlag(t *testing.T) {
	src := writeSource(t, "a.lox", "nil")
	out := filepath.Join(t.TempDir(), "custom.loxc")

	if code, _, stderr := runCLI(t, "", "", "build", "-o", out, src); code != exitOK {
		t.Fatalf("build exit code = %d: %s", code, stderr)
	}
	code, stdout, _ := runCLI(t, "", "", "run", out)
	if code != exitOK || stdout != "nil\n" {
		t.Errorf("run: code = %d, stdout = %q", code, stdout)
	}
}

func TestBuildOutputFlagAfterSource(t *testing.T) {
	src := writeSource(t, "b.lox", "2 * 21")
	out := filepath.Join(t.TempDir(), "after.loxc")

	code, _, stderr := runCLI(t, "", "", "build", src, "-o", out)
	if code != exitOK {
		t.Fatalf("build exit code = %d: %s", code, stderr)
	}
	code, stdout, _ := runCLI(t, "", "", "run", out)
	if code != exitOK || stdout != "42\n" {
		t.Errorf("run: code = %d, stdout = %q", code, stdout)
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		args    []string
		wantPos []string
		wantOut string
	}{
		{[]string{"a.lox"}, []string{"a.lox"}, ""},
		{[]string{"-o", "x", "a.lox"}, []string{"a.lox"}, "x"},
		{[]string{"a.lox", "-o", "x"}, []string{"a.lox"}, "x"},
		{[]string{"a.lox", "-o", "x", "b.lox"}, []string{"a.lox", "b.lox"}, "x"},
		{[]string{"a.lox", "--", "-o", "x"}, []string{"a.lox", "-o", "x"}, ""},
	}
	for _, tt := range tests {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		out := fs.String("o", "", "")
		pos, err := parseInterspersed(fs, tt.args)
		if err != nil {
			t.Errorf("%v: %v", tt.args, err)
			continue
		}
		if diff := cmp.Diff(tt.wantPos, pos); diff != "" {
			t.Errorf("%v: positional mismatch (-want +got):\n%s", tt.args, diff)
		}
		if *out != tt.wantOut {
			t.Errorf("%v: -o = %q, want %q", tt.args, *out, tt.wantOut)
		}
	}
}

func TestBuildCompileError(t *testing.T) {
	src := writeSource(t, "bad.lox", "(1")
	code, _, stderr := runCLI(t, "", "", "build", src)
	if code != exitDataErr {
		t.Errorf("exit code = %d, want %d", code, exitDataErr)
	}
	if !strings.Contains(stderr, "Expect ')' after expression.") {
		t.Errorf("stderr = %q", stderr)
	}
	if _, err := os.Stat(strings.TrimSuffix(src, ".lox") + ".loxc"); err == nil {
		t.Error("image written despite compile error")
	}
}

func TestRunInvalidImage(t *testing.T) {
	image := writeSource(t, "junk.loxc", "not an image")
	code, _, stderr := runCLI(t, "", "", "run", image)
	if code != exitDataErr {
		t.Errorf("exit code = %d, want %d", code, exitDataErr)
	}
	if !strings.Contains(stderr, "Invalid image") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunImageRuntimeError(t *testing.T) {
	src := writeSource(t, "fault.lox", "1 +\ntrue")
	if code, _, stderr := runCLI(t, "", "", "build", src); code != exitOK {
		t.Fatalf("build exit code = %d: %s", code, stderr)
	}
	code, _, stderr := runCLI(t, "", "", "run", strings.TrimSuffix(src, ".lox")+".loxc")
	if code != exitSoftware {
		t.Errorf("exit code = %d, want %d", code, exitSoftware)
	}
	if stderr != "Operands must be numbers.\n[line 1] in script\n" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestDisassembleCommand(t *testing.T) {
	src := writeSource(t, "sum.lox", "1 + 2")
	want := strings.Join([]string{
		"== sum.lox ==",
		"0000    1 OP_CONSTANT         0 '1'",
		"0001    | OP_CONSTANT         1 '2'",
		"0002    | OP_ADD",
		"0003    | OP_RETURN",
		"",
	}, "\n")

	code, stdout, _ := runCLI(t, "", "", "disasm", src)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != want {
		t.Errorf("listing = %q, want %q", stdout, want)
	}

	// An image disassembles to the same instructions.
	if code, _, _ := runCLI(t, "", "", "build", src); code != exitOK {
		t.Fatal("build failed")
	}
	image := strings.TrimSuffix(src, ".lox") + ".loxc"
	_, stdout, _ = runCLI(t, "", "", "disasm", image)
	if got := strings.Replace(stdout, "sum.loxc", "sum.lox", 1); got != want {
		t.Errorf("image listing = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// REPL
// ---------------------------------------------------------------------------

func TestREPL(t *testing.T) {
	input := strings.Join([]string{
		"1 + 2",
		"",
		"1 +",    // compile error, session continues
		"-false", // runtime error, session continues
		"!nil",
	}, "\n")

	code, stdout, stderr := runCLI(t, "", input)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "3\ntrue\n" {
		t.Errorf("stdout = %q, want %q", stdout, "3\ntrue\n")
	}
	for _, want := range []string{
		"[line 1] Error at end: Expect expression.",
		"Operand must be a number.",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestREPLCommands(t *testing.T) {
	input := strings.Join([]string{
		":disasm",
		"nil",
		":disasm",
		":trace",
		"1",
		":bogus",
		":quit",
		"2", // never evaluated
	}, "\n")

	code, stdout, stderr := runCLI(t, "", input)
	if code != exitOK {
		t.Fatalf("exit code = %d", code)
	}
	for _, want := range []string{"disassembly on", "OP_NIL", "disassembly off", "trace on", "1\n"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "2\n") {
		t.Errorf("input after :quit was evaluated:\n%s", stdout)
	}
	if !strings.Contains(stderr, "OP_CONSTANT") {
		t.Errorf("trace missing from stderr:\n%s", stderr)
	}
	if !strings.Contains(stderr, "Unknown command :bogus") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestREPLHistory(t *testing.T) {
	input := "1 + 1\n2 * 3\n:history\n"

	t.Run("in memory", func(t *testing.T) {
		_, stdout, _ := runCLI(t, "", input)
		for _, want := range []string{"   1  1 + 1", "   2  2 * 3"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("stdout missing %q:\n%s", want, stdout)
			}
		}
	})

	t.Run("journal", func(t *testing.T) {
		_, stdout, stderr := runCLI(t, "[journal]\npath = \":memory:\"\n", input+"-nil\n:history\n")
		if strings.Contains(stderr, "journal disabled") {
			t.Fatalf("journal not opened: %s", stderr)
		}
		for _, want := range []string{"1 + 1", "6", "runtime error"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("stdout missing %q:\n%s", want, stdout)
			}
		}
		if n := strings.Count(stdout, "1 + 1"); n != 2 {
			t.Errorf("1 + 1 listed %d times, want once per :history:\n%s", n, stdout)
		}
	})
}
