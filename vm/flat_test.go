package vm

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tliron/commonlog"

	"github.com/chazu/bfi/compiler"
)

// traceLogger records Debug messages and drops everything else.
type traceLogger struct {
	commonlog.MockLogger
	lines []string
}

func (l *traceLogger) AllowLevel(level commonlog.Level) bool {
	return level <= commonlog.Debug
}

func (l *traceLogger) Debugf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func quiet() Options {
	return Options{Log: commonlog.MOCK_LOGGER}
}

func runFlat(t *testing.T, src, input string, opts Options) (*FlatInterpreter, string, error) {
	t.Helper()
	fi := NewFlat(compiler.Lex(src), opts)
	var out bytes.Buffer
	err := fi.Run(strings.NewReader(input), &out)
	return fi, out.String(), err
}

func TestFlatOutput(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		want  string
	}{
		{"write three", "+++.", "", "\x03"},
		{"empty", "", "", ""},
		{"comments only", "hello world", "", ""},
		{"echo", ",.,.", "ab", "ab"},
		{"move and write", "+>++>+++<<.>.>.", "", "\x01\x02\x03"},
		{"loop multiply", "++++[>+++<-]>.", "", "\x0c"},
		{"wrap up", "-.", "", "\xff"},
		{"hello", helloWorld, "", "Hello World!\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, got, err := runFlat(t, tc.src, tc.input, quiet())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tc.want {
				t.Errorf("output = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlatLoopIterations(t *testing.T) {
	// [-] from 5 clears the cell in five passes; each pass runs '-' once.
	fi, _, err := runFlat(t, "+++++[-]", "", quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fi.Tape().Get() != 0 {
		t.Errorf("cell = %d, want 0", fi.Tape().Get())
	}
	// 5 '+', then 5 x ('[' '-' ']') and a final '[' that skips.
	if fi.Steps() != 5+5*3+1 {
		t.Errorf("Steps() = %d, want %d", fi.Steps(), 5+5*3+1)
	}

	fi, _, err = runFlat(t, "[-]", "", quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fi.Steps() != 1 {
		t.Errorf("zero-cell loop Steps() = %d, want 1", fi.Steps())
	}
	if fi.IP() != 3 {
		t.Errorf("IP() = %d, want 3", fi.IP())
	}
}

func TestFlatFinalState(t *testing.T) {
	fi, _, err := runFlat(t, "++>+++++<-", "", quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	tape := fi.Tape()
	if tape.At(0) != 1 || tape.At(1) != 5 {
		t.Errorf("cells = [%d %d], want [1 5]", tape.At(0), tape.At(1))
	}
	if tape.Pointer() != 0 {
		t.Errorf("Pointer() = %d, want 0", tape.Pointer())
	}
	if fi.LoopDepth() != 0 {
		t.Errorf("LoopDepth() = %d, want 0", fi.LoopDepth())
	}
}

func TestFlatFaults(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want error
	}{
		{"left of zero", "<", quiet(), ErrPointerOutOfRange},
		{"right of end", ">>>>", Options{TapeSize: 4, Log: commonlog.MOCK_LOGGER}, ErrPointerOutOfRange},
		{"lone close", "]", quiet(), ErrMismatchedLoopStack},
		{"close after loop", "+[-]]", quiet(), ErrMismatchedLoopStack},
		{"skipped unterminated open", "[", quiet(), ErrUnterminatedLoop},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := runFlat(t, tc.src, "", tc.opts)
			if !errors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFlatUnterminatedOpenWithNonZeroCell(t *testing.T) {
	// Entering the loop pushes a return position that is never popped; the
	// program simply runs off the end.
	fi, _, err := runFlat(t, "+[-", "", quiet())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fi.LoopDepth() != 1 {
		t.Errorf("LoopDepth() = %d, want 1", fi.LoopDepth())
	}
}

func TestFlatFaultKeepsOutput(t *testing.T) {
	_, got, err := runFlat(t, "+.<", "", quiet())
	if !errors.Is(err, ErrPointerOutOfRange) {
		t.Fatalf("error = %v, want ErrPointerOutOfRange", err)
	}
	if got != "\x01" {
		t.Errorf("output = %q, want output written before the fault", got)
	}
}

func TestFlatEOFPolicy(t *testing.T) {
	tests := []struct {
		eof  EOFPolicy
		want byte
	}{
		{EOFZero, 0},
		{EOFUnchanged, 7},
	}

	for _, tc := range tests {
		t.Run(tc.eof.String(), func(t *testing.T) {
			fi, _, err := runFlat(t, "+++++++,", "", Options{EOF: tc.eof, Log: commonlog.MOCK_LOGGER})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if fi.Tape().Get() != tc.want {
				t.Errorf("cell = %d, want %d", fi.Tape().Get(), tc.want)
			}
		})
	}
}

type failingIO struct{ err error }

func (f failingIO) Read([]byte) (int, error)  { return 0, f.err }
func (f failingIO) Write([]byte) (int, error) { return 0, f.err }

func TestFlatIOErrors(t *testing.T) {
	boom := errors.New("boom")

	err := NewFlat(compiler.Lex(","), quiet()).Run(failingIO{boom}, &bytes.Buffer{})
	if !errors.Is(err, boom) {
		t.Errorf("read error = %v, want wrapped boom", err)
	}

	err = NewFlat(compiler.Lex("."), quiet()).Run(strings.NewReader(""), failingIO{boom})
	if !errors.Is(err, boom) {
		t.Errorf("write error = %v, want wrapped boom", err)
	}
}

func TestFlatTrace(t *testing.T) {
	log := &traceLogger{}
	fi := NewFlat(compiler.Lex("+>."), Options{Log: log})
	if err := fi.Run(strings.NewReader(""), &bytes.Buffer{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"Increment value at 0 to 1.",
		"Increment data pointer to 1.",
		"Output character '\\x00'.",
	}
	if len(log.lines) != len(want) {
		t.Fatalf("trace = %q, want %q", log.lines, want)
	}
	for i := range want {
		if log.lines[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, log.lines[i], want[i])
		}
	}
}

const helloWorld = `++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.`
