// bfi runs tape-language programs with a flat or tree interpreter.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/tebeka/atexit"
	"github.com/tliron/commonlog"

	"github.com/chazu/bfi/cache"
	"github.com/chazu/bfi/compiler"
	"github.com/chazu/bfi/manifest"
	"github.com/chazu/bfi/server"
	"github.com/chazu/bfi/vm"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.3.0"

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	stdout := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { stdout.Flush() })

	in := &flushingReader{r: os.Stdin, w: stdout}
	atexit.Exit(run(os.Args, in, stdout, os.Stderr))
}

// flushingReader flushes pending program output before every read, so a
// prompt is visible before the program blocks on stdin.
type flushingReader struct {
	r io.Reader
	w *bufio.Writer
}

func (f *flushingReader) Read(p []byte) (int, error) {
	if err := f.w.Flush(); err != nil {
		return 0, err
	}
	return f.r.Read(p)
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	debug    bool
	native   bool
	dump     bool
	help     bool
	version  bool
	config   string
	tapeSize int
}

var longOptions = map[string]string{
	"--debug":     "-d",
	"--native":    "-n",
	"--dump":      "-D",
	"--help":      "-h",
	"--version":   "-v",
	"--config":    "-c",
	"--tape-size": "-t",
}

// expandLongOptions rewrites GNU-style long options to their short forms so
// getopt can parse them. "--config=x" becomes "-c", "x".
func expandLongOptions(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" && i > 0 {
			return append(out, args[i:]...)
		}
		if i == 0 || !strings.HasPrefix(arg, "--") {
			out = append(out, arg)
			continue
		}
		name, value, hasValue := strings.Cut(arg, "=")
		short, ok := longOptions[name]
		if !ok {
			out = append(out, arg)
			continue
		}
		out = append(out, short)
		if hasValue {
			out = append(out, value)
		}
	}
	return out
}

const optString = "dnDhvc:t:"

// takesValue reports whether the short option c consumes an argument.
func takesValue(c byte) bool {
	i := strings.IndexByte(optString, c)
	return i >= 0 && i+1 < len(optString) && optString[i+1] == ':'
}

// hoistOptions moves options that follow file names in front of them, so
// "bfi prog.bf -n" works like "bfi -n prog.bf". Everything after "--" is
// left as files.
func hoistOptions(args []string) []string {
	if len(args) == 0 {
		return args
	}
	opts := []string{args[0]}
	var files, rest []string
	for i := 1; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = args[i:]
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			files = append(files, arg)
			continue
		}
		opts = append(opts, arg)
		for j := 1; j < len(arg); j++ {
			if takesValue(arg[j]) {
				if j == len(arg)-1 && i+1 < len(args) {
					i++
					opts = append(opts, args[i])
				}
				break
			}
		}
	}
	if rest != nil {
		opts = append(opts, "--")
		files = append(files, rest[1:]...)
	}
	return append(opts, files...)
}

func parseFlags(args []string) (*cliFlags, []string, error) {
	args = hoistOptions(expandLongOptions(args))
	opts, optind, err := getopt.Getopts(args, optString)
	if err != nil {
		return nil, nil, err
	}

	f := &cliFlags{}
	for _, opt := range opts {
		switch opt.Option {
		case 'd':
			f.debug = true
		case 'n':
			f.native = true
		case 'D':
			f.dump = true
		case 'h':
			f.help = true
		case 'v':
			f.version = true
		case 'c':
			f.config = opt.Value
		case 't':
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n < 1 || n > vm.MaxTapeCells {
				return nil, nil, fmt.Errorf("invalid -t parameter %q: want a cell count in 1..%d", opt.Value, vm.MaxTapeCells)
			}
			f.tapeSize = n
		}
	}
	return f, args[optind:], nil
}

// run is main without the process exit, returning the exit status.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	errColor := errorColor(stderr)

	if len(args) > 1 && args[1] == "lsp" {
		return runLSP(stderr)
	}

	flags, files, err := parseFlags(args)
	if err != nil {
		errColor.Fprintf(stderr, "bfi: %v\n", err)
		fmt.Fprint(stderr, helpText)
		return exitUsage
	}

	if flags.version {
		fmt.Fprintf(stderr, "bfi interpreter: version %s\n", version)
		return exitOK
	}
	if flags.help || len(files) == 0 {
		fmt.Fprint(stderr, helpText)
		return exitOK
	}

	m, err := loadManifest(flags.config)
	if err != nil {
		errColor.Fprintf(stderr, "bfi: %v\n", err)
		return exitFailed
	}

	verbosity := m.Log.Verbosity
	if flags.debug {
		verbosity = 2
	}
	commonlog.Configure(verbosity, m.LogPath())
	log := commonlog.GetLogger("bfi")

	mode := m.EngineMode()
	if flags.native {
		mode = compiler.ModeTree
	}
	opts := m.VMOptions(mode)
	if flags.tapeSize > 0 {
		opts.TapeSize = flags.tapeSize
	}

	var store *cache.Store
	if m.Cache.Enabled {
		store, err = cache.Open(m.CachePath())
		if err != nil {
			log.Warningf("cache disabled: %v", err)
		} else {
			defer store.Close()
		}
	}

	status := exitOK
	for _, file := range files {
		if err := runFile(file, mode, opts, store, flags.dump, stdin, stdout); err != nil {
			errColor.Fprintf(stderr, "%v\n", err)
			status = exitFailed
		}
	}
	return status
}

// errorColor returns the style for error lines written to w. It colours
// only when w is a terminal and NO_COLOR is unset.
func errorColor(w io.Writer) *color.Color {
	c := color.New(color.FgRed, color.Bold)
	f, ok := w.(*os.File)
	if ok && os.Getenv("NO_COLOR") == "" && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func loadManifest(path string) (*manifest.Manifest, error) {
	if path != "" {
		return manifest.LoadFile(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// runFile compiles and runs (or dumps) one source file. Errors carry the
// file name and are meant for direct display.
func runFile(file string, mode compiler.Mode, opts vm.Options, store *cache.Store, dump bool, stdin io.Reader, stdout io.Writer) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to open file '%s': %v", file, err)
	}

	p, err := cache.Compile(store, string(data), mode)
	if err != nil {
		var pe *compiler.ParseError
		if errors.As(err, &pe) {
			if pos, ok := pe.SourcePosition(compiler.Tokenize(string(data))); ok {
				return fmt.Errorf("invalid program '%s':\n%s:%s: %v", file, file, pos, pe.Kind)
			}
		}
		return fmt.Errorf("invalid program '%s':\n%v", file, err)
	}

	if dump {
		_, err := io.WriteString(stdout, compiler.DisassembleWithName(p, file))
		return err
	}

	if err := vm.Run(p, stdin, stdout, opts); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

func runLSP(stderr io.Writer) int {
	commonlog.Configure(0, nil)
	if err := server.NewLSP(version).Run(); err != nil {
		fmt.Fprintf(stderr, "bfi lsp: %v\n", err)
		return exitFailed
	}
	return exitOK
}

const helpText = `SYNOPSIS
  bfi [-dnD] [-c config] [-t cells] file1.bf [file2.bf ...]
  bfi lsp
  bfi -h
  bfi -v

OPTIONS
  -d --debug
      Log a debug message for every command executed.
  -n --native
      Parse into the loop tree and run it with the tree interpreter.
  -D --dump
      Print the compiled program listing instead of running it.
  -c --config path
      Read configuration from path instead of the nearest bfi.toml.
  -t --tape-size cells
      Override the tape size for the selected engine.
  -h --help
      Print this help message and exit.
  -v --version
      Show the version information.

COMMANDS
  lsp
      Run the language server on stdio.
`
