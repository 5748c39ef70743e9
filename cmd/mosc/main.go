// Command mosc is the interpreter's entry point: run a source file,
// drop into an interactive REPL, or inspect the bytecode a file
// compiles to. It wires internal/vm, internal/corelib,
// internal/compiler and internal/bytecode together the way an
// embedding host is expected to (SPEC_FULL §6), using cobra for
// subcommand parsing the way the wider pack's CLIs do it, in place of
// the teacher's hand-rolled os.Args switch.
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mosclang/mosc/internal/bytecode"
	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/corelib"
	"github.com/mosclang/mosc/internal/moserr"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

const version = "0.1.0"

// quiet suppresses the REPL banner and prompts even when stdin is a
// terminal; set via the root command's persistent flag set.
var quiet bool

func main() {
	root := &cobra.Command{
		Use:     "mosc",
		Short:   "mosc is an interpreter for the djuru language",
		Version: version,
	}

	var flags *pflag.FlagSet = root.PersistentFlags()
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress REPL banner and prompts")

	root.AddCommand(runCmd(), replCmd(), compileCmd(), disasmCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newMachine builds a freshly bootstrapped VM plus the compiler World
// sharing its method-symbol table (§4.7: the core library must finish
// binding before anything is compiled, since the compiler's
// forward-reference resolution and every CALL opcode assume the
// symbol table already carries the core signatures).
func newMachine() (*vm.VM, *compiler.World) {
	arena := value.NewArena()
	world := compiler.NewWorld(arena)

	cfg := vm.Config{
		WriteFn: func(_ *vm.VM, text string) {
			fmt.Print(text)
		},
		ErrorHandler: func(_ *vm.VM, kind moserr.Result, module string, line int, message string) {
			fmt.Fprintf(os.Stderr, "%s: %s:%d: %s\n", kind, module, line, message)
		},
		InitModule: corelib.InjectCoreNames,
	}

	vmachine := vm.New(arena, cfg)
	vmachine.Syms = world.Syms
	corelib.Bootstrap(vmachine)
	return vmachine, world
}

// runModule compiles source as moduleName's top-level script and
// interprets it to completion, reporting compile and runtime errors
// on stderr. mod is expected to already carry the core class names
// (InjectCoreNames), since only imports go through the VM's
// InitModule hook automatically.
func runModule(vmachine *vm.VM, world *compiler.World, mod *value.Module, moduleName, source string) bool {
	fn, errs := compiler.CompileModule(world, mod, moduleName, source)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e.Error())
		}
		return false
	}

	closure := vmachine.Arena.NewClosure(fn, vmachine.Core.FnClass)
	fiber := vmachine.NewFiberForClosure(closure)
	if _, rerr := vmachine.Interpret(fiber); rerr != nil {
		fmt.Fprintln(os.Stderr, rerr.Error())
		for _, f := range rerr.Frames {
			fmt.Fprintf(os.Stderr, "  at %s\n", f)
		}
		return false
	}
	return true
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "Run a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			vmachine, world := newMachine()
			mod := value.NewModule(path)
			corelib.InjectCoreNames(vmachine, mod)
			vmachine.Modules[path] = mod

			if !runModule(vmachine, world, mod, path, string(data)) {
				os.Exit(1)
			}
			return nil
		},
	}
}

func compileCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a source file and write its disassembly to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			vmachine, world := newMachine()
			mod := value.NewModule(path)
			corelib.InjectCoreNames(vmachine, mod)

			fn, errs := compiler.CompileModule(world, mod, path, string(data))
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				os.Exit(1)
			}

			if outPath == "" {
				outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".dis"
			}
			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			defer out.Close()

			bytecode.Disassemble(out, path, fn.Code.(*bytecode.Chunk))
			fmt.Printf("Compiled %s -> %s\n", path, outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "disassembly output path (default: <input>.dis)")
	return cmd
}

func disasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <file>",
		Short: "Compile a source file and print its disassembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			vmachine, world := newMachine()
			mod := value.NewModule(path)
			corelib.InjectCoreNames(vmachine, mod)

			fn, errs := compiler.CompileModule(world, mod, path, string(data))
			if len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintln(os.Stderr, e.Error())
				}
				os.Exit(1)
			}

			bytecode.Disassemble(os.Stdout, path, fn.Code.(*bytecode.Chunk))
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			runREPL()
			return nil
		},
	}
}

// runREPL keeps one VM, one compiler World and one module alive for
// the whole session, so variables and classes declared in one input
// remain visible to the next (mirroring the teacher's persistent-VM,
// persistent-compiler REPL). Statements here are newline/semicolon
// terminated rather than period terminated, so input is buffered
// across lines by brace depth instead: a line is submitted once every
// `{` it opened has been closed.
func runREPL() {
	interactive := isatty.IsTerminal(os.Stdin.Fd()) && !quiet
	if interactive {
		fmt.Printf("mosc REPL v%s\n", version)
		fmt.Println("Type ':help' for help, ':quit' or ':exit' to leave")
	}

	vmachine, world := newMachine()
	mod := value.NewModule("repl")
	corelib.InjectCoreNames(vmachine, mod)

	scanner := bufio.NewScanner(os.Stdin)
	var buf strings.Builder
	depth := 0
	line := 0

	for {
		if interactive {
			if buf.Len() == 0 {
				fmt.Print("mosc> ")
			} else {
				fmt.Print("....> ")
			}
		}

		if !scanner.Scan() {
			break
		}
		text := scanner.Text()

		if buf.Len() == 0 {
			switch strings.TrimSpace(text) {
			case ":quit", ":exit":
				return
			case ":help":
				printREPLHelp()
				continue
			case "":
				continue
			}
		}

		buf.WriteString(text)
		buf.WriteString("\n")
		depth += strings.Count(text, "{") - strings.Count(text, "}")
		if depth > 0 {
			continue
		}

		line++
		runModule(vmachine, world, mod, fmt.Sprintf("repl:%d", line), buf.String())
		buf.Reset()
		depth = 0
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "error reading input: %v\n", err)
	}
}

func printREPLHelp() {
	fmt.Println("Commands:")
	fmt.Println("  :help     show this message")
	fmt.Println("  :quit     leave the REPL")
	fmt.Println("  :exit     leave the REPL")
	fmt.Println()
	fmt.Println("Each line is a statement unless it opens a '{' block, in which")
	fmt.Println("case input is read until the block closes. Variables declared in")
	fmt.Println("one input remain visible to the next.")
}
