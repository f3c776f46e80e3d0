package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/binfmt"
	"github.com/OpenTraceLab/OpenTraceAltium/pkg/altium/cfb"
	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var exploreCommands []string

var exploreCmd = &cobra.Command{
	Use:   "explore <file>",
	Short: "Browse the storages and streams of a file",
	Long: `Explore opens an interactive shell over the compound file tree.

Commands:
  ls               - List storages and streams
  cd <storage>     - Enter a storage ("..", "/" go up)
  pwd              - Print the current storage path
  cat <stream>     - Hex dump a stream
  records <stream> - Print the blocks of a stream as parameter lines
  exit             - Leave the shell

With -c the given commands are run without a prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringArrayVarP(&exploreCommands, "command", "c", nil, "run a command and exit (repeatable)")
}

func runExplore(cmd *cobra.Command, args []string) error {
	root, err := cfb.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	e := &explorer{root: root, out: os.Stdout}

	if len(exploreCommands) > 0 {
		for _, line := range exploreCommands {
			if e.exec(line) {
				break
			}
		}
		return nil
	}

	fmt.Printf("%s (%s). Type help for commands.\n", args[0], altium.DetectKind(root))
	for {
		line := prompt.Input(e.prefix(), e.complete)
		if e.exec(line) {
			return nil
		}
	}
}

// explorer is the state of an explore session.
type explorer struct {
	root *cfb.Storage
	path []string
	out  io.Writer
}

func (e *explorer) cwd() *cfb.Storage {
	s, _ := e.root.TryGetStorage(strings.Join(e.path, "/"))
	return s
}

func (e *explorer) prefix() string {
	return "/" + strings.Join(e.path, "/") + "> "
}

var exploreVerbs = []prompt.Suggest{
	{Text: "ls", Description: "List storages and streams"},
	{Text: "cd", Description: "Enter a storage"},
	{Text: "pwd", Description: "Print the current path"},
	{Text: "cat", Description: "Hex dump a stream"},
	{Text: "records", Description: "Print stream blocks as parameter lines"},
	{Text: "exit", Description: "Leave the shell"},
}

func (e *explorer) complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	if !strings.Contains(before, " ") {
		return prompt.FilterHasPrefix(exploreVerbs, d.GetWordBeforeCursor(), true)
	}
	verb := strings.Fields(before)[0]
	var suggestions []prompt.Suggest
	dir := e.cwd()
	if verb == "cd" {
		for _, s := range dir.Storages() {
			suggestions = append(suggestions, prompt.Suggest{Text: s.Name(), Description: "storage"})
		}
	} else {
		for _, st := range dir.Streams() {
			suggestions = append(suggestions, prompt.Suggest{Text: st.Name(), Description: fmt.Sprintf("%d bytes", st.Size())})
		}
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

// exec runs one command line and reports whether the session should end.
func (e *explorer) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch fields[0] {
	case "exit", "quit":
		return true
	case "help":
		for _, v := range exploreVerbs {
			fmt.Fprintf(e.out, "  %-8s %s\n", v.Text, v.Description)
		}
	case "pwd":
		fmt.Fprintln(e.out, "/"+strings.Join(e.path, "/"))
	case "ls":
		dir := e.cwd()
		for _, s := range dir.Storages() {
			fmt.Fprintf(e.out, "  %s/\n", s.Name())
		}
		for _, st := range dir.Streams() {
			fmt.Fprintf(e.out, "  %-32s %8d\n", st.Name(), st.Size())
		}
	case "cd":
		e.cd(arg)
	case "cat":
		if st := e.stream(arg); st != nil {
			fmt.Fprint(e.out, hex.Dump(st.Data()))
		}
	case "records":
		if st := e.stream(arg); st != nil {
			e.records(st)
		}
	default:
		fmt.Fprintf(e.out, "unknown command %q\n", fields[0])
	}
	return false
}

func (e *explorer) cd(arg string) {
	switch arg {
	case "", "/":
		e.path = nil
		return
	case "..":
		if len(e.path) > 0 {
			e.path = e.path[:len(e.path)-1]
		}
		return
	}
	s := e.cwd().Storage(arg)
	if s == nil {
		fmt.Fprintf(e.out, "no storage %q\n", arg)
		return
	}
	e.path = append(e.path, s.Name())
}

func (e *explorer) stream(name string) *cfb.Stream {
	st := e.cwd().Stream(name)
	if st == nil {
		fmt.Fprintf(e.out, "no stream %q\n", name)
	}
	return st
}

func (e *explorer) records(st *cfb.Stream) {
	blocks, ok := altium.SplitBlocks(st.Data())
	if !ok {
		fmt.Fprintf(e.out, "%s is not a record stream\n", st.Name())
		return
	}
	for i, b := range blocks {
		cs := binfmt.ParseCString(b)
		if strings.HasPrefix(cs.Text, "|") {
			fmt.Fprintf(e.out, "[%d] %s\n", i, cs.Text)
		} else {
			fmt.Fprintf(e.out, "[%d] %d bytes binary\n", i, len(b))
		}
	}
}
