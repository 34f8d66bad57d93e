package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
)

const (
	historyFile = ".sisp_history"
	promptMain  = "sisp> "
	promptCont  = "...   "

	exitInternal = 70
)

var (
	dumpAST     = flag.Bool("ast", false, "print the syntax tree of each input")
	dumpIR      = flag.Bool("ir", false, "print the IR of each input before running it")
	dumpSource  = flag.Bool("fmt", false, "print each input in canonical form")
	historyPath = flag.String("history", "", "REPL history `file` (default $SISP_HISTORY or ~/"+historyFile+")")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sisp: ")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: sisp [flags] [file ...]\n\nWith no files, sisp starts an interactive session.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	s := newSession()
	if *dumpAST {
		s.AST = os.Stdout
	}
	if *dumpSource {
		s.Source = os.Stdout
	}
	if *dumpIR {
		s.IR = os.Stdout
	}
	if flag.NArg() == 0 {
		os.Exit(repl(s))
	}
	for _, name := range flag.Args() {
		src, err := readSource(name)
		if err != nil {
			log.Fatal(err)
		}
		v, err := s.Eval(src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			os.Exit(exitCode(err))
		}
		fmt.Println(formatValue(v))
	}
}

func readSource(name string) (string, error) {
	if name == "-" {
		b, err := ioutil.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := ioutil.ReadFile(name)
	return string(b), err
}

func repl(s *Session) int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	hist := replHistoryPath()
	if f, err := os.Open(hist); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(hist); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		ln.AppendHistory(strings.Replace(src, "\n", " ", -1))

		if strings.HasPrefix(src, ":") {
			switch src {
			case ":quit":
				return 0
			case ":funcs":
				printFuncs(os.Stdout, s.Module())
			default:
				fmt.Println("unknown command; try :funcs or :quit")
			}
			continue
		}

		v, err := s.Eval(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			var ierr *InternalError
			if errors.As(err, &ierr) {
				return exitInternal
			}
			continue
		}
		fmt.Println(formatValue(v))
	}
}

// readInput reads lines until they form a complete program
// (or one that fails for some reason other than running out of input).
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			// ^C discards the input so far
			b.Reset()
			continue
		}
		if err == io.EOF {
			return "", false
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		tokens, err := tokenize(src)
		if err != nil {
			return src, true
		}
		if _, err := parseProgram(tokens); isIncomplete(err) {
			continue
		}
		return src, true
	}
}

func replHistoryPath() string {
	if *historyPath != "" {
		return *historyPath
	}
	if p := os.Getenv("SISP_HISTORY"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}

func printFuncs(w io.Writer, m *Module) {
	for _, f := range m.Funcs() {
		fmt.Fprintf(w, "%s/%d\n", f.Name, f.NumParams())
	}
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func exitCode(err error) int {
	var ierr *InternalError
	if errors.As(err, &ierr) {
		return exitInternal
	}
	return 1
}
