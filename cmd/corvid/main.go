package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"corvid/pkg/driver"
	"corvid/pkg/source"
	"corvid/pkg/vm"
)

const version = "corvid 1.0"

func main() {
	exprFlag := flag.String("e", "", "evaluate the given expression and exit")
	fileFlag := flag.String("f", "", "execute the given script file")
	interactiveFlag := flag.Bool("i", false, "enter interactive mode after scripts")
	compatFlag := flag.String("c", "", "set compatibility flags (e.g. \"ext1 no_sgml_comments\")")
	recurseFlag := flag.Int("r", 0, "set the recursion limit")
	versionFlag := flag.Bool("V", false, "print the version and exit")
	bytecodeFlag := flag.Bool("g", false, "execute with the bytecode back-end")
	debugFlag := flag.Bool("d", false, "enable diagnostics")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version)
		return
	}

	session := driver.New()
	if *compatFlag != "" {
		if err := session.SetCompat(*compatFlag); err != nil {
			fmt.Fprintf(os.Stderr, "corvid: %s\n", err)
			os.Exit(1)
		}
	}
	if *recurseFlag > 0 {
		session.SetMaxRecurse(*recurseFlag)
	}
	session.SetBytecode(*bytecodeFlag)
	installShellGlobals(session)

	ok := true
	ran := false

	if *exprFlag != "" {
		sf := source.Eval(*exprFlag)
		v, err := session.RunSource(sf)
		ok = session.DisplayResult(sf, v, err) && ok
		ran = true
	}
	if *fileFlag != "" {
		v, sf, err := session.RunFile(*fileFlag)
		ok = session.DisplayResult(sf, v, err) && ok
		ran = true
	}
	for _, path := range flag.Args() {
		v, sf, err := session.RunFile(path)
		ok = session.DisplayResult(sf, v, err) && ok
		ran = true
	}

	if *interactiveFlag || !ran {
		repl(session, *debugFlag)
		return
	}
	if !ok {
		os.Exit(1)
	}
}

// installShellGlobals adds the host functions scripts run in the shell
// expect.
func installShellGlobals(session *driver.Corvid) {
	session.DefineFunc("print", 1, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		for idx, a := range args {
			if idx > 0 {
				fmt.Print(" ")
			}
			fmt.Print(i.ToString(a).String())
		}
		fmt.Println()
		return vm.Undefined
	})
	session.DefineFunc("version", 0, func(i *vm.Interpreter, _ vm.Object, args []vm.Value) vm.Value {
		return vm.StringValue(vm.NewStringFromGo(i, version))
	})
}

func repl(session *driver.Corvid, debug bool) {
	fmt.Println(version)
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			sf := source.Repl(line)
			v, err := session.RunSource(sf)
			session.DisplayResult(sf, v, err)
			if debug {
				fmt.Printf("// completion type: %s\n", v.Type)
			}
		}
		fmt.Print("> ")
	}
	fmt.Println()
}
