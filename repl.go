package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dovetail/colors"
	"dovetail/driver"
	"dovetail/syntax"

	"github.com/davecgh/go-spew/spew"
	"github.com/peterh/liner"
)

const historyFile = ".dovetail_history"

const replHelp = `Commands:
  fulfills SUB SUP       Report whether SUB fulfills SUP
  nca TYPE...            Nearest common ancestors
  ncd TYPE...            Nearest common descendants
  remap SUB NAME         SUB's parameters remapped onto ancestor NAME
  check PARENT CHILD     Check a prospective link between two connections
  resolve BLOCK [NAME]   Resolve a block's generics (or just NAME)
  bind BLOCK NAME TYPE   Bind a generic to an explicit type
  unbind BLOCK NAME      Remove a binding
  :load PATH             Load a project file (hierarchy + workspace)
  :report                Check every link and print the report
  :types                 List the declared type names
  :dump NAME             Dump a declared type's definition
  :help                  Show this help
  :quit                  Exit`

func repl(projectPath string) error {
	var session *driver.Session

	if projectPath != "" {
		loaded, err := loadSession(projectPath)
		if err != nil {
			return err
		}

		session = loaded
	}

	fmt.Println("dovetail REPL. Type :help for commands, :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt("==> ")
		if err == liner.ErrPromptAborted {
			continue
		} else if err != nil {
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		ln.AppendHistory(line)

		if line == ":quit" {
			return nil
		}

		if err := replEval(&session, line); err != nil {
			fmt.Println(colors.Conflict(err.Error()))
		}
	}
}

func replEval(session **driver.Session, line string) error {
	fields := strings.Fields(line)
	command, args := fields[0], fields[1:]

	switch command {
	case ":help":
		fmt.Println(replHelp)
		return nil

	case ":load":
		if len(args) != 1 {
			return fmt.Errorf("usage: :load PATH")
		}

		loaded, err := loadSession(args[0])
		if err != nil {
			return err
		}

		*session = loaded
		fmt.Printf("loaded %d type(s), %d block(s)\n", len(loaded.Checker.Hierarchy().Names()), len(loaded.Workspace.Blocks()))

		return nil
	}

	if *session == nil {
		return fmt.Errorf("no project loaded; use :load PATH")
	}

	s := *session
	h := s.Checker.Hierarchy()

	switch command {
	case ":types":
		for _, name := range h.Names() {
			fmt.Println(colors.Code(name))
		}

		return nil

	case ":dump":
		if len(args) != 1 {
			return fmt.Errorf("usage: :dump NAME")
		}

		def, err := h.Definition(args[0])
		if err != nil {
			return err
		}

		spew.Dump(def)

		return nil

	case ":report":
		report, err := s.Check()
		if err != nil {
			return err
		}

		var out strings.Builder
		driver.WriteReport(report, &out)
		fmt.Print(out.String())

		return nil

	case "fulfills":
		if len(args) != 2 {
			return fmt.Errorf("usage: fulfills SUB SUP")
		}

		sub, err := parseType(args[0])
		if err != nil {
			return err
		}

		sup, err := parseType(args[1])
		if err != nil {
			return err
		}

		ok, err := h.TypeFulfillsType(sub, sup)
		if err != nil {
			return err
		}

		printVerdict(ok)

		return nil

	case "nca", "ncd":
		types := make([]*syntax.Type, 0, len(args))
		for _, arg := range args {
			ty, err := parseType(arg)
			if err != nil {
				return err
			}

			types = append(types, ty)
		}

		var unified []*syntax.Type
		var err error
		if command == "nca" {
			unified, err = h.NearestCommonAncestors(types...)
		} else {
			unified, err = h.NearestCommonDescendants(types...)
		}
		if err != nil {
			return err
		}

		if len(unified) == 0 {
			fmt.Println(colors.Conflict("(no common type)"))
			return nil
		}

		for _, ty := range unified {
			fmt.Println(colors.Code(ty.String()))
		}

		return nil

	case "remap":
		if len(args) != 2 {
			return fmt.Errorf("usage: remap SUB NAME")
		}

		sub, err := parseType(args[0])
		if err != nil {
			return err
		}

		params, ok, err := h.ParamsForAncestor(sub, args[1])
		if err != nil {
			return err
		}

		if !ok {
			fmt.Println(colors.Conflict("(not an ancestor)"))
			return nil
		}

		remapped := syntax.NewType(args[1], params...)
		fmt.Println(colors.Code(remapped.String()))

		return nil

	case "check":
		if len(args) != 2 {
			return fmt.Errorf("usage: check PARENT CHILD")
		}

		parent, err := s.Workspace.Connection(args[0], true)
		if err != nil {
			return err
		}

		child, err := s.Workspace.Connection(args[1], false)
		if err != nil {
			return err
		}

		ok, err := s.Checker.DoTypeChecks(parent, child)
		if err != nil {
			return err
		}

		printVerdict(ok)

		return nil

	case "resolve":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: resolve BLOCK [NAME]")
		}

		block, ok := s.Workspace.Block(args[0])
		if !ok {
			return fmt.Errorf("no block %q", args[0])
		}

		generics := args[1:]
		if len(generics) == 0 {
			var err error
			generics, err = s.Checker.Generics(block)
			if err != nil {
				return err
			}

			if len(generics) == 0 {
				fmt.Println(colors.Extra("no generics"))
				return nil
			}
		}

		for _, generic := range generics {
			types, err := s.Checker.ExplicitTypes(block, generic)
			if err != nil {
				return err
			}

			rendered := "(unbound)"
			if len(types) > 0 {
				rendered = strings.Join(types, " | ")
			}

			fmt.Printf("%s = %s\n", generic, colors.Code(rendered))
		}

		return nil

	case "bind":
		if len(args) != 3 {
			return fmt.Errorf("usage: bind BLOCK NAME TYPE")
		}

		block, ok := s.Workspace.Block(args[0])
		if !ok {
			return fmt.Errorf("no block %q", args[0])
		}

		return s.Checker.BindType(block, args[1], args[2])

	case "unbind":
		if len(args) != 2 {
			return fmt.Errorf("usage: unbind BLOCK NAME")
		}

		block, ok := s.Workspace.Block(args[0])
		if !ok {
			return fmt.Errorf("no block %q", args[0])
		}

		existed, err := s.Checker.UnbindType(block, args[1])
		if err != nil {
			return err
		}

		if !existed {
			fmt.Println(colors.Extra("was not bound"))
		}

		return nil
	}

	return fmt.Errorf("unknown command %q; type :help", command)
}

func printVerdict(ok bool) {
	if ok {
		fmt.Println(colors.Good("true"))
	} else {
		fmt.Println(colors.Conflict("false"))
	}
}

func parseType(source string) (*syntax.Type, error) {
	ty, perr := syntax.ParseType(source)
	if perr != nil {
		return nil, perr
	}

	return ty, nil
}

func loadSession(path string) (*driver.Session, error) {
	project, err := driver.ReadProject(path)
	if err != nil {
		return nil, err
	}

	return project.Load()
}
