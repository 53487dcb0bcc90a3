package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"dovetail/colors"
	"dovetail/driver"
	"dovetail/server"
	"dovetail/syntax"
	"dovetail/workspace"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
)

type Context struct{}

type CheckCmd struct {
	Json    bool     `help:"Emit each report as JSON instead of a rendered report."`
	Pair    []string `help:"Prospective links to check without connecting, as PARENT=CHILD."`
	Paths   []string `arg:"" name:"path" type:"path" help:"Project files or directories of project files."`
	Profile string   `type:"path"`
}

func (cmd *CheckCmd) Run(ctx *Context) error {
	if cmd.Profile != "" {
		cpu, err := os.Create(filepath.Join(cmd.Profile, "cpu.pprof"))
		if err != nil {
			panic(err)
		}

		err = pprof.StartCPUProfile(cpu)
		if err != nil {
			panic(err)
		}

		defer pprof.StopCPUProfile()

		mem, err := os.Create(filepath.Join(cmd.Profile, "mem.pprof"))
		if err != nil {
			panic(err)
		}

		defer func() {
			err := pprof.WriteHeapProfile(mem)
			if err != nil {
				panic(err)
			}
		}()
	}

	projects := make([]driver.NamedProject, 0, len(cmd.Paths))
	for _, path := range cmd.Paths {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}

		if info.IsDir() {
			fromDir, err := driver.ReadProjects(path)
			if err != nil {
				return err
			}

			projects = append(projects, fromDir...)
		} else {
			project, err := driver.ReadProject(path)
			if err != nil {
				return err
			}

			projects = append(projects, driver.NamedProject{Name: path, Project: project})
		}
	}

	incompatible := 0
	for _, entry := range projects {
		_, err := fmt.Fprintf(os.Stderr, "Checking %s...", entry.Name)
		if err != nil {
			panic(err)
		}

		start := time.Now()

		session, err := entry.Project.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return err
		}

		report, err := session.Check()
		if err != nil {
			fmt.Fprintln(os.Stderr)
			return err
		}

		duration := time.Since(start)

		_, err = fmt.Fprintf(os.Stderr, " done (%dms)\n", duration.Milliseconds())
		if err != nil {
			panic(err)
		}

		if cmd.Json {
			encoded, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(encoded))
		} else {
			var output strings.Builder
			driver.WriteReport(report, &output)
			fmt.Print(output.String())
		}

		for _, pair := range cmd.Pair {
			parentRef, childRef, ok := strings.Cut(pair, "=")
			if !ok {
				return fmt.Errorf("pair %q is not PARENT=CHILD", pair)
			}

			parent, err := session.Workspace.Connection(parentRef, true)
			if err != nil {
				return err
			}

			child, err := session.Workspace.Connection(childRef, false)
			if err != nil {
				return err
			}

			compatible, err := session.Checker.DoTypeChecks(parent, child)
			if err != nil {
				return err
			}

			verdict := colors.Good("ok")
			if !compatible {
				verdict = colors.Conflict("incompatible")
			}

			fmt.Printf("%s - %s: %s\n", parentRef, childRef, verdict)
		}

		incompatible += report.Incompatible()
	}

	if incompatible > 0 {
		return fmt.Errorf("check failed with %d incompatible link(s)", incompatible)
	}

	return nil
}

type UnifyCmd struct {
	Hierarchy   string   `required:"" type:"path" help:"Project file supplying the hierarchy."`
	Descendants bool     `short:"d" help:"Compute nearest common descendants instead of ancestors."`
	Types       []string `arg:"" name:"type"`
}

func (cmd *UnifyCmd) Run(ctx *Context) error {
	project, err := driver.ReadProject(cmd.Hierarchy)
	if err != nil {
		return err
	}

	session, err := driver.NewSession(project.Hierarchy)
	if err != nil {
		return err
	}

	h := session.Checker.Hierarchy()

	types := make([]*syntax.Type, 0, len(cmd.Types))
	for _, source := range cmd.Types {
		ty, perr := syntax.ParseType(source)
		if perr != nil {
			return perr
		}

		types = append(types, ty)
	}

	var unified []*syntax.Type
	if cmd.Descendants {
		unified, err = h.NearestCommonDescendants(types...)
	} else {
		unified, err = h.NearestCommonAncestors(types...)
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
}

type FulfillsCmd struct {
	Hierarchy string `required:"" type:"path" help:"Project file supplying the hierarchy."`
	Sub       string `arg:""`
	Sup       string `arg:""`
}

func (cmd *FulfillsCmd) Run(ctx *Context) error {
	project, err := driver.ReadProject(cmd.Hierarchy)
	if err != nil {
		return err
	}

	session, err := driver.NewSession(project.Hierarchy)
	if err != nil {
		return err
	}

	sub, perr := syntax.ParseType(cmd.Sub)
	if perr != nil {
		return perr
	}

	sup, perr := syntax.ParseType(cmd.Sup)
	if perr != nil {
		return perr
	}

	ok, err := session.Checker.Hierarchy().TypeFulfillsType(sub, sup)
	if err != nil {
		return err
	}

	if ok {
		fmt.Println(colors.Good("true"))
	} else {
		fmt.Println(colors.Conflict("false"))
	}

	return nil
}

type ResolveCmd struct {
	Path    string `arg:"" type:"path" help:"Project file with a workspace."`
	Block   string `arg:"" optional:""`
	Generic string `arg:"" optional:""`
}

func (cmd *ResolveCmd) Run(ctx *Context) error {
	project, err := driver.ReadProject(cmd.Path)
	if err != nil {
		return err
	}

	session, err := project.Load()
	if err != nil {
		return err
	}

	var blocks []*workspace.Block
	if cmd.Block != "" {
		block, ok := session.Workspace.Block(cmd.Block)
		if !ok {
			return fmt.Errorf("no block %q", cmd.Block)
		}

		blocks = append(blocks, block)
	} else {
		blocks = session.Workspace.Blocks()
	}

	for _, block := range blocks {
		generics, err := session.Checker.Generics(block)
		if err != nil {
			return err
		}

		for _, generic := range generics {
			if cmd.Generic != "" && generic != syntax.FoldIdent(cmd.Generic) {
				continue
			}

			types, err := session.Checker.ExplicitTypes(block, generic)
			if err != nil {
				return err
			}

			rendered := "(unbound)"
			if len(types) > 0 {
				rendered = strings.Join(types, " | ")
			}

			fmt.Printf("%s: %s = %s\n", block.ID(), generic, colors.Code(rendered))
		}
	}

	return nil
}

type ReplCmd struct {
	Project string `type:"path" help:"Project file to load on startup."`
}

func (cmd *ReplCmd) Run(ctx *Context) error {
	return repl(cmd.Project)
}

type ServerCmd struct {
	Lambda bool `cmd:""`
}

func (cmd *ServerCmd) Run(ctx *Context) error {
	color.NoColor = true
	return server.Run(cmd.Lambda)
}

var cli struct {
	Check    CheckCmd    `cmd:""`
	Fulfills FulfillsCmd `cmd:""`
	Unify    UnifyCmd    `cmd:""`
	Resolve  ResolveCmd  `cmd:""`
	Repl     ReplCmd     `cmd:""`
	Server   ServerCmd   `cmd:""`
}

func main() {
	// Default to server if running as Lambda function
	if os.Getenv("LAMBDA_TASK_ROOT") != "" {
		(&ServerCmd{Lambda: true}).Run(&Context{})
		return
	}

	ctx := kong.Parse(&cli)
	err := ctx.Run(&Context{})
	ctx.FatalIfErrorf(err)
}
