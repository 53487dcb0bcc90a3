// Package driver loads check projects from disk, runs every link and
// generic in a workspace through the checker, and renders the result as a
// report.
package driver

import (
	"fmt"
	"io"
	"strings"

	"dovetail/checker"
	"dovetail/colors"
	"dovetail/hierarchy"
	"dovetail/workspace"

	"github.com/charmbracelet/x/ansi"
)

// Session is a loaded project: a checker with its hierarchy installed and
// the workspace the checker operates on.
type Session struct {
	Checker   *checker.Checker
	Workspace *workspace.Workspace
}

func NewSession(defs map[string]hierarchy.Def) (*Session, error) {
	c := checker.New()
	if err := c.Init(defs); err != nil {
		return nil, err
	}

	return &Session{Checker: c, Workspace: workspace.New()}, nil
}

// Report is the outcome of checking a whole workspace: a verdict per link
// and the resolved generics per block.
type Report struct {
	Links  []LinkReport  `json:"links,omitempty"`
	Blocks []BlockReport `json:"blocks,omitempty"`
}

type LinkReport struct {
	Parent      string   `json:"parent"`
	Child       string   `json:"child"`
	ParentTypes []string `json:"parentTypes"`
	ChildTypes  []string `json:"childTypes"`
	Compatible  bool     `json:"compatible"`
}

type BlockReport struct {
	Block    string          `json:"block"`
	Generics []GenericReport `json:"generics"`
}

type GenericReport struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// Incompatible counts the links that failed their check.
func (report *Report) Incompatible() int {
	count := 0
	for _, link := range report.Links {
		if !link.Compatible {
			count++
		}
	}

	return count
}

// Check runs every link in the workspace through DoTypeChecks and resolves
// every generic mentioned on every block.
func (session *Session) Check() (*Report, error) {
	report := &Report{}

	for _, link := range session.Workspace.Links() {
		parent, child := link[0], link[1]

		parentTypes, err := session.Checker.ExplicitTypesOfConnection(parent)
		if err != nil {
			return nil, err
		}

		childTypes, err := session.Checker.ExplicitTypesOfConnection(child)
		if err != nil {
			return nil, err
		}

		compatible, err := session.Checker.DoTypeChecks(parent, child)
		if err != nil {
			return nil, err
		}

		report.Links = append(report.Links, LinkReport{
			Parent:      parent.Ref(),
			Child:       child.Ref(),
			ParentTypes: parentTypes,
			ChildTypes:  childTypes,
			Compatible:  compatible,
		})
	}

	for _, block := range session.Workspace.Blocks() {
		generics, err := session.Checker.Generics(block)
		if err != nil {
			return nil, err
		}

		if len(generics) == 0 {
			continue
		}

		blockReport := BlockReport{Block: block.ID()}
		for _, generic := range generics {
			types, err := session.Checker.ExplicitTypes(block, generic)
			if err != nil {
				return nil, err
			}

			blockReport.Generics = append(blockReport.Generics, GenericReport{
				Name:  generic,
				Types: types,
			})
		}

		report.Blocks = append(report.Blocks, blockReport)
	}

	return report, nil
}

// WriteReport renders the report for a terminal, wrapping long lines.
func WriteReport(report *Report, w io.Writer) {
	if len(report.Links) > 0 {
		mustFprintf(w, "%s\n\n", colors.Title("Links:"))

		for _, link := range report.Links {
			verdict := colors.Good("ok")
			if !link.Compatible {
				verdict = colors.Conflict("incompatible")
			}

			line := fmt.Sprintf(
				"%s - %s: %s %s",
				link.Parent,
				link.Child,
				verdict,
				colors.Extra(fmt.Sprintf(
					"parent %s, child %s",
					renderTypes(link.ParentTypes),
					renderTypes(link.ChildTypes),
				)),
			)

			mustFprintf(w, "%s\n", indentWrap(line))
		}

		mustFprintf(w, "\n")
	}

	if len(report.Blocks) > 0 {
		mustFprintf(w, "%s\n\n", colors.Title("Generics:"))

		for _, block := range report.Blocks {
			for _, generic := range block.Generics {
				types := "(unbound)"
				if len(generic.Types) > 0 {
					types = renderTypes(generic.Types)
				}

				line := fmt.Sprintf("%s: %s = %s", block.Block, generic.Name, types)
				mustFprintf(w, "%s\n", indentWrap(line))
			}
		}

		mustFprintf(w, "\n")
	}
}

func renderTypes(types []string) string {
	if len(types) == 0 {
		return colors.Code("*")
	}

	rendered := make([]string, len(types))
	for i, ty := range types {
		rendered[i] = colors.Code(ty)
	}

	return strings.Join(rendered, " | ")
}

func indentWrap(line string) string {
	indent := "  "

	wrapped := ansi.Wordwrap(line, 100-len(indent), " ")

	var out strings.Builder
	for i, part := range strings.Split(wrapped, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}

		out.WriteString(indent)
		out.WriteString(part)
	}

	return out.String()
}

func mustFprintf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		panic(err)
	}
}
