package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omnicraft/sig/extract"
)

func planCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan FILE",
		Short: "Print the bindings and dependency graph of a component",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := readComponent(args[0])
			if err != nil {
				return err
			}

			p, err := a.extractor().Component(c)
			if err != nil {
				return err
			}

			printPlan(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Report analysis errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				c, err := readComponent(path)
				if err == nil {
					_, err = a.extractor().Component(c)
				}

				if err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d components failed", failed, len(args))
			}
			return nil
		},
	}
}

func printPlan(w io.Writer, p *extract.Plan) {
	fmt.Fprintf(w, "component %s\n", p.Component)

	fmt.Fprintln(w, "\nbindings:")
	printBindings(w, p.Bindings, 1)

	fmt.Fprintln(w, "\ngraph:")
	for _, source := range p.Graph.Sources() {
		fmt.Fprintf(w, "  %s (%s) -> %s\n", source, p.Symbols[source], strings.Join(p.Graph.Dependents(source), ", "))
	}

	fmt.Fprintf(w, "\norder: %s\n", strings.Join(p.Order, " "))
	if unused := p.Graph.Unused(); len(unused) > 0 {
		fmt.Fprintf(w, "unused: %s\n", strings.Join(unused, " "))
	}
}

func printBindings(w io.Writer, bindings []*extract.Binding, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, b := range bindings {
		switch b.Kind {
		case extract.BindElement:
			fmt.Fprintf(w, "%s%s <%s>\n", indent, b.Path, b.Tag)
			for _, attr := range b.Attrs {
				if attr.Dynamic() {
					fmt.Fprintf(w, "%s  %s %s\n", indent, attr.Name, attr.Deps)
				} else {
					fmt.Fprintf(w, "%s  %s static\n", indent, attr.Name)
				}
			}
			for _, ev := range b.Events {
				fmt.Fprintf(w, "%s  on:%s\n", indent, ev.Event)
			}
			printBindings(w, b.Children, depth+1)

		case extract.BindText, extract.BindExpr:
			if b.Dynamic() {
				fmt.Fprintf(w, "%s%s %s %s\n", indent, b.Path, b.Kind, b.Deps)
			} else {
				fmt.Fprintf(w, "%s%s %s static\n", indent, b.Path, b.Kind)
			}

		case extract.BindIf:
			fmt.Fprintf(w, "%s%s if %s\n", indent, b.Path, b.Region.Condition)
			printBindings(w, b.Region.Then, depth+1)
			printBindings(w, b.Region.Else, depth+1)

		case extract.BindEach:
			fmt.Fprintf(w, "%s%s each %s as %s\n", indent, b.Path, b.Region.SourceDeps, b.Region.Item)
			printBindings(w, b.Region.Body, depth+1)
		}
	}
}
