package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omnicraft/sig"
	"github.com/omnicraft/sig/binding"
)

func runCmd(a *app) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Mount a component on an in-memory target and print its tree",
		Long: `run mounts the component, prints the entity tree, then applies each
--set write in order and prints the tree after it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := readComponent(args[0])
			if err != nil {
				return err
			}

			p, err := a.extractor().Component(c)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			opts := append(a.cfg.RuntimeOptions(reg), sig.WithLogger(a.log))
			rt, err := sig.NewRuntime(opts...)
			if err != nil {
				return err
			}
			defer rt.Dispose()

			rec := binding.NewRecorder()
			m, err := binding.Compile(p).Mount(rt, nil, rec, binding.NoEntity)
			if err != nil {
				return err
			}
			defer m.Unmount()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, rec.Tree())

			for _, set := range sets {
				if err := write(m, set); err != nil {
					return err
				}
				fmt.Fprintf(out, "\n> %s\n%s", set, rec.Tree())
			}

			if a.cfg.Metrics.Enabled {
				return printMetrics(out, reg)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "write a signal, as name=value (value is YAML)")

	return cmd
}

func write(m *binding.Mount, set string) error {
	name, raw, ok := strings.Cut(set, "=")
	if !ok {
		return fmt.Errorf("--set %q: expected name=value", set)
	}

	v, ok := m.Env().Lookup(name)
	if !ok {
		return fmt.Errorf("--set %s: %w", name, binding.ErrUndefined)
	}
	w, ok := v.(sig.Writer)
	if !ok {
		return fmt.Errorf("--set %s: not a signal", name)
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Errorf("--set %s: %w", name, err)
	}

	return w.SetAny(normalize(value))
}

// normalize turns YAML scalars into the value types bindings evaluate with.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case []any:
		for i := range x {
			x[i] = normalize(x[i])
		}
	case map[string]any:
		for k := range x {
			x[k] = normalize(x[k])
		}
	}
	return v
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nmetrics:")
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				value = float64(metric.GetHistogram().GetSampleCount())
			}

			var labels []string
			for _, l := range metric.GetLabel() {
				if l.GetName() != "runtime" {
					labels = append(labels, l.GetName()+"="+l.GetValue())
				}
			}
			fmt.Fprintf(w, "  %s{%s} %g\n", f.GetName(), strings.Join(labels, ","), value)
		}
	}
	return nil
}
