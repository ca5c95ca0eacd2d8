// Command brushwork evaluates brush scripts into validated map geometry.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"

	"github.com/chazu/brushwork/pkg/config"
	"github.com/chazu/brushwork/pkg/export"
	"github.com/chazu/brushwork/pkg/graph"
	"github.com/chazu/brushwork/pkg/kernel"
	"github.com/spf13/cobra"
)

// errCheckFailed is returned when a script has validation errors.
var errCheckFailed = errors.New("script has errors")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	backend    string
}

func (o *options) app(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	return NewApp(cmd.Context(), cfg, o.backend)
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "brushwork",
		Short:         "Evaluate brush scripts into map geometry",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML project config")
	root.PersistentFlags().StringVar(&opts.backend, "backend", BackendBrushes, "kernel backend: brushes or sdfx")

	root.AddCommand(
		newEvalCmd(opts),
		newCheckCmd(opts),
		newExportCmd(opts),
		newInfoCmd(opts),
	)
	return root
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func newEvalCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a script and print its meshes as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			result := a.Evaluate(source)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if len(result.Errors) > 0 {
				return errCheckFailed
			}
			return nil
		},
	}
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check <script>",
		Short: "Validate a script and report errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			_, result := a.Check(source)
			out := cmd.OutOrStdout()
			printDiagnostics(out, args[0], "error", result.Errors)
			printDiagnostics(out, args[0], "warning", result.Warnings)
			if len(result.Errors) > 0 {
				return errCheckFailed
			}
			fmt.Fprintf(out, "%s: ok (%d warnings)\n", args[0], len(result.Warnings))
			return nil
		},
	}
}

func printDiagnostics(w io.Writer, path, level string, items []EvalErrorData) {
	for _, d := range items {
		if d.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", path, d.Line, d.Col, level, d.Message)
		} else {
			fmt.Fprintf(w, "%s: %s: %s\n", path, level, d.Message)
		}
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <script>",
		Short: "Export a script's geometry as glTF (.gltf or .glb)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			meshes, result := a.Tessellate(source)
			if len(result.Errors) > 0 {
				printDiagnostics(cmd.ErrOrStderr(), args[0], "error", result.Errors)
				return errCheckFailed
			}
			if err := export.WriteGLTF(output, meshes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d parts to %s\n", len(meshes), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "map.gltf", "output file")
	return cmd
}

func newInfoCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "info <script>",
		Short: "Show nodes, textures and parts of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			source, err := readScript(args[0])
			if err != nil {
				return err
			}
			g, result := a.Check(source)
			if g == nil {
				printDiagnostics(cmd.ErrOrStderr(), args[0], "error", result.Errors)
				return errCheckFailed
			}
			out := cmd.OutOrStdout()
			printGraph(out, args[0], g, result)
			if len(result.Errors) > 0 {
				return nil
			}
			meshes, result := a.Tessellate(source)
			if len(result.Errors) > 0 {
				printDiagnostics(out, args[0], "error", result.Errors)
				return errCheckFailed
			}
			printParts(out, meshes)
			return nil
		},
	}
}

func printGraph(w io.Writer, path string, g *graph.DesignGraph, result EvalResult) {
	kinds := map[graph.NodeKind]int{}
	for _, n := range g.Nodes {
		kinds[n.Kind]++
	}
	fmt.Fprintf(w, "Script:        %s\n", path)
	fmt.Fprintf(w, "Format:        %s\n", g.Defaults.Format)
	fmt.Fprintf(w, "World extent:  %g\n", g.Defaults.WorldExtent)
	fmt.Fprintf(w, "Nodes:         %d\n", g.NodeCount())
	for k := graph.NodeBrush; k <= graph.NodeGroup; k++ {
		if kinds[k] > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", k.String()+":", kinds[k])
		}
	}
	fmt.Fprintf(w, "Roots:         %d\n", len(g.Roots))
	names := make([]string, 0, len(g.Textures))
	for name := range g.Textures {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintf(w, "Textures:      %d\n", len(names))
	for _, name := range names {
		t := g.Textures[name]
		fmt.Fprintf(w, "  %-12s %dx%d\n", name, t.Width, t.Height)
	}
	fmt.Fprintf(w, "Errors:        %d\n", len(result.Errors))
	fmt.Fprintf(w, "Warnings:      %d\n", len(result.Warnings))
}

func printParts(w io.Writer, meshes []*kernel.Mesh) {
	fmt.Fprintf(w, "Parts:         %d\n", len(meshes))
	for _, m := range meshes {
		lo, hi := meshBounds(m)
		fmt.Fprintf(w, "  %-12s %5d tris  (%g %g %g) - (%g %g %g)\n",
			m.PartName, m.TriangleCount(), lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
		for _, s := range m.Submeshes {
			fmt.Fprintf(w, "    %-10s %5d tris\n", s.Texture, s.Count/3)
		}
	}
}

func meshBounds(m *kernel.Mesh) (lo, hi [3]float32) {
	for i := range 3 {
		lo[i], hi[i] = math.MaxFloat32, -math.MaxFloat32
	}
	for i := 0; i+2 < len(m.Vertices); i += 3 {
		for j := range 3 {
			lo[j] = min(lo[j], m.Vertices[i+j])
			hi[j] = max(hi[j], m.Vertices[i+j])
		}
	}
	return lo, hi
}
