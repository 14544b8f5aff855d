package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/clientapi"
	"github.com/broady/mxapi/events"
)

// Globals are the flags shared by every command.
type Globals struct {
	Format string    `help:"Output format (text, json, yaml)." enum:"text,json,yaml" default:"text" short:"o"`
	Out    io.Writer `kong:"-"`
}

type CLI struct {
	Globals

	Version  VersionCmd  `cmd:"" help:"Print version information."`
	List     ListCmd     `cmd:"" help:"List the endpoints of the catalogue."`
	Describe DescribeCmd `cmd:"" help:"Describe the metadata and message shapes of an endpoint."`
	Resolve  ResolveCmd  `cmd:"" help:"Print the path template an endpoint uses at a protocol version."`
	Check    CheckCmd    `cmd:"" help:"Check the catalogue for routing conflicts and broken event schemas."`
	Schema   SchemaCmd   `cmd:"" help:"Print the JSON schema of an event content type."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	if g.Format == "text" {
		_, err := fmt.Fprintln(g.Out, Version())
		return err
	}
	return g.encode(map[string]string{
		"version":          Version(),
		"protocol_version": mxapi.DefaultConfig().Version,
	})
}

type endpointSummary struct {
	Name       string `json:"name" yaml:"name"`
	Method     string `json:"method" yaml:"method"`
	Path       string `json:"path" yaml:"path"`
	Since      string `json:"since" yaml:"since"`
	Deprecated bool   `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

type ListCmd struct{}

func (c *ListCmd) Run(g *Globals) error {
	var summaries []endpointSummary
	for _, ep := range clientapi.All() {
		meta := ep.Metadata()
		latest := meta.History.Latest()
		summaries = append(summaries, endpointSummary{
			Name:       meta.Name,
			Method:     meta.Method,
			Path:       latest.Path,
			Since:      meta.History[0].Version.String(),
			Deprecated: latest.Deprecated,
		})
	}
	if g.Format != "text" {
		return g.encode(summaries)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	for _, s := range summaries {
		name := s.Name
		if s.Deprecated {
			name += " (deprecated)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, s.Method, s.Path)
	}
	return tw.Flush()
}

type DescribeCmd struct {
	Endpoint string `arg:"" help:"Endpoint name, as printed by list."`
}

func (c *DescribeCmd) Run(g *Globals) error {
	ep, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	desc := ep.Describe()
	if g.Format != "text" {
		return g.encode(desc)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\n", desc.Method, desc.Name)
	if desc.Description != "" {
		fmt.Fprintf(tw, "%s\n", desc.Description)
	}
	fmt.Fprintf(tw, "authentication: %t\trate limited: %t\n", desc.Authentication, desc.RateLimited)
	fmt.Fprintln(tw, "\nhistory:")
	for _, h := range desc.History {
		mark := ""
		if h.Deprecated {
			mark = "deprecated"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", h.Version, h.Path, mark)
	}
	writeFields(tw, "request", desc.Request)
	writeFields(tw, "response", desc.Response)
	return tw.Flush()
}

func writeFields(w io.Writer, title string, fields []mxapi.FieldDescription) {
	if len(fields) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, f := range fields {
		placement := f.Placement
		if f.Header != "" {
			placement += "=" + f.Header
		}
		var notes []string
		if f.Optional {
			notes = append(notes, "optional")
		}
		if f.Default != "" {
			notes = append(notes, "default="+f.Default)
		}
		if f.Flatten {
			notes = append(notes, "flatten")
		}
		if f.Deprecated {
			notes = append(notes, "deprecated")
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%v\n", f.Name, placement, f.Type, notes)
	}
}

type ResolveCmd struct {
	Endpoint string `arg:"" help:"Endpoint name, as printed by list."`
	Version  string `arg:"" help:"Protocol version, e.g. v1.11."`
}

func (c *ResolveCmd) Run(g *Globals) error {
	ep, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	v, err := mxapi.ParseVersion(c.Version)
	if err != nil {
		return err
	}
	tmpl, err := ep.Resolve(v)
	if err != nil {
		return err
	}
	deprecated := ep.Metadata().History.IsDeprecated(v)

	if g.Format != "text" {
		return g.encode(map[string]any{
			"endpoint":   c.Endpoint,
			"version":    v.String(),
			"method":     ep.Metadata().Method,
			"path":       tmpl.String(),
			"deprecated": deprecated,
		})
	}
	line := ep.Metadata().Method + " " + tmpl.String()
	if deprecated {
		line += " (deprecated)"
	}
	_, err = fmt.Fprintln(g.Out, line)
	return err
}

type CheckCmd struct{}

func (c *CheckCmd) Run(g *Globals) error {
	problems := checkRoutes(clientapi.All())
	for _, t := range events.Types() {
		if _, err := events.Schema(t); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if g.Format != "text" {
		if err := g.encode(map[string]any{"ok": len(problems) == 0, "problems": problems}); err != nil {
			return err
		}
	} else {
		for _, p := range problems {
			fmt.Fprintf(g.Out, "✗ %s\n", p)
		}
		if len(problems) == 0 {
			fmt.Fprintf(g.Out, "✓ %d endpoints, %d event types\n", len(clientapi.All()), len(events.Types()))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("check found %d problem(s)", len(problems))
	}
	return nil
}

// checkRoutes reports endpoints that resolve to the same method and path
// template at some protocol version.
func checkRoutes(eps []mxapi.EndpointInfo) []string {
	var versions []mxapi.Version
	for _, ep := range eps {
		for _, h := range ep.Metadata().History {
			if !slices.ContainsFunc(versions, h.Version.Equal) {
				versions = append(versions, h.Version)
			}
		}
	}
	slices.SortFunc(versions, mxapi.Version.Compare)

	var problems []string
	reported := make(map[string]bool)
	for _, v := range versions {
		seen := make(map[string]string)
		for _, ep := range eps {
			tmpl, err := ep.Resolve(v)
			if err != nil {
				continue
			}
			meta := ep.Metadata()
			key := meta.Method + " " + tmpl.String()
			if other, ok := seen[key]; ok {
				if !reported[key] {
					problems = append(problems, fmt.Sprintf("%s and %s both route %s at %s", other, meta.Name, key, v))
					reported[key] = true
				}
				continue
			}
			seen[key] = meta.Name
		}
	}
	return problems
}

type SchemaCmd struct {
	EventType string `arg:"" help:"Event type, e.g. m.room.name." optional:""`
}

func (c *SchemaCmd) Run(g *Globals) error {
	if c.EventType == "" {
		if g.Format != "text" {
			return g.encode(events.Types())
		}
		for _, t := range events.Types() {
			fmt.Fprintln(g.Out, t)
		}
		return nil
	}
	s, err := events.Schema(c.EventType)
	if err != nil {
		return err
	}
	if g.Format == "yaml" {
		return g.encode(s)
	}
	return g.encodeJSON(s)
}

func lookup(name string) (mxapi.EndpointInfo, error) {
	ep, ok := clientapi.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q (see mxapi list)", name)
	}
	return ep, nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("mxapi"),
		kong.Description("Inspect the Matrix endpoint catalogue."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := &CLI{Globals: Globals{Out: os.Stdout}}
	parser, err := newParser(cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
