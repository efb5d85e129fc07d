package commands

import (
	"fmt"
	"text/tabwriter"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct{}

// Run prints every tracer the drivers install. Missing-tree notes are printed
// as they are found; nothing is written to the trace file.
func (i *InspectCmd) Run(g *Global, root *CLI) error {
	out := g.stdout()
	s, err := openSession(root, out, sessionOptions{console: true})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COMPONENT\tIDENTITY\tSUFFIX")
	for _, d := range s.Drivers {
		env, _ := d.Environment()
		for _, tr := range d.Tracers() {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", env.Component.Name, tr.Identity(), tr.Suffix())
		}
	}
	return tw.Flush()
}
