package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/getkayan/medgas/domain"
)

// ---- Audit Commands ----

func (c *CLI) auditCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas audit <subcommand>")
	}
	if err := c.require(domain.RoleAdmin); err != nil {
		return err
	}

	sub := args[0]
	opts := parseArgs(args[1:])

	switch sub {
	case "list":
		entries, err := c.svc.Audit.List(c.ctx, buildParams(opts, "usuario", "accion", "desde", "hasta", "skip", "limit"))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tUSER\tACTION\tDETAIL")
		for _, e := range entries {
			user := "-"
			if e.UsuarioID != nil {
				user = fmt.Sprint(*e.UsuarioID)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.FechaHora.Format(time.RFC3339), user, e.Accion, e.Detalle)
		}
		return w.Flush()
	case "stats":
		stats, err := c.svc.Audit.Statistics(c.ctx, buildParams(opts, "desde", "hasta"))
		if err != nil {
			return err
		}
		return c.prettyPrint(stats)
	case "actions":
		actions, err := c.svc.Audit.Actions(c.ctx)
		if err != nil {
			return err
		}
		for _, a := range actions {
			fmt.Fprintln(c.out, a)
		}
		return nil
	case "purge":
		out, err := c.svc.Audit.Purge(c.ctx, buildParams(opts, "dias"))
		if err != nil {
			return err
		}
		return c.prettyPrint(out)
	default:
		return fmt.Errorf("unknown audit subcommand: %s", sub)
	}
}
