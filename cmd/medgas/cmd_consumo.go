package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/getkayan/medgas/domain"
)

// ---- Consumption Commands ----

var consumoFields = map[string]string{"hospital": "int", "gas": "int", "cantidad": "float"}

var consumoKeys = []string{"hospital", "gas", "desde", "hasta", "modo", "unidad", "cantidad", "observaciones"}

func (c *CLI) consumoCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas consumo <subcommand>")
	}
	if err := c.require(""); err != nil {
		return err
	}

	sub := args[0]
	args = args[1:]
	opts := parseArgs(args)

	switch sub {
	case "list":
		items, err := c.svc.Consumptions.List(c.ctx, buildParams(opts, "hospital", "gas", "desde", "hasta", "validado", "skip", "limit"))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tHOSPITAL\tGAS\tFROM\tTO\tQUANTITY\tUNIT\tVALIDATED")
		for _, r := range items {
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%g\t%s\t%t\n",
				r.ID, r.HospitalID, r.GasID, r.FechaInicio, r.FechaFin, r.Cantidad, r.UnidadMedida, r.Validado)
		}
		w.Flush()
		fmt.Fprintf(c.out, "\nTotal: %d\n", len(items))
		return nil
	case "get":
		id, err := parseID(args, "medgas consumo get <id>")
		if err != nil {
			return err
		}
		r, err := c.svc.Consumptions.Get(c.ctx, id)
		if err != nil {
			return err
		}
		return c.prettyPrint(r)
	case "create":
		if err := requireFlags(opts, "hospital", "gas", "desde", "hasta", "modo", "unidad", "cantidad"); err != nil {
			return err
		}
		body, err := buildBody(opts, consumoFields, consumoKeys...)
		if err != nil {
			return err
		}
		r, err := c.svc.Consumptions.Create(c.ctx, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(r)
	case "update":
		id, err := parseID(args, "medgas consumo update <id> [options]")
		if err != nil {
			return err
		}
		body, err := buildBody(opts, consumoFields, consumoKeys...)
		if err != nil {
			return err
		}
		r, err := c.svc.Consumptions.Update(c.ctx, id, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(r)
	case "delete":
		id, err := parseID(args, "medgas consumo delete <id>")
		if err != nil {
			return err
		}
		msg, err := c.svc.Consumptions.Delete(c.ctx, id)
		if err != nil {
			return err
		}
		return c.ack(msg)
	case "validate":
		if err := c.require(domain.RoleAdmin); err != nil {
			return err
		}
		id, err := parseID(args, "medgas consumo validate <id>")
		if err != nil {
			return err
		}
		msg, err := c.svc.Consumptions.Validate(c.ctx, id)
		if err != nil {
			return err
		}
		return c.ack(msg)
	default:
		return fmt.Errorf("unknown consumo subcommand: %s", sub)
	}
}
