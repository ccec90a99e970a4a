package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/getkayan/medgas/domain"
)

// ---- Hospital Commands ----

var hospitalFields = map[string]string{"estado": "bool"}

var hospitalKeys = []string{
	"nombre", "codigo", "tipo", "ciudad", "departamento", "direccion",
	"contacto_nombre", "contacto_telefono", "contacto_email",
	"region_sanitaria", "nivel_atencion", "estado",
}

func (c *CLI) hospitalCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas hospital <subcommand>")
	}
	if err := c.require(""); err != nil {
		return err
	}

	sub := args[0]
	args = args[1:]
	opts := parseArgs(args)

	switch sub {
	case "list":
		items, err := c.svc.Hospitals.List(c.ctx, buildParams(opts, "estado", "departamento", "tipo", "buscar", "skip", "limit"))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tNAME\tCITY\tDEPARTMENT\tACTIVE")
		for _, h := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", h.ID, h.Codigo, h.Nombre, h.Ciudad, h.Departamento, h.Estado)
		}
		return w.Flush()
	case "get":
		id, err := parseID(args, "medgas hospital get <id>")
		if err != nil {
			return err
		}
		h, err := c.svc.Hospitals.Get(c.ctx, id)
		if err != nil {
			return err
		}
		return c.prettyPrint(h)
	case "stats":
		id, err := parseID(args, "medgas hospital stats <id>")
		if err != nil {
			return err
		}
		stats, err := c.svc.Hospitals.Statistics(c.ctx, id, buildParams(opts, "desde", "hasta"))
		if err != nil {
			return err
		}
		return c.prettyPrint(stats)
	case "departments":
		deps, err := c.svc.Hospitals.Departments(c.ctx)
		if err != nil {
			return err
		}
		for _, d := range deps {
			fmt.Fprintln(c.out, d)
		}
		return nil
	}

	if err := c.require(domain.RoleAdmin); err != nil {
		return err
	}
	switch sub {
	case "create":
		if err := requireFlags(opts, "nombre", "codigo", "tipo", "ciudad", "departamento"); err != nil {
			return err
		}
		body, err := buildBody(opts, hospitalFields, hospitalKeys...)
		if err != nil {
			return err
		}
		h, err := c.svc.Hospitals.Create(c.ctx, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(h)
	case "update":
		id, err := parseID(args, "medgas hospital update <id> [options]")
		if err != nil {
			return err
		}
		body, err := buildBody(opts, hospitalFields, hospitalKeys...)
		if err != nil {
			return err
		}
		h, err := c.svc.Hospitals.Update(c.ctx, id, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(h)
	case "delete":
		id, err := parseID(args, "medgas hospital delete <id>")
		if err != nil {
			return err
		}
		msg, err := c.svc.Hospitals.Delete(c.ctx, id)
		if err != nil {
			return err
		}
		return c.ack(msg)
	default:
		return fmt.Errorf("unknown hospital subcommand: %s", sub)
	}
}

// ---- Gas Commands ----

var gasFields = map[string]string{"estado": "bool", "critico": "bool"}

var gasKeys = []string{"nombre", "codigo", "descripcion", "unidad_base", "formula", "critico", "estado"}

func (c *CLI) gasCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas gas <subcommand>")
	}
	if err := c.require(""); err != nil {
		return err
	}

	sub := args[0]
	args = args[1:]
	opts := parseArgs(args)

	switch sub {
	case "list":
		items, err := c.svc.Gases.List(c.ctx, buildParams(opts, "estado", "skip", "limit"))
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tNAME\tUNIT\tCRITICAL\tACTIVE")
		for _, g := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t%t\n", g.ID, g.Codigo, g.Nombre, g.UnidadBase, g.EsCritico, g.Estado)
		}
		return w.Flush()
	case "get":
		id, err := parseID(args, "medgas gas get <id>")
		if err != nil {
			return err
		}
		g, err := c.svc.Gases.Get(c.ctx, id)
		if err != nil {
			return err
		}
		return c.prettyPrint(g)
	}

	if err := c.require(domain.RoleAdmin); err != nil {
		return err
	}
	switch sub {
	case "create":
		if err := requireFlags(opts, "nombre", "codigo", "unidad_base"); err != nil {
			return err
		}
		body, err := buildBody(opts, gasFields, gasKeys...)
		if err != nil {
			return err
		}
		g, err := c.svc.Gases.Create(c.ctx, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(g)
	case "update":
		id, err := parseID(args, "medgas gas update <id> [options]")
		if err != nil {
			return err
		}
		body, err := buildBody(opts, gasFields, gasKeys...)
		if err != nil {
			return err
		}
		g, err := c.svc.Gases.Update(c.ctx, id, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(g)
	case "delete":
		id, err := parseID(args, "medgas gas delete <id>")
		if err != nil {
			return err
		}
		msg, err := c.svc.Gases.Delete(c.ctx, id)
		if err != nil {
			return err
		}
		return c.ack(msg)
	default:
		return fmt.Errorf("unknown gas subcommand: %s", sub)
	}
}
