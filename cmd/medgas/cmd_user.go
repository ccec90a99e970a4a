package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/getkayan/medgas/domain"
)

// ---- User Commands ----

var userFields = map[string]string{"hospital": "int", "estado": "bool"}

func (c *CLI) userCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas user <subcommand>")
	}
	if err := c.require(domain.RoleAdmin); err != nil {
		return err
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "list":
		return c.listUsers(args)
	case "get":
		id, err := parseID(args, "medgas user get <id>")
		if err != nil {
			return err
		}
		u, err := c.svc.Users.Get(c.ctx, id)
		if err != nil {
			return err
		}
		return c.prettyPrint(u)
	case "create":
		opts := parseArgs(args)
		if err := requireFlags(opts, "nombre", "apellido", "email", "password", "rol"); err != nil {
			return err
		}
		body, err := buildBody(opts, userFields, "nombre", "apellido", "email", "password", "rol", "hospital")
		if err != nil {
			return err
		}
		u, err := c.svc.Users.Create(c.ctx, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(u)
	case "update":
		id, err := parseID(args, "medgas user update <id> [options]")
		if err != nil {
			return err
		}
		body, err := buildBody(parseArgs(args), userFields, "nombre", "apellido", "email", "rol", "hospital", "estado")
		if err != nil {
			return err
		}
		u, err := c.svc.Users.Update(c.ctx, id, body)
		if err != nil {
			return err
		}
		return c.prettyPrint(u)
	case "delete":
		id, err := parseID(args, "medgas user delete <id>")
		if err != nil {
			return err
		}
		msg, err := c.svc.Users.Delete(c.ctx, id)
		if err != nil {
			return err
		}
		return c.ack(msg)
	case "change-password":
		id, err := parseID(args, "medgas user change-password <id> --password=PWD")
		if err != nil {
			return err
		}
		opts := parseArgs(args)
		if err := requireFlags(opts, "password"); err != nil {
			return err
		}
		msg, err := c.svc.Users.ChangePassword(c.ctx, id, opts["password"])
		if err != nil {
			return err
		}
		return c.ack(msg)
	default:
		return fmt.Errorf("unknown user subcommand: %s", sub)
	}
}

func (c *CLI) listUsers(args []string) error {
	opts := parseArgs(args)
	users, err := c.svc.Users.List(c.ctx, buildParams(opts, "rol", "hospital", "estado", "skip", "limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tHOSPITAL\tACTIVE")
	for _, u := range users {
		hospital := "-"
		if u.HospitalID != nil {
			hospital = fmt.Sprint(*u.HospitalID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.DisplayName(), u.Email, u.Rol, hospital, u.Estado)
	}
	w.Flush()
	fmt.Fprintf(c.out, "\nTotal: %d\n", len(users))
	return nil
}
