package main

import (
	"fmt"
	"time"
)

// ---- Session Commands ----

func (c *CLI) login(args []string) error {
	opts := parseArgs(args)
	if opts["password"] == "" {
		opts["password"] = getEnv("MEDGAS_PASSWORD", "")
	}
	if err := requireFlags(opts, "email", "password"); err != nil {
		return err
	}

	res, err := c.svc.Auth.Login(c.ctx, opts["email"], opts["password"])
	if err != nil {
		// Wrong credentials are reported as such, not as an expired session.
		c.Invalidated()
		return err
	}

	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", res.Usuario.DisplayName(), res.Usuario.Rol)
	return nil
}

func (c *CLI) logout() error {
	err := c.svc.Auth.Logout(c.ctx)
	fmt.Fprintln(c.out, "Logged out")
	return err
}

func (c *CLI) whoami(args []string) error {
	if err := c.require(""); err != nil {
		return err
	}
	opts := parseArgs(args)

	if opts["remote"] == "true" {
		me, err := c.svc.Users.Me(c.ctx)
		if err != nil {
			return err
		}
		return c.prettyPrint(me)
	}

	sess := c.app.Store.Get()
	fmt.Fprintf(c.out, "%s <%s>\nrole: %s\n", sess.User.DisplayName(), sess.User.Email, sess.User.Rol)
	if sess.User.HospitalID != nil {
		fmt.Fprintf(c.out, "hospital: %d\n", *sess.User.HospitalID)
	}
	if exp, ok := sess.ExpiresAt(); ok {
		fmt.Fprintf(c.out, "expires: %s (in %s)\n", exp.Format(time.RFC3339), time.Until(exp).Round(time.Second))
	}
	return nil
}

func (c *CLI) passwordCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas password <recover|reset>")
	}

	sub := args[0]
	opts := parseArgs(args[1:])

	switch sub {
	case "recover":
		if err := requireFlags(opts, "email"); err != nil {
			return err
		}
		msg, err := c.svc.Auth.RecoverPassword(c.ctx, opts["email"])
		if err != nil {
			return err
		}
		return c.ack(msg)
	case "reset":
		if err := requireFlags(opts, "token", "password"); err != nil {
			return err
		}
		msg, err := c.svc.Auth.ResetPassword(c.ctx, opts["token"], opts["password"])
		if err != nil {
			return err
		}
		return c.ack(msg)
	default:
		return fmt.Errorf("unknown password subcommand: %s", sub)
	}
}
