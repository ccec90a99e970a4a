package main

import (
	"fmt"
	"strconv"

	"github.com/getkayan/medgas/domain"
)

// ---- Report Commands ----

func (c *CLI) reportCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: medgas report <dashboard|monthly|pdf|excel>")
	}
	if err := c.require(""); err != nil {
		return err
	}

	sub := args[0]
	opts := parseArgs(args[1:])

	switch sub {
	case "dashboard":
		params := buildParams(opts, "desde", "hasta")
		var (
			data map[string]any
			err  error
		)
		if c.app.Store.Get().Role().IsAdmin() {
			data, err = c.svc.Reports.DashboardAdmin(c.ctx, params)
		} else {
			data, err = c.svc.Reports.DashboardHospital(c.ctx, params)
		}
		if err != nil {
			return err
		}
		return c.prettyPrint(data)
	case "monthly":
		data, err := c.svc.Reports.MonthlyConsumption(c.ctx, buildParams(opts, "anio", "hospital", "gas"))
		if err != nil {
			return err
		}
		return c.prettyPrint(data)
	case "pdf", "excel":
		filter, err := reportFilter(opts)
		if err != nil {
			return err
		}
		var a *domain.DownloadArtifact
		if sub == "pdf" {
			a, err = c.svc.Reports.GeneratePDF(c.ctx, filter, opts["tipo"])
		} else {
			a, err = c.svc.Reports.GenerateExcel(c.ctx, filter, opts["formato"])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Saved %s (%d bytes)\n", a.Path, a.Size())
		return nil
	default:
		return fmt.Errorf("unknown report subcommand: %s", sub)
	}
}

func reportFilter(opts map[string]string) (domain.ReportFilter, error) {
	f := domain.ReportFilter{
		FechaInicio:    opts["desde"],
		FechaFin:       opts["hasta"],
		ModoSuministro: opts["modo"],
		Departamento:   opts["departamento"],
	}
	for flag, dst := range map[string]**int{"hospital": &f.HospitalID, "gas": &f.GasID} {
		v, ok := opts[flag]
		if !ok {
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("--%s: %w", flag, err)
		}
		*dst = &id
	}
	return f, nil
}
