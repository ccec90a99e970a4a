package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/getkayan/medgas"
	"github.com/getkayan/medgas/config"
	"github.com/getkayan/medgas/logger"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	os.Exit(run(os.Args[1], os.Args[2:]))
}

// run executes one command and returns the process exit code: 0 on
// success, 1 on error and 2 when the server ended the session.
func run(cmd string, args []string) int {
	switch cmd {
	case "version":
		fmt.Printf("medgas %s\n", medgas.Version)
		return 0
	case "help", "-h", "--help":
		printUsage()
		return 0
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load configuration: %v\n", err)
		return 1
	}
	if err := logger.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tp, err := medgas.NewTelemetry(cfg)
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer tp.Shutdown(context.Background())
	}

	app, err := medgas.New(ctx, cfg)
	if err != nil {
		logger.Log.Error("startup failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer app.Close()

	cli := NewCLI(ctx, app, os.Stdout)
	err = cli.Run(cmd, args)

	// The CLI's navigation listener: a server-side invalidation during the
	// command sends the operator back to login.
	if cli.Invalidated() {
		fmt.Fprintln(os.Stderr, "session expired, run medgas login")
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

func printUsage() {
	fmt.Print(`medgas - medicinal gas consumption console (command line)

Usage:
  medgas <command> [subcommand] [options]

Environment Variables:
  API_URL          Backend address (default: http://localhost:8000)
  SESSION_BACKEND  file, sqlite, postgres, mysql, redis, mongo or memory (default: file)
  SESSION_DSN      Path, DSN or redis URL of the session backend
  SESSION_PROFILE  Stored session name (default: default)
  DOWNLOAD_DIR     Where reports are saved (default: .)
  LOG_LEVEL        debug, info, warn, error (default: info)
  LOG_FORMAT       json or console (default: console)

Output:
  --output=yaml      Print YAML instead of JSON
  --select=JSONPATH  Print only the matching part, e.g. --select='$.total_hospitales'

Commands:
  login     --email=EMAIL [--password=PWD]   (or MEDGAS_PASSWORD)
  logout
  whoami    [--remote]
  password
    recover --email=EMAIL
    reset   --token=TOKEN --password=PWD

  user      Manage users (admin)
    list    [--rol=ROL] [--hospital=ID] [--estado=true|false] [--skip=N] [--limit=N]
    get     <id>
    create  --nombre=N --apellido=A --email=E --password=P --rol=ROL [--hospital=ID]
    update  <id> [--nombre=N] [--apellido=A] [--email=E] [--rol=ROL] [--hospital=ID] [--estado=BOOL]
    delete  <id>
    change-password <id> --password=PWD

  hospital  Manage hospitals
    list    [--estado=BOOL] [--departamento=D] [--tipo=T] [--buscar=Q]
    get     <id>
    stats   <id> [--desde=DATE] [--hasta=DATE]
    departments
    create|update|delete (admin)

  gas       Manage the gas catalogue
    list    [--estado=BOOL]
    get     <id>
    create|update|delete (admin)

  consumo   Manage consumption records
    list    [--hospital=ID] [--gas=ID] [--desde=DATE] [--hasta=DATE] [--validado=BOOL]
    get     <id>
    create  --hospital=ID --gas=ID --desde=DATE --hasta=DATE --modo=M --unidad=U --cantidad=Q
    update  <id> [...]
    delete  <id>
    validate <id> (admin)

  report    Dashboards and downloads
    dashboard [--desde=DATE] [--hasta=DATE]
    monthly   [--anio=YYYY] [--hospital=ID]
    pdf       [--tipo=global] [filter]
    excel     [--formato=xlsx] [filter]
      filter: --desde --hasta --hospital --gas --modo --departamento

  audit     Audit trail (admin)
    list    [--usuario=ID] [--accion=A] [--desde=DATE] [--hasta=DATE] [--skip=N] [--limit=N]
    stats   [--desde=DATE] [--hasta=DATE]
    actions
    purge   [--dias=90]

  health    Backend, session storage and session status
  version   Show CLI version
  help      Show this help
`)
}
