package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/getkayan/medgas"
	"github.com/getkayan/medgas/client"
	"github.com/getkayan/medgas/domain"
	"github.com/getkayan/medgas/rbac"
	"github.com/getkayan/medgas/service"
	"gopkg.in/yaml.v3"
)

var (
	errNotLoggedIn = errors.New("not logged in, run medgas login")
	errAdminOnly   = errors.New("this command requires the ADMIN role")
)

// CLI runs one command against the shared stack. One command is one
// navigation.
type CLI struct {
	ctx    context.Context
	app    *medgas.App
	svc    *service.Services
	out    io.Writer
	format string
	query  string
	events <-chan client.Event
	stop   func()
}

func NewCLI(ctx context.Context, app *medgas.App, out io.Writer) *CLI {
	events, stop := app.Signal.Subscribe()
	return &CLI{ctx: ctx, app: app, svc: app.Services, out: out, events: events, stop: stop}
}

func (c *CLI) Run(cmd string, args []string) error {
	opts := parseArgs(args)
	c.format = opts["output"]
	c.query = opts["select"]

	switch cmd {
	case "login":
		return c.login(args)
	case "logout":
		return c.logout()
	case "whoami":
		return c.whoami(args)
	case "password":
		return c.passwordCommand(args)
	case "user", "users":
		return c.userCommand(args)
	case "hospital", "hospitals":
		return c.hospitalCommand(args)
	case "gas", "gases":
		return c.gasCommand(args)
	case "consumo", "consumos":
		return c.consumoCommand(args)
	case "report", "reports":
		return c.reportCommand(args)
	case "audit":
		return c.auditCommand(args)
	case "health":
		return c.healthCommand()
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// Invalidated reports whether the server ended the session while the
// command ran. It unsubscribes from the signal.
func (c *CLI) Invalidated() bool {
	defer c.stop()
	select {
	case _, ok := <-c.events:
		return ok
	default:
		return false
	}
}

// require applies the route guard to the current command.
func (c *CLI) require(role domain.Role) error {
	_, d := c.app.Guard.Check(role)
	switch d.Outcome {
	case rbac.RedirectLogin:
		return errNotLoggedIn
	case rbac.RedirectDefault:
		return errAdminOnly
	default:
		return nil
	}
}

// describe renders an error for the operator.
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return client.UserMessage(err)
	}
	return err.Error()
}

// ---- Utility Functions ----

func parseArgs(args []string) map[string]string {
	opts := make(map[string]string)
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			parts := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
			if len(parts) == 2 {
				opts[parts[0]] = parts[1]
			} else {
				opts[parts[0]] = "true"
			}
		}
	}
	return opts
}

// positional returns the arguments that are not --flags.
func positional(args []string) []string {
	var out []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			out = append(out, arg)
		}
	}
	return out
}

// flagKeys maps CLI flag names to backend query/body keys.
var flagKeys = map[string]string{
	"hospital": "hospital_id",
	"gas":      "gas_id",
	"usuario":  "usuario_id",
	"desde":    "fecha_inicio",
	"hasta":    "fecha_fin",
	"modo":     "modo_suministro",
	"unidad":   "unidad_medida",
	"dias":     "dias_antiguedad",
	"formula":  "formula_quimica",
	"critico":  "es_critico",
	"buscar":   "search",
	"anio":     "año",
}

func backendKey(flag string) string {
	if k, ok := flagKeys[flag]; ok {
		return k
	}
	return flag
}

// buildParams turns the listed flags into query parameters. Flags that were
// not given are left out.
func buildParams(opts map[string]string, keys ...string) client.Params {
	params := client.Params{}
	for _, k := range keys {
		if v, ok := opts[k]; ok {
			params[backendKey(k)] = v
		}
	}
	return params
}

// buildBody turns the listed flags into a JSON payload, converting numbers
// and booleans for the keys declared in typed.
func buildBody(opts map[string]string, typed map[string]string, keys ...string) (map[string]any, error) {
	body := map[string]any{}
	for _, k := range keys {
		v, ok := opts[k]
		if !ok {
			continue
		}
		var (
			val any = v
			err error
		)
		switch typed[k] {
		case "int":
			val, err = strconv.Atoi(v)
		case "float":
			val, err = strconv.ParseFloat(v, 64)
		case "bool":
			val, err = strconv.ParseBool(v)
		}
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", k, err)
		}
		body[backendKey(k)] = val
	}
	return body, nil
}

func requireFlags(opts map[string]string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if opts[k] == "" {
			missing = append(missing, "--"+k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return nil
}

func parseID(args []string, usage string) (int, error) {
	pos := positional(args)
	if len(pos) < 1 {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	id, err := strconv.Atoi(pos[0])
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", pos[0])
	}
	return id, nil
}

// prettyPrint writes v as indented JSON, or YAML with --output=yaml. With
// --select only the part matched by the JSONPath expression is printed.
func (c *CLI) prettyPrint(v any) error {
	if c.query != "" {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		if v, err = jsonpath.Get(c.query, generic); err != nil {
			return fmt.Errorf("--select %s: %w", c.query, err)
		}
	}

	if c.format == "yaml" {
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = c.out.Write(out)
		return err
	}

	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, string(out))
	return nil
}

func (c *CLI) ack(msg *service.Message) error {
	if msg != nil && msg.Mensaje != "" {
		fmt.Fprintln(c.out, msg.Mensaje)
		return nil
	}
	fmt.Fprintln(c.out, "Done")
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
