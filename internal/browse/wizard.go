package browse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrWizardAborted is returned when the user declines the summary or input
// ends before the connection is complete.
var ErrWizardAborted = errors.New("connection wizard aborted")

// Engines lists the choices offered by the wizard, in menu order
var Engines = []string{"sqlite", "postgres", "mysql", "mssql", "oracle"}

var defaultPorts = map[string]int{
	"postgres": 5432,
	"mysql":    3306,
	"mssql":    1433,
	"oracle":   1521,
}

// Connection is what the wizard collects
type Connection struct {
	Engine   string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Schema   string

	// Output is the export path, empty when the user skipped the export
	Output    string
	DataMimic bool
}

// DSN renders the connection in the URL form every driver accepts. SQLite
// takes the database file path as is.
func (c Connection) DSN() string {
	if c.Engine == "sqlite" {
		return c.Database
	}
	return c.url().String()
}

func (c Connection) url() *url.URL {
	u := &url.URL{
		Scheme: c.Engine,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
	}
	if c.Engine == "mssql" {
		u.Scheme = "sqlserver"
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	switch {
	case c.Database == "":
	case c.Engine == "mssql":
		u.RawQuery = url.Values{"database": {c.Database}}.Encode()
	default:
		u.Path = "/" + c.Database
	}
	return u
}

// Schemas splits the schema answer; nil means every user schema
func (c Connection) Schemas() []string {
	var schemas []string
	for _, s := range strings.Split(c.Schema, ",") {
		if s = strings.TrimSpace(s); s != "" {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

// Redacted is DSN with the password masked, for display
func (c Connection) Redacted() string {
	if c.Engine == "sqlite" {
		return c.Database
	}
	return c.url().Redacted()
}

type step int

const (
	stepEngine step = iota
	stepHost
	stepPort
	stepDatabase
	stepUser
	stepPassword
	stepSchema
	stepOutput
	stepDataMimic
	stepConfirm
	stepDone
)

// back is typed at any prompt to return to the previous one
const back = "<"

// Wizard prompts for one connection, a line per answer
type Wizard struct {
	in  *bufio.Reader
	out io.Writer
}

// NewWizard creates a wizard reading answers from in and writing prompts to
// out. The wizard reads no further than its last answer, so a *bufio.Reader
// passed here can be handed on to the next reader of the same input.
func NewWizard(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{in: bufio.NewReader(in), out: out}
}

// Ask walks through the prompts until the user confirms the summary
func (w *Wizard) Ask() (Connection, error) {
	var c Connection
	fmt.Fprintf(w.out, "New connection (%q goes back a step)\n", back)

	for s := stepEngine; s != stepDone; {
		answer, err := w.prompt(w.question(s, c))
		if err != nil {
			return Connection{}, err
		}
		if answer == back {
			s = previous(s, c)
			continue
		}
		if s == stepConfirm && !yes(answer, true) {
			return Connection{}, ErrWizardAborted
		}

		next, msg := w.apply(s, answer, &c)
		if msg != "" {
			fmt.Fprintln(w.out, msg)
			continue
		}
		s = next
	}
	return c, nil
}

func (w *Wizard) question(s step, c Connection) string {
	switch s {
	case stepEngine:
		var b strings.Builder
		for i, e := range Engines {
			fmt.Fprintf(&b, "  %d) %s\n", i+1, e)
		}
		b.WriteString("Database type")
		return b.String()
	case stepHost:
		return "Host [localhost]"
	case stepPort:
		return fmt.Sprintf("Port [%d]", defaultPorts[c.Engine])
	case stepDatabase:
		switch c.Engine {
		case "sqlite":
			return "Database file"
		case "oracle":
			return "Service name"
		}
		return "Database name (optional)"
	case stepUser:
		return "Username"
	case stepPassword:
		return "Password"
	case stepSchema:
		return "Schema (optional, comma separated)"
	case stepOutput:
		return "Export path (optional)"
	case stepDataMimic:
		return "Also write a DataMimic model? [y/N]"
	default:
		return fmt.Sprintf("Connect to %s %s? [Y/n]", c.Engine, c.Redacted())
	}
}

// apply records the answer for s and returns the next step, or a message when
// the answer is rejected and the prompt repeats
func (w *Wizard) apply(s step, answer string, c *Connection) (step, string) {
	switch s {
	case stepEngine:
		engine, ok := chooseEngine(answer)
		if !ok {
			return s, fmt.Sprintf("unknown database type %q", answer)
		}
		c.Engine = engine
		if engine == "sqlite" {
			return stepDatabase, ""
		}
		return stepHost, ""
	case stepHost:
		c.Host = answer
		if c.Host == "" {
			c.Host = "localhost"
		}
		return stepPort, ""
	case stepPort:
		if answer == "" {
			c.Port = defaultPorts[c.Engine]
			return stepDatabase, ""
		}
		port, err := strconv.Atoi(answer)
		if err != nil || port <= 0 || port > 65535 {
			return s, fmt.Sprintf("invalid port %q", answer)
		}
		c.Port = port
		return stepDatabase, ""
	case stepDatabase:
		if answer == "" && (c.Engine == "sqlite" || c.Engine == "oracle") {
			return s, "a value is required"
		}
		c.Database = answer
		if c.Engine == "sqlite" {
			return stepSchema, ""
		}
		return stepUser, ""
	case stepUser:
		c.User = answer
		return stepPassword, ""
	case stepPassword:
		c.Password = answer
		return stepSchema, ""
	case stepSchema:
		c.Schema = answer
		return stepOutput, ""
	case stepOutput:
		c.Output = answer
		if answer == "" {
			c.DataMimic = false
			return stepConfirm, ""
		}
		return stepDataMimic, ""
	case stepDataMimic:
		c.DataMimic = yes(answer, false)
		return stepConfirm, ""
	default:
		return stepDone, ""
	}
}

func previous(s step, c Connection) step {
	switch s {
	case stepEngine:
		return stepEngine
	case stepDatabase:
		if c.Engine == "sqlite" {
			return stepEngine
		}
		return stepPort
	case stepSchema:
		if c.Engine == "sqlite" {
			return stepDatabase
		}
		return stepPassword
	case stepConfirm:
		if c.Output == "" {
			return stepOutput
		}
		return stepDataMimic
	}
	return s - 1
}

func (w *Wizard) prompt(question string) (string, error) {
	fmt.Fprintf(w.out, "%s: ", question)
	line, err := w.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		fmt.Fprintln(w.out)
		if errors.Is(err, io.EOF) {
			return "", ErrWizardAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// chooseEngine accepts a menu number or an engine name
func chooseEngine(answer string) (string, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(Engines) {
			return Engines[n-1], true
		}
		return "", false
	}
	answer = strings.ToLower(answer)
	for _, e := range Engines {
		if e == answer {
			return e, true
		}
	}
	return "", false
}

func yes(answer string, def bool) bool {
	switch strings.ToLower(answer) {
	case "":
		return def
	case "y", "yes":
		return true
	}
	return false
}
