// Package console is the interactive front end: a login exchange followed by
// role-filtered menus. It only talks to the services.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/granjapro/granja/internal/domain"
	"github.com/granjapro/granja/internal/report"
	"github.com/granjapro/granja/internal/service"
)

// Services is everything the menus call into.
type Services struct {
	Auth       *service.AuthService
	Lots       *service.LotService
	Production *service.ProductionService
	Analytics  *service.AnalyticsService
	Audit      *service.AuditService
}

type styles struct {
	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	dim   lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		err:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Console drives one interactive session.
type Console struct {
	svc      Services
	in       *bufio.Reader
	out      io.Writer
	passFd   int
	st       styles
	exporter report.Exporter
	dir      string
	nowFn    func() time.Time
	log      *zap.Logger
}

type Option func(*Console)

// WithExportDir sets where workbooks are written. Defaults to "exports".
func WithExportDir(dir string) Option {
	return func(c *Console) { c.dir = dir }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Console) {
		if l != nil {
			c.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Console) { c.nowFn = now }
}

// New reads commands from in and writes to out. Passwords are read without
// echo when in is a terminal.
func New(svc Services, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		svc:    svc,
		in:     bufio.NewReader(in),
		out:    out,
		passFd: -1,
		st:     newStyles(out),
		dir:    "exports",
		nowFn:  time.Now,
		log:    zap.NewNop(),
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.passFd = int(f.Fd())
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("console")
	return c
}

// errExit and errLogout unwind the menus.
var (
	errExit   = errors.New("exit")
	errLogout = errors.New("logout")
)

// Run shows the banner and loops between login and the main menu until the
// user exits or input ends.
func (c *Console) Run() error {
	c.banner()
	defer c.svc.Auth.Logout()

	for {
		if err := c.login(); err != nil {
			return quiet(err)
		}
		var err error
		if c.svc.Auth.IsAdmin() {
			err = c.adminMenu()
		} else {
			err = c.operatorMenu()
		}
		c.svc.Auth.Logout()
		if err != nil {
			return quiet(err)
		}
		c.println(c.st.dim.Render("Session closed."))
	}
}

func quiet(err error) error {
	if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (c *Console) banner() {
	c.println(c.st.title.Render("GranjaPro"))
	c.println(c.st.dim.Render("Poultry farm management"))
	c.println("")
}

// login prompts until a session starts. Unknown names and wrong passwords get
// the same message.
func (c *Console) login() error {
	for {
		name, err := c.readLine("Username: ")
		if err != nil {
			return err
		}
		password, err := c.readPassword("Password: ")
		if err != nil {
			return err
		}

		identity, err := c.svc.Auth.Login(name, password)
		switch {
		case err == nil:
			c.println(c.st.ok.Render(fmt.Sprintf("Welcome, %s (%s).", identity.Name, identity.Role)))
			return nil
		case errors.Is(err, domain.ErrAccountInactive):
			c.println(c.st.err.Render("This account is inactive. Ask an administrator to reactivate it."))
		case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrValidation):
			c.println(c.st.err.Render("Invalid username or password."))
		default:
			c.fail(err)
		}
	}
}

type menuItem struct {
	label string
	run   func() error
}

// menu shows items until one of them returns an error other than a
// rendered failure, or the user picks 0.
func (c *Console) menu(title, back string, items []menuItem) error {
	for {
		c.println("")
		c.println(c.st.title.Render(title))
		for i, it := range items {
			c.printf("  %d. %s\n", i+1, it.label)
		}
		c.printf("  0. %s\n", back)

		choice, err := c.readLine("> ")
		if err != nil {
			return err
		}
		if choice == "0" {
			return nil
		}
		n, convErr := strconv.Atoi(choice)
		if convErr != nil || n < 1 || n > len(items) {
			c.println(c.st.warn.Render("Unknown option."))
			continue
		}
		if err := items[n-1].run(); err != nil {
			if errors.Is(err, errExit) || errors.Is(err, io.EOF) || errors.Is(err, errLogout) {
				return err
			}
			c.fail(err)
		}
	}
}

func (c *Console) mainMenu(items []menuItem) error {
	items = append(items,
		menuItem{"Logout", func() error { return errLogout }},
	)
	err := c.menu("Main menu - "+c.svc.Auth.DisplayName(), "Exit", items)
	switch {
	case err == nil:
		return errExit
	case errors.Is(err, errLogout):
		return nil
	default:
		return err
	}
}

func (c *Console) adminMenu() error {
	return c.mainMenu([]menuItem{
		{"Lots", c.lotsMenu},
		{"Production", c.productionMenu},
		{"Analytics & alerts", c.analyticsMenu},
		{"Users", c.usersMenu},
		{"Audit log", c.auditMenu},
	})
}

func (c *Console) operatorMenu() error {
	return c.mainMenu([]menuItem{
		{"Production", c.operatorProductionMenu},
	})
}

// fail renders an error and lets the menu continue. Errors outside the
// domain set are unexpected and get logged.
func (c *Console) fail(err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrDuplicateName):
	default:
		c.log.Error("operation failed", zap.Error(err))
	}
	c.println(c.st.err.Render(err.Error()))
}

func (c *Console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) readPassword(prompt string) (string, error) {
	if c.passFd < 0 {
		// Piped input keeps the password's own spaces, like term.ReadPassword.
		c.printf("%s", prompt)
		line, err := c.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	c.printf("%s", prompt)
	b, err := term.ReadPassword(c.passFd)
	c.println("")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Console) readInt(prompt string) (int, error) {
	s, err := c.readLine(prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", domain.ErrValidation, s)
	}
	return n, nil
}

// readOptionalInt returns nil for an empty answer.
func (c *Console) readOptionalInt(prompt string) (*int, error) {
	s, err := c.readLine(prompt)
	if err != nil || s == "" {
		return nil, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a whole number", domain.ErrValidation, s)
	}
	return &n, nil
}

// readDate returns midnight of the given day in the console clock's zone.
func (c *Console) readDate(prompt string) (time.Time, error) {
	s, err := c.readLine(prompt)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.ParseInLocation(domain.DateLayout, s, c.nowFn().Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: dates look like 2026-03-10", domain.ErrValidation)
	}
	return d, nil
}

// pick shows a numbered list and returns the chosen index.
func (c *Console) pick(prompt string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, fmt.Errorf("%w: nothing to choose from", domain.ErrNotFound)
	}
	for i, l := range labels {
		c.printf("  %d. %s\n", i+1, l)
	}
	n, err := c.readInt(prompt)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > len(labels) {
		return 0, fmt.Errorf("%w: choose between 1 and %d", domain.ErrValidation, len(labels))
	}
	return n - 1, nil
}

func (c *Console) exportPath(kind string) string {
	name := fmt.Sprintf("%s-%s.xlsx", kind, c.nowFn().Format("20060102-150405"))
	return filepath.Join(c.dir, name)
}

func (c *Console) table(headers []string, rows [][]string) {
	if len(rows) == 0 {
		c.println(c.st.dim.Render("(none)"))
		return
	}
	t := table.New().Border(lipgloss.NormalBorder()).Headers(headers...).Rows(rows...)
	c.println(t.Render())
}

func (c *Console) done(format string, args ...any) {
	c.println(c.st.ok.Render(fmt.Sprintf(format, args...)))
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
