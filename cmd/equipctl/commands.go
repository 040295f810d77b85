package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"equipment-go/internal/client"
	"equipment-go/internal/dto"
)

const (
	defaultServer = "http://localhost:8000/api"
	usage         = `usage: equipctl [-server URL] [-token TOKEN] <command> [args]

commands:
  register -username U -password P [-email E]
  login -username U -password P
  list
  show <id>
  upload <file.csv>
  pdf <id> [-o file]
  delete <id>
`
)

var errUsage = errors.New("invalid usage")

type cli struct {
	client    *client.Client
	stdout    io.Writer
	tokenFile string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	global := flag.NewFlagSet("equipctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	server := global.String("server", envOr(getenv, "EQUIP_SERVER", defaultServer), "API地址")
	token := global.String("token", getenv("EQUIP_TOKEN"), "认证Token")
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	c := &cli{
		client:    client.New(*server),
		stdout:    stdout,
		tokenFile: tokenPath(getenv),
	}
	if *token == "" {
		*token = c.loadToken()
	}
	c.client.SetToken(*token)

	cmd, rest := global.Arg(0), global.Args()[1:]
	var err error
	switch cmd {
	case "register":
		err = c.register(ctx, rest)
	case "login":
		err = c.login(ctx, rest)
	case "list":
		err = c.list(ctx)
	case "show":
		err = c.show(ctx, rest)
	case "upload":
		err = c.upload(ctx, rest)
	case "pdf":
		err = c.pdf(ctx, rest)
	case "delete":
		err = c.delete(ctx, rest)
	default:
		err = errUsage
	}

	if errors.Is(err, errUsage) {
		fmt.Fprint(stderr, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", err)
		return 1
	}
	return 0
}

func envOr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// tokenPath 默认保存在 $HOME/.equipctl/token
func tokenPath(getenv func(string) string) string {
	home := getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".equipctl", "token")
}

func (c *cli) loadToken() string {
	if c.tokenFile == "" {
		return ""
	}
	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *cli) saveToken(token string) error {
	if c.tokenFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.tokenFile), 0o700); err != nil {
		return fmt.Errorf("保存Token失败: %w", err)
	}
	if err := os.WriteFile(c.tokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("保存Token失败: %w", err)
	}
	return nil
}

func credentialsFlags(name string, args []string, withEmail bool) (username, password, email string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	u := fs.String("username", "", "")
	p := fs.String("password", "", "")
	e := fs.String("email", "", "")
	if err := fs.Parse(args); err != nil {
		return "", "", "", errUsage
	}
	if !withEmail && *e != "" {
		return "", "", "", errUsage
	}
	return *u, *p, *e, nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	username, password, email, err := credentialsFlags("register", args, true)
	if err != nil {
		return err
	}

	resp, err := c.client.Register(ctx, &dto.RegisterRequest{Username: username, Password: password, Email: email})
	if err != nil {
		return err
	}
	if err := c.saveToken(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "registered as %s (id %d)\n", resp.User.Username, resp.User.ID)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	username, password, _, err := credentialsFlags("login", args, false)
	if err != nil {
		return err
	}

	resp, err := c.client.Login(ctx, &dto.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}
	if err := c.saveToken(resp.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "logged in as %s\n", resp.User.Username)
	return nil
}

func (c *cli) list(ctx context.Context) error {
	datasets, err := c.client.ListDatasets(ctx)
	if err != nil {
		return err
	}
	if len(datasets) == 0 {
		fmt.Fprintln(c.stdout, "no datasets")
		return nil
	}
	renderDatasets(c.stdout, datasets)
	return nil
}

func parseID(args []string) (uint, []string, error) {
	if len(args) == 0 {
		return 0, nil, errUsage
	}
	id, err := strconv.ParseUint(args[0], 10, 63)
	if err != nil || id == 0 {
		return 0, nil, fmt.Errorf("invalid dataset id %q", args[0])
	}
	return uint(id), args[1:], nil
}

func (c *cli) show(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	detail, err := c.client.GetDataset(ctx, id)
	if err != nil {
		return err
	}
	renderDetail(c.stdout, detail, true)
	return nil
}

func (c *cli) upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	detail, err := c.client.Upload(ctx, filepath.Base(args[0]), f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "uploaded dataset %d\n", detail.ID)
	renderDetail(c.stdout, detail, false)
	return nil
}

func (c *cli) pdf(ctx context.Context, args []string) error {
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("pdf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	out := fs.String("o", fmt.Sprintf("equipment_report_%d.pdf", id), "")
	if err := fs.Parse(rest); err != nil {
		return errUsage
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	n, err := c.client.DownloadPDF(ctx, id, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(*out)
		return err
	}

	fmt.Fprintf(c.stdout, "wrote %s (%d bytes)\n", *out, n)
	return nil
}

func (c *cli) delete(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}

	if err := c.client.DeleteDataset(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "deleted dataset %d\n", id)
	return nil
}
