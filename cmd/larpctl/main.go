// ABOUTME: Operator CLI for a running larpd server
// ABOUTME: Manages users, games, and GM grants over the HTTP API

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	c := &client{
		baseURL: os.Getenv("LARPD_URL"),
		token:   os.Getenv("LARPD_TOKEN"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	if c.baseURL == "" {
		c.baseURL = "http://localhost:8080"
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "login":
		err = cmdLogin(c, args)
	case "users":
		err = cmdUsers(c, args)
	case "games":
		err = cmdGames(c, args)
	case "gms":
		err = cmdGMs(c, args)
	case "players":
		err = cmdPlayers(c, args)
	case "plots":
		err = cmdPlots(c, args)
	case "status":
		err = cmdStatus(c)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	yellow := color.New(color.FgYellow)

	fmt.Println("Usage: larpctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login --email EMAIL       Log in and print a bearer token")
	fmt.Println("  status                    Check server health")
	fmt.Println("  users                     List users (GM only)")
	fmt.Println("  users create              Register a user account")
	fmt.Println("  games                     List games")
	fmt.Println("  games show <id>           Show one game")
	fmt.Println("  gms list --game ID        List GM grants for a game")
	fmt.Println("  gms grant                 Grant GM on a game")
	fmt.Println("  gms revoke <id>           Revoke a GM grant")
	fmt.Println("  players --game ID         List players of a game")
	fmt.Println("  plots                     List plots (GM only)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  LARPD_URL     Server base URL (default: http://localhost:8080)")
	fmt.Println("  LARPD_TOKEN   Bearer token from larpctl login")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  export LARPD_TOKEN=$(larpctl login --email gm@example.org)")
	fmt.Println("  larpctl games")
	fmt.Println("  larpctl gms grant --game <game-id> --user <user-id>")
	fmt.Println()
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

// apiError mirrors the server's error body
type apiError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (c *client) do(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && ae.Error != "" {
			return fmt.Errorf("%s (%s)", ae.Error, ae.Kind)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

// cmdLogin prints the bearer token on stdout so it can be captured
func cmdLogin(c *client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	var resp struct {
		Token string `json:"token"`
	}
	err = c.do("POST", "/auth/login", map[string]string{
		"email": *email, "password": password,
	}, &resp)
	if err != nil {
		return err
	}

	fmt.Println(resp.Token)
	return nil
}

func cmdStatus(c *client) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do("GET", "/health", nil, &resp); err != nil {
		return err
	}
	color.Green("%s (%s)", resp.Status, c.baseURL)
	return nil
}

type userRow struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func cmdUsers(c *client, args []string) error {
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdUsersList(c)
	case "create", "add":
		return cmdUsersCreate(c, args)
	default:
		return fmt.Errorf("unknown users subcommand: %s (use list, create)", subcmd)
	}
}

func cmdUsersList(c *client) error {
	var resp struct {
		Items []userRow `json:"items"`
	}
	if err := c.do("GET", "/users?size=100", nil, &resp); err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("(no users)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME")
	for _, u := range resp.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", u.ID, u.Email, u.Name)
	}
	return w.Flush()
}

func cmdUsersCreate(c *client, args []string) error {
	fs := flag.NewFlagSet("users create", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		return fmt.Errorf("--email and --name are required")
	}

	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	var u userRow
	err = c.do("POST", "/auth/register", map[string]string{
		"email": *email, "name": *name, "password": password,
	}, &u)
	if err != nil {
		return err
	}

	color.Green("Created user %s", u.ID)
	return nil
}

type gameRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (g gameRow) dates() string {
	if g.StartDate.IsZero() {
		return "-"
	}
	s := g.StartDate.Format("2006-01-02")
	if g.EndDate.IsZero() {
		return s
	}
	return s + " .. " + g.EndDate.Format("2006-01-02")
}

func cmdGames(c *client, args []string) error {
	if len(args) > 0 && args[0] == "show" {
		if len(args) < 2 {
			return fmt.Errorf("usage: larpctl games show <id>")
		}
		return cmdGameShow(c, args[1])
	}

	var resp struct {
		Items []gameRow `json:"items"`
	}
	if err := c.do("GET", "/games?size=100", nil, &resp); err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("(no games)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDATES")
	for _, g := range resp.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.ID, g.Name, g.dates())
	}
	return w.Flush()
}

func cmdGameShow(c *client, id string) error {
	var g struct {
		gameRow
		Description string `json:"description"`
	}
	if err := c.do("GET", "/games/"+url.PathEscape(id), nil, &g); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Print("Name:  ")
	fmt.Println(g.Name)
	green.Print("ID:    ")
	fmt.Println(g.ID)
	green.Print("Dates: ")
	fmt.Println(g.dates())
	if g.Description != "" {
		fmt.Println()
		fmt.Println(g.Description)
	}
	return nil
}

func cmdGMs(c *client, args []string) error {
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		return cmdGMsList(c, args)
	case "grant", "add":
		return cmdGMsGrant(c, args)
	case "revoke", "rm":
		if len(args) < 1 {
			return fmt.Errorf("usage: larpctl gms revoke <id>")
		}
		if err := c.do("DELETE", "/gms/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		color.Green("Revoked")
		return nil
	default:
		return fmt.Errorf("unknown gms subcommand: %s (use list, grant, revoke)", subcmd)
	}
}

func cmdGMsList(c *client, args []string) error {
	fs := flag.NewFlagSet("gms list", flag.ExitOnError)
	game := fs.String("game", "", "game ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *game == "" {
		return fmt.Errorf("--game is required")
	}

	var resp struct {
		Items []struct {
			ID     string `json:"id"`
			UserID string `json:"user_id"`
		} `json:"items"`
	}
	if err := c.do("GET", "/gms?game_id="+url.QueryEscape(*game), nil, &resp); err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("(no GM grants)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER")
	for _, g := range resp.Items {
		fmt.Fprintf(w, "%s\t%s\n", g.ID, g.UserID)
	}
	return w.Flush()
}

func cmdGMsGrant(c *client, args []string) error {
	fs := flag.NewFlagSet("gms grant", flag.ExitOnError)
	game := fs.String("game", "", "game ID")
	user := fs.String("user", "", "user ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *game == "" || *user == "" {
		return fmt.Errorf("--game and --user are required")
	}

	var gm struct {
		ID string `json:"id"`
	}
	err := c.do("POST", "/gms", map[string]string{
		"game_id": *game, "user_id": *user,
	}, &gm)
	if err != nil {
		return err
	}

	color.Green("Granted GM %s", gm.ID)
	return nil
}

func cmdPlayers(c *client, args []string) error {
	fs := flag.NewFlagSet("players", flag.ExitOnError)
	game := fs.String("game", "", "game ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *game == "" {
		return fmt.Errorf("--game is required")
	}

	var resp struct {
		Items []struct {
			ID              string `json:"id"`
			UserID          string `json:"user_id"`
			PaymentStatus   string `json:"payment_status"`
			PaidAmountCents int64  `json:"paid_amount_cents"`
		} `json:"items"`
	}
	if err := c.do("GET", "/players?game_id="+url.QueryEscape(*game)+"&size=100", nil, &resp); err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("(no players)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tPAYMENT\tPAID")
	for _, p := range resp.Items {
		paid := fmt.Sprintf("%d.%02d", p.PaidAmountCents/100, p.PaidAmountCents%100)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.UserID, p.PaymentStatus, paid)
	}
	return w.Flush()
}

func cmdPlots(c *client, args []string) error {
	var resp struct {
		Items []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
		} `json:"items"`
	}
	if err := c.do("GET", "/plots?size=100", nil, &resp); err != nil {
		return err
	}

	if len(resp.Items) == 0 {
		fmt.Println("(no plots)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSUMMARY")
	for _, p := range resp.Items {
		summary := p.Description
		if i := strings.IndexByte(summary, '\n'); i >= 0 {
			summary = summary[:i]
		}
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, summary)
	}
	return w.Flush()
}
