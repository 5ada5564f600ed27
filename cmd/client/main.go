// cmd/client/main.go
//
// Command-line client for a go-stellar server. Subcommands cover the
// lobby flow (login happens implicitly from -name): create, list,
// join, start, state, orders, and watch, which streams the game's
// events over a websocket until interrupted.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-stellar/pkg/engine"
	"github.com/opd-ai/go-stellar/pkg/render"
)

func main() {
	serverURL := flag.String("server", "http://localhost:4566", "Server base URL")
	playerName := flag.String("name", "Player", "Player name")
	race := flag.String("race", "terran", "Race key when joining")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	c := &client{base: strings.TrimRight(*serverURL, "/")}
	if err := c.login(*playerName); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	var err error
	switch cmd := args[0]; cmd {
	case "create":
		err = c.create(flag.Arg(1))
	case "list":
		err = c.list()
	case "join":
		err = c.join(requireGameID(args), *race)
	case "start":
		err = c.start(requireGameID(args))
	case "state":
		err = c.state(requireGameID(args))
	case "map":
		err = c.renderMap(requireGameID(args))
	case "orders":
		err = c.orders(requireGameID(args), flag.Arg(2))
	case "watch":
		err = c.watch(requireGameID(args))
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", args[0], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: client [flags] <command>

commands:
  create [name]          create a game
  list                   list open games
  join <game-id>         join a game (use -race)
  start <game-id>        start a game
  state <game-id>        print the game snapshot
  map <game-id>          draw the star map
  orders <game-id> <f>   submit orders from JSON file f ("-" for stdin)
  watch <game-id>        stream game events`)
	flag.PrintDefaults()
}

func requireGameID(args []string) string {
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}
	return args[1]
}

type client struct {
	base  string
	token string
}

func (c *client) do(method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) login(name string) error {
	var resp struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	if err := c.do(http.MethodPost, "/api/login", map[string]string{"username": name}, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *client) create(name string) error {
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	var resp map[string]string
	if err := c.do(http.MethodPost, "/api/games", body, &resp); err != nil {
		return err
	}
	fmt.Printf("created game %s (%s)\n", resp["id"], resp["name"])
	return nil
}

func (c *client) list() error {
	var games []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		PlayerCount int    `json:"player_count"`
	}
	if err := c.do(http.MethodGet, "/api/games", nil, &games); err != nil {
		return err
	}
	if len(games) == 0 {
		fmt.Println("no open games")
		return nil
	}
	for _, g := range games {
		fmt.Printf("%s  %-20s  %d player(s)\n", g.ID, g.Name, g.PlayerCount)
	}
	return nil
}

func (c *client) join(gameID, race string) error {
	var resp map[string]uint32
	if err := c.do(http.MethodPost, "/api/games/"+gameID+"/join", map[string]string{"race": race}, &resp); err != nil {
		return err
	}
	fmt.Printf("joined as empire %d\n", resp["empire_id"])
	return nil
}

func (c *client) start(gameID string) error {
	var resp map[string]string
	if err := c.do(http.MethodPost, "/api/games/"+gameID+"/start", struct{}{}, &resp); err != nil {
		return err
	}
	fmt.Printf("game status: %s\n", resp["status"])
	return nil
}

func (c *client) state(gameID string) error {
	var snap json.RawMessage
	if err := c.do(http.MethodGet, "/api/games/"+gameID, nil, &snap); err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, snap, "", "  "); err != nil {
		return err
	}
	fmt.Println(pretty.String())
	return nil
}

func (c *client) renderMap(gameID string) error {
	var snap engine.Snapshot
	if err := c.do(http.MethodGet, "/api/games/"+gameID, nil, &snap); err != nil {
		return err
	}
	render.NewTerminalRenderer(72, 24).Render(os.Stdout, &snap)
	return nil
}

func (c *client) orders(gameID, path string) error {
	if path == "" {
		return fmt.Errorf("orders requires a JSON file argument")
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	var body json.RawMessage = data
	if err := c.do(http.MethodPost, "/api/games/"+gameID+"/orders", body, nil); err != nil {
		return err
	}
	fmt.Println("orders submitted")
	return nil
}

func (c *client) watch(gameID string) error {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") +
		"/api/games/" + gameID + "/events?token=" + c.token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		fmt.Println(string(msg))
	}
}
