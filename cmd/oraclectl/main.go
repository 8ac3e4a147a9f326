// oraclectl drives a running gamed instance from the command line: market
// scenarios, game events, trend updates, oracle controls, and travel
// recovery for a client-side cache.
//
// Usage:
//
//	oraclectl [flags] scenario <name>
//	oraclectl [flags] event <preset>
//	oraclectl [flags] trends <bp,bp,bp,bp,bp>
//	oraclectl [flags] fallback on|off
//	oraclectl [flags] amplifier <basis-points>
//	oraclectl [flags] reference
//	oraclectl [flags] prices
//	oraclectl [flags] travel-status <merchant-id>
//	oraclectl [flags] heal <merchant-id>
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/merchant-quest/internal/model"
	"github.com/rickgao/merchant-quest/internal/shadow"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "gamed base URL")
	owner := flag.String("owner", "", "merchant owner, required for heal")
	cachePath := flag.String("cache", defaultCachePath(), "travel cache file")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cli := &client{
		base:   strings.TrimRight(*server, "/"),
		http:   &http.Client{Timeout: *timeout},
		logger: logger,
	}

	var err error
	switch cmd := args[0]; cmd {
	case "scenario":
		err = cli.scenario(args[1:])
	case "event":
		err = cli.event(args[1:])
	case "trends":
		err = cli.trends(args[1:])
	case "fallback":
		err = cli.fallback(args[1:])
	case "amplifier":
		err = cli.amplifier(args[1:])
	case "reference":
		err = cli.post("/admin/reference", struct{}{})
	case "prices":
		err = cli.get("/v1/prices")
	case "travel-status":
		err = cli.travelStatus(args[1:], *cachePath, false, *owner)
	case "heal":
		err = cli.travelStatus(args[1:], *cachePath, true, *owner)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

type client struct {
	base   string
	http   *http.Client
	logger *slog.Logger
}

func (c *client) scenario(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: scenario <name>")
	}
	return c.post("/admin/scenario", map[string]string{"name": args[0]})
}

func (c *client) event(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: event <preset>")
	}
	return c.post("/admin/event", map[string]string{"preset": args[0]})
}

func (c *client) trends(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: trends <bp,bp,bp,bp,bp>")
	}
	parts := strings.Split(args[0], ",")
	trends := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return fmt.Errorf("bad trend %q: %w", p, err)
		}
		trends = append(trends, v)
	}
	return c.post("/admin/trends", map[string]any{"trends": trends})
}

func (c *client) fallback(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: fallback on|off")
	}
	return c.post("/admin/fallback", map[string]bool{"enabled": args[0] == "on"})
}

func (c *client) amplifier(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: amplifier <basis-points>")
	}
	bp, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("bad basis points %q: %w", args[0], err)
	}
	return c.post("/admin/amplifier", map[string]int64{"basisPoints": bp})
}

// travelStatus fetches the authoritative travel status, reconciles the
// local cache against it, and (when healing) submits any completion the
// reconciliation calls for.
func (c *client) travelStatus(args []string, cachePath string, heal bool, owner string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: travel-status|heal <merchant-id>")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("bad merchant id %q: %w", args[0], err)
	}
	if heal && owner == "" {
		return fmt.Errorf("heal requires -owner")
	}

	var st struct {
		MerchantID       uuid.UUID `json:"merchantId"`
		IsTraveling      bool      `json:"isTraveling"`
		City             int       `json:"city"`
		FromCity         int       `json:"fromCity"`
		ToCity           int       `json:"toCity"`
		TimeRemainingSec int64     `json:"timeRemainingSec"`
	}
	if err := c.getInto("/v1/merchants/"+id.String()+"/travel", &st); err != nil {
		return err
	}

	cache, err := shadow.Open(cachePath, c.logger)
	if err != nil {
		return err
	}
	action, err := cache.Reconcile(model.TravelStatus{
		MerchantID:    st.MerchantID,
		IsTraveling:   st.IsTraveling,
		City:          model.CityID(st.City),
		FromCity:      model.CityID(st.FromCity),
		ToCity:        model.CityID(st.ToCity),
		TimeRemaining: time.Duration(st.TimeRemainingSec) * time.Second,
	}, time.Now())
	if err != nil {
		return err
	}

	switch action {
	case shadow.ActionNone, shadow.ActionDiscard:
		fmt.Printf("merchant %s is at rest in %s\n", id, model.CityID(st.City))
	case shadow.ActionResume:
		fmt.Printf("merchant %s is traveling %s -> %s, %ds remaining\n",
			id, model.CityID(st.FromCity), model.CityID(st.ToCity), st.TimeRemainingSec)
	case shadow.ActionComplete:
		fmt.Printf("merchant %s has an elapsed trip to %s\n", id, model.CityID(st.ToCity))
		if heal {
			if err := c.post("/v1/merchants/"+id.String()+"/travel/complete",
				map[string]string{"owner": owner}); err != nil {
				return err
			}
			return cache.Discard(id)
		}
		fmt.Println("run heal to submit the completion")
	}
	return nil
}

func (c *client) post(path string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	return c.report(path, resp)
}

func (c *client) get(path string) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return c.report(path, resp)
}

func (c *client) getInto(path string, dst any) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// report prints the response body and surfaces non-2xx statuses as errors.
func (c *client) report(path string, resp *http.Response) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(strings.TrimSpace(string(body)))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return nil
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "travel-cache.json"
	}
	return home + "/.merchant-quest/travel.json"
}
