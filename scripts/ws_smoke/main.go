package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/ircsession/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "event feed address")
	token := flag.String("token", "", "API token from POST /api/login")
	channel := flag.String("channel", "", "only stream events for this channel")
	count := flag.Int("count", 5, "number of events to print before exiting")
	timeout := flag.Duration("timeout", 30*time.Second, "total timeout for the run")
	flag.Parse()

	u, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	if *token != "" {
		q.Set("token", *token)
	}
	if *channel != "" {
		q.Add("channel", *channel)
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var hello struct {
		Type string      `json:"type"`
		Data proto.Hello `json:"data"`
	}
	if err := wsjson.Read(ctx, conn, &hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Type != proto.OutboundTypeHello {
		return fmt.Errorf("expected hello, got %q", hello.Type)
	}
	fmt.Printf("Connected: protocol=%d status=%s nick=%s channels=%v\n",
		hello.Data.Protocol, hello.Data.Status, hello.Data.Nick, hello.Data.Channels)

	for seen := 0; seen < *count; seen++ {
		var frame struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var evt proto.EventData
		if err := json.Unmarshal(frame.Data, &evt); err != nil {
			fmt.Printf("Raw data: %s\n", string(frame.Data))
			return fmt.Errorf("unmarshal event: %w", err)
		}

		switch frame.Event {
		case "message", "notice":
			fmt.Printf("%s: target=%s nick=%s text=%q ts=%d\n", frame.Event, evt.Target, evt.Nick, evt.Text, evt.TS)
		case "user_joined", "self_joined", "user_parted", "self_parted":
			fmt.Printf("%s: channel=%s nick=%s\n", frame.Event, evt.Channel, evt.Nick)
		default:
			fmt.Printf("%s: %s\n", frame.Event, string(frame.Data))
		}
	}
	return nil
}
