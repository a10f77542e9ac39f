package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/PolycarpusTack/Alexandria-sub001/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT token for the auth handshake")
	room := flag.String("room", "general", "room name")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(frameType string, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", frameType, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: frameType, Data: data}); err != nil {
			return fmt.Errorf("send %s: %w", frameType, err)
		}
		return nil
	}

	if *token != "" {
		if err := send(proto.InboundTypeAuth, proto.AuthData{Token: *token}); err != nil {
			return err
		}
	}

	if err := send(proto.InboundTypeJoinRoom, proto.RoomData{Room: *room}); err != nil {
		return err
	}

	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Error != "" {
			fmt.Printf(" error=%s message=%s", outbound.Error, outbound.Message)
		}
		if outbound.Data != nil {
			data, _ := json.Marshal(outbound.Data)
			fmt.Printf(" data=%s", data)
		}
		fmt.Println()

		if outbound.Type == proto.OutboundTypeRoomJoined {
			return nil
		}
	}
}
