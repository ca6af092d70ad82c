package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"llamasearch-client/internal/bootstrap"
	"llamasearch-client/internal/client"
	"llamasearch-client/internal/config"
	"llamasearch-client/internal/constant"
	"llamasearch-client/internal/dto"
	"llamasearch-client/internal/fileenc"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/fatih/color"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load configuration: %v", err)
	}

	token := os.Getenv("LLAMASEARCH_ID_TOKEN")
	if token == "" {
		log.Fatal("LLAMASEARCH_ID_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg, func(context.Context) (string, error) {
		return token, nil
	})
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}
	defer container.Shutdown()

	// 3. Watch the session lifecycle
	lifecycle, err := container.SessionEvents(ctx)
	if err != nil {
		log.Fatalf("Unable to subscribe to session events: %v", err)
	}
	go watchLifecycle(lifecycle)

	// 4. Connect
	sessionId, err := container.Connection.Connect(ctx)
	if err != nil {
		log.Fatalf("Unable to connect: %v", err)
	}
	color.Green("Connected. Session: %s", sessionId)
	color.White("Type a question, '/attach <path>' to stage a file, '/quit' to exit.")

	runShell(ctx, container)
}

// watchLifecycle surfaces disconnects and the terminal expiry signal on the
// console; reconnection itself is automatic.
func watchLifecycle(events <-chan *message.Message) {
	for msg := range events {
		var ev client.SessionEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			msg.Ack()
			continue
		}
		switch ev.Event {
		case client.SessionDisconnected:
			color.Yellow("Connection lost (%s); reconnecting...", ev.Reason)
		case client.SessionConnected:
			color.Green("Reconnected. Session: %s", ev.SessionId)
		case client.SessionExpired:
			color.Red("Session expired. Please restart and sign in again.")
		}
		msg.Ack()
	}
}

// waitForStream blocks until the in-flight response stream finishes.
func waitForStream(ctx context.Context, container *bootstrap.Container) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !container.Transcript.Waiting() && !container.Transcript.Typing() {
				return
			}
		}
	}
}

// runShell reads user input until interrupt or /quit and prints each
// assistant reply once its stream completes.
func runShell(ctx context.Context, container *bootstrap.Container) {
	scanner := bufio.NewScanner(os.Stdin)
	var staged []dto.AttachedFile

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case strings.HasPrefix(line, "/attach "):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/attach "))
			file, err := fileenc.EncodePath(path)
			if err != nil {
				color.Red("Could not attach %s: %v", path, err)
				continue
			}
			staged = append(staged, file)
			color.Yellow("Staged %s (%d staged)", file.Name, len(staged))
			continue
		}

		err := container.ChatService.Send(ctx, dto.SendQueryRequest{Query: line, Files: staged})
		if err != nil {
			if err == client.ErrNotConnected {
				color.Red("Not connected; reconnection may be in progress.")
			} else {
				color.Red("Send failed: %v", err)
			}
			continue
		}
		staged = nil

		printReply(ctx, container)
	}
}

// printReply waits for the current stream to finish, then prints the last
// assistant turn with its citations.
func printReply(ctx context.Context, container *bootstrap.Container) {
	waitForStream(ctx, container)

	turn, ok := container.Transcript.Last()
	if !ok {
		return
	}
	switch turn.Role {
	case constant.ChatMessageRoleAssistant:
		color.Cyan("%s", turn.Content)
		for _, c := range turn.Citations {
			color.Magenta("  [%s]", c.FileName)
		}
	case constant.ChatMessageRoleSystem:
		color.Red("%s", turn.Content)
	}
}
