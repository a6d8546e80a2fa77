package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"deals-chat-backend/internal/analytics"
	"deals-chat-backend/internal/backend"
	"deals-chat-backend/internal/chat"
	"deals-chat-backend/internal/config"
)

func main() {
	cfg := config.Load()
	backendURL := flag.String("backend", cfg.BackendURL, "Storefront backend API URL")
	timeout := flag.Duration("timeout", cfg.BackendTimeout, "Backend request timeout (0 = none)")
	productID := flag.String("product", "", "Start on the page of this product")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
		os.Exit(0)
	}()

	client, err := backend.NewClient(backend.Options{
		BaseURL:      *backendURL,
		Timeout:      *timeout,
		Token:        cfg.BackendToken,
		ClientID:     cfg.BackendClientID,
		ClientSecret: cfg.BackendClientSecret,
		TokenURL:     cfg.BackendTokenURL,
		Scopes:       cfg.BackendScopes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	controller := chat.NewController(
		analytics.NewDispatcher(client.Fetchers()),
		client,
		chat.WithBackendPort(client.Port()),
	)
	session := chat.NewSession(uuid.NewString())
	session.Open()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Println(boldGreen("Holiday Deals chat"))
	fmt.Println(faint("Type 'product <id>' to open a product page, 'product' to leave it, 'exit' to quit."))
	fmt.Println()
	for _, m := range session.Messages() {
		printBot(boldCyan, m.Text)
	}
	if *productID != "" {
		focus(ctx, controller, session, *productID, faint)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(boldGreen("You: "))
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case strings.EqualFold(input, "exit"):
			return
		case input == "":
			continue
		case strings.EqualFold(input, "product"):
			session.ClearProduct()
			fmt.Println(faint("Left the product page."))
			continue
		case strings.HasPrefix(strings.ToLower(input), "product "):
			focus(ctx, controller, session, strings.TrimSpace(input[len("product "):]), faint)
			continue
		}

		fmt.Println(faint(chat.PlaceholderText))
		added, err := controller.Send(ctx, session, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printBot(boldCyan, added[len(added)-1].Text)
	}
}

func focus(ctx context.Context, controller *chat.Controller, session *chat.Session, id string, faint func(a ...any) string) {
	p, err := controller.FocusProduct(ctx, session, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Println(faint(fmt.Sprintf("Now viewing %s.", analytics.TruncateName(p.Name))))
}

func printBot(label func(a ...any) string, text string) {
	fmt.Printf("%s %s\n\n", label("Bot:"), text)
}
