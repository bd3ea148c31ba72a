// keyfoldctl is a small command-line front end for the Keyfold vault.
// Configuration comes from the environment (a .env file is honored):
//
//	KEYFOLD_URL    server base URL (required)
//	KEYFOLD_EMAIL  account email (prompted for when unset)
//	KEYFOLD_DEBUG  set to 1 for debug logging
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	keyfold "github.com/keyfold/client-go"
	"github.com/keyfold/client-go/passgen"
)

func main() {
	if len(os.Args) < 2 {
		fatal("usage: keyfoldctl <register|add|list|reveal|delete|rotate|generate|share> [args]")
	}

	_ = godotenv.Load()

	// generate needs no server.
	if os.Args[1] == "generate" {
		generate(os.Args[2:])
		return
	}

	baseURL := os.Getenv("KEYFOLD_URL")
	if baseURL == "" {
		fatal("KEYFOLD_URL environment variable is required")
	}

	opts := []keyfold.Option{}
	if os.Getenv("KEYFOLD_DEBUG") == "1" {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, keyfold.WithLogger(logger))
	}

	client, err := keyfold.New(baseURL, opts...)
	if err != nil {
		fatal("create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "register":
		email, password := credentials(true)
		if err := client.Register(ctx, email, password); err != nil {
			fatal("register: %v", err)
		}
		fmt.Println("account created, vault unlocked")
	case "add":
		if len(os.Args) < 3 {
			fatal("usage: keyfoldctl add <site> [password]")
		}
		login(ctx, client)
		password := ""
		if len(os.Args) >= 4 {
			password = os.Args[3]
		} else {
			password, err = passgen.Password(passgen.Config{})
			if err != nil {
				fatal("generate password: %v", err)
			}
			fmt.Printf("generated password: %s\n", password)
		}
		item, err := client.AddItem(ctx, os.Args[2], password)
		if err != nil {
			fatal("add item: %v", err)
		}
		fmt.Printf("stored item %d for %s\n", item.ID, item.Site)
	case "list":
		login(ctx, client)
		items, err := client.Items(ctx)
		if err != nil {
			fatal("list items: %v", err)
		}
		for _, it := range items {
			fmt.Printf("%4d  %s\n", it.ID, it.Site)
		}
	case "reveal":
		if len(os.Args) < 3 {
			fatal("usage: keyfoldctl reveal <id>")
		}
		id, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fatal("bad item id %q", os.Args[2])
		}
		login(ctx, client)
		items, err := client.Items(ctx)
		if err != nil {
			fatal("list items: %v", err)
		}
		for _, it := range items {
			if it.ID == id {
				password, err := client.RevealItem(ctx, it)
				if err != nil {
					fatal("reveal: %v", err)
				}
				fmt.Println(password)
				return
			}
		}
		fatal("no item with id %d", id)
	case "delete":
		if len(os.Args) < 3 {
			fatal("usage: keyfoldctl delete <id>")
		}
		id, err := strconv.Atoi(os.Args[2])
		if err != nil {
			fatal("bad item id %q", os.Args[2])
		}
		login(ctx, client)
		if err := client.DeleteItem(ctx, id); err != nil {
			fatal("delete: %v", err)
		}
		fmt.Printf("deleted item %d\n", id)
	case "rotate":
		email, current := credentials(false)
		if err := client.Login(ctx, email, current); err != nil {
			fatal("login: %v", err)
		}
		next := promptPassword("new master password: ")
		confirm := promptPassword("repeat new master password: ")
		if next != confirm {
			fatal("passwords do not match")
		}
		if err := client.ChangePassword(ctx, current, next); err != nil {
			fatal("change password: %v", err)
		}
		fmt.Println("master password changed, all items re-encrypted")
	case "share":
		if len(os.Args) < 3 {
			fatal("usage: keyfoldctl share <content>")
		}
		login(ctx, client)
		secret, err := client.ShareSecret(ctx, os.Args[2], keyfold.ShareOptions{
			MaxAccesses: 1,
			ExpiresIn:   24 * time.Hour,
		})
		if err != nil {
			fatal("share: %v", err)
		}
		fmt.Printf("token: %s (expires %s)\n", secret.Token, secret.ExpiresAt)
	default:
		fatal("unknown command: %s", os.Args[1])
	}
}

func generate(args []string) {
	if len(args) > 0 && args[0] == "phrase" {
		words := 6
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				fatal("bad word count %q", args[1])
			}
			words = n
		}
		phrase, err := passgen.Passphrase(words, "-")
		if err != nil {
			fatal("generate passphrase: %v", err)
		}
		fmt.Println(phrase)
		return
	}

	cfg := passgen.Config{}
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fatal("bad length %q", args[0])
		}
		cfg.Length = n
	}
	password, err := passgen.Password(cfg)
	if err != nil {
		fatal("generate password: %v", err)
	}
	fmt.Println(password)
}

func login(ctx context.Context, client *keyfold.Client) {
	email, password := credentials(false)
	if err := client.Login(ctx, email, password); err != nil {
		fatal("login: %v", err)
	}
}

func credentials(confirm bool) (string, string) {
	email := os.Getenv("KEYFOLD_EMAIL")
	if email == "" {
		fmt.Print("email: ")
		fmt.Scanln(&email)
	}
	email = strings.TrimSpace(email)

	password := promptPassword("master password: ")
	if confirm {
		again := promptPassword("repeat master password: ")
		if password != again {
			fatal("passwords do not match")
		}
	}
	return email, password
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("read password: %v", err)
	}
	return string(raw)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
