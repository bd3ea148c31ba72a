// Package keyfold provides a Go client SDK for Keyfold, a zero-knowledge
// password manager.
//
// The SDK implements the client side of the Keyfold protocol: it derives
// the master key from the user's credentials, authenticates with a
// derived auth hash so the server never sees the password, and encrypts
// every vault secret locally with a per-account vault key. The server
// stores only ciphertext, the hashed auth hash, and the wrapped vault
// key.
//
// Basic usage:
//
//	client, err := keyfold.New("https://api.example.com")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Login(ctx, "a@b.com", "correct horse"); err != nil {
//	    log.Fatal(err)
//	}
//
//	item, err := client.AddItem(ctx, "github.com", "hunter2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	password, err := client.RevealItem(ctx, *item)
//	fmt.Println(password)
//
// Changing the master password rotates the vault key and re-encrypts
// every stored item in one atomic batch:
//
//	if err := client.ChangePassword(ctx, "correct horse", "battery staple"); err != nil {
//	    log.Fatal(err)
//	}
package keyfold
