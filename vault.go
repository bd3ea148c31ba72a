package keyfold

import (
	"github.com/keyfold/client-go/internal/api"
)

// Item is a stored vault entry. Password holds the base64-encoded
// AES-256-GCM envelope as the server sees it; use Client.RevealItem to
// decrypt it.
type Item struct {
	// ID is the server-assigned item identifier.
	ID int
	// Site names the service the credential belongs to.
	Site string
	// Password is the encrypted password envelope (base64).
	Password string
}

func itemFromAPI(it api.VaultItem) Item {
	return Item{
		ID:       it.ID,
		Site:     it.Site,
		Password: it.EncryptedPassword,
	}
}

func itemsFromAPI(items []api.VaultItem) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		out = append(out, itemFromAPI(it))
	}
	return out
}
