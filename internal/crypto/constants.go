package crypto

const (
	// MasterKeySize is the size of the PBKDF2-derived master key in bytes.
	MasterKeySize = 32
	// StretchedKeySize is the size of the HKDF-stretched master key in bytes.
	StretchedKeySize = 64
	// VaultKeySize is the size of the random vault (content) key in bytes.
	VaultKeySize = 32

	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// PBKDF2Iterations is the fixed iteration count for master key derivation.
	// It matches the work factor the server applies to the stored auth hash,
	// so a leaked database costs an attacker at least as much per guess as
	// the client paid at login.
	PBKDF2Iterations = 600_000

	// AuthHashIterations is the iteration count for the auth hash pass.
	// The auth hash is already keyed on the slow-derived master key; the
	// second pass only needs to be a distinct derivation path.
	AuthHashIterations = 1

	// StretchContext is the HKDF info label used when expanding the master
	// key into the key-wrapping key, for domain separation.
	StretchContext = "keyfold:stretch:v1"
)

// AlgsCiphersuite is the canonical string representation of the algorithm suite.
var AlgsCiphersuite = "PBKDF2-SHA-256:HKDF-SHA-512:AES-256-GCM"
