package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("secure store: key not found")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// Store keeps small secrets (session token, user record) in a single
// encrypted file. The file holds a random salt, a nonce and a sealed JSON map.
type Store struct {
	path string
	key  [keySize]byte
	mu   sync.Mutex
}

// Open derives the sealing key from the passphrase and the file's salt,
// creating the file with a fresh salt on first use.
func Open(path, passphrase string) (*Store, error) {
	salt, err := loadOrCreateSalt(path)
	if err != nil {
		return nil, err
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	s := &Store{path: path}
	copy(s.key[:], derived)

	// Verify the passphrase against existing content, if any.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Save(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.flush(values)
}

func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	delete(values, key)
	return s.flush(values)
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secure store: %w", err)
	}
	if len(data) == saltSize {
		// Fresh file: salt only, nothing sealed yet.
		return map[string]string{}, nil
	}
	if len(data) < saltSize+nonceSize {
		return nil, errors.New("secure store: file is corrupt")
	}

	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])
	sealed := data[saltSize+nonceSize:]

	plain, ok := secretbox.Open(nil, sealed, &nonce, &s.key)
	if !ok {
		return nil, errors.New("secure store: decryption failed (wrong passphrase?)")
	}

	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, fmt.Errorf("failed to decode secure store: %w", err)
	}
	return values, nil
}

func (s *Store) flush(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode secure store: %w", err)
	}

	salt, err := readSalt(s.path)
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nil, plain, &nonce, &s.key)

	out := make([]byte, 0, saltSize+nonceSize+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = append(out, sealed...)
	return os.WriteFile(s.path, out, 0600)
}

func loadOrCreateSalt(path string) ([]byte, error) {
	if salt, err := readSalt(path); err == nil {
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, fmt.Errorf("failed to create secure store: %w", err)
	}
	return salt, nil
}

func readSalt(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secure store: %w", err)
	}
	if len(data) < saltSize {
		return nil, errors.New("secure store: file is corrupt")
	}
	return data[:saltSize], nil
}
