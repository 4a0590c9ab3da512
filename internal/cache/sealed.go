package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// Sealed encrypts every value with an age scrypt passphrase before handing it
// to the wrapped cache. Keys stay in the clear.
type Sealed struct {
	inner      Cache
	passphrase string
	workFactor int
}

var _ Cache = (*Sealed)(nil)

// NewSealed wraps c. A workFactor of 0 keeps age's default.
func NewSealed(c Cache, passphrase string, workFactor int) (*Sealed, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	return &Sealed{inner: c, passphrase: passphrase, workFactor: workFactor}, nil
}

func (s *Sealed) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	id, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return nil, err
	}
	if s.workFactor > 0 {
		id.SetMaxWorkFactor(s.workFactor)
	}
	r, err := age.Decrypt(armor.NewReader(rc), id)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(plain)), nil
}

func (s *Sealed) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *Sealed) Put(ctx context.Context, key, value string) error {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return err
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}

	var buf strings.Builder
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, recipient)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("failed to armor %s: %w", key, err)
	}
	return s.inner.Put(ctx, key, buf.String())
}

func (s *Sealed) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// Close closes the wrapped cache when it holds a connection.
func (s *Sealed) Close() error {
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
