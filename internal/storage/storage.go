// Package storage is the object-storage collaborator contract. Item
// photos go through a Store; the lifecycle service aborts a post when a
// Put fails, so an item row never references a key that was not written.
package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for keys that were never stored or
// were deleted.
var ErrNotFound = errors.New("object not found")

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error

	// PublicURL returns a stable URL the presentation layer can embed.
	PublicURL(key string) string

	// PresignedURL returns a URL granting access to key until ttl
	// elapses, for handing an object to a party outside a session.
	PresignedURL(key string, ttl time.Duration) (string, error)
}

// Disk stores objects as files under a base directory. The default
// collaborator for single-node deployments; swap in a CDN-backed Store
// without touching callers.
type Disk struct {
	baseDir   string
	publicURL string
	secret    []byte
}

func NewDisk(baseDir, publicURL, signingSecret string) (*Disk, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Disk{
		baseDir:   baseDir,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    []byte(signingSecret),
	}, nil
}

func (d *Disk) path(key string) (string, error) {
	cleaned := filepath.Clean(key)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(d.baseDir, cleaned), nil
}

func (d *Disk) Put(ctx context.Context, key string, data []byte) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

func (d *Disk) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (d *Disk) Exists(ctx context.Context, key string) (bool, error) {
	path, err := d.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

func (d *Disk) Delete(ctx context.Context, key string) error {
	path, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (d *Disk) PublicURL(key string) string {
	return d.publicURL + "/v1/images/" + key
}

func (d *Disk) PresignedURL(key string, ttl time.Duration) (string, error) {
	if _, err := d.path(key); err != nil {
		return "", err
	}
	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("%s?exp=%d&sig=%s",
		d.PublicURL(key), expires, Sign(d.secret, key, expires)), nil
}

// Sign computes the signature a presigned URL carries for key and the
// unix expiry. VerifySignature checks one; both sides of the URL use
// these so the scheme lives in one place.
func Sign(secret []byte, key string, expires int64) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s\x00%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether sig is valid for key and unexpired.
func VerifySignature(secret []byte, key, expStr, sig string) bool {
	expires, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > expires {
		return false
	}
	expected := Sign(secret, key, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}
