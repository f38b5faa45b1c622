// Package kms provides crypto.Signer for keys held by a remote key management
// service, addressed by URI.
//
// The URI scheme selects the provider, the rest up to the query is the key ID
// in the provider's format, and the query holds provider attributes:
//
//	awskms://arn:aws:kms:us-west-2:111122223333:key/1234abcd?region=us-west-2
//	gcpkms://projects/p/locations/global/keyRings/r/cryptoKeys/k/cryptoKeyVersions/1
//
// Providers register themselves on import, see kms/awskms and kms/gcpkms.
package kms

import (
	"context"
	"crypto"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// Loader returns crypto.Signer for the key
type Loader func(ctx context.Context, keyID string, attrs url.Values) (crypto.Signer, error)

var (
	lockLoaders sync.RWMutex
	loaders     = make(map[string]Loader)
)

// Register provider loader by URI scheme
func Register(scheme string, loader Loader) error {
	lockLoaders.Lock()
	defer lockLoaders.Unlock()

	if _, ok := loaders[scheme]; ok {
		return errors.Errorf("already registered: %s", scheme)
	}

	loaders[scheme] = loader

	return nil
}

// Unregister provider loader by URI scheme
func Unregister(scheme string) (Loader, error) {
	lockLoaders.Lock()
	defer lockLoaders.Unlock()

	if loader, ok := loaders[scheme]; ok {
		delete(loaders, scheme)
		return loader, nil
	}

	return nil, errors.Errorf("not registered: %s", scheme)
}

// Registered returns registered URI schemes
func Registered() []string {
	lockLoaders.RLock()
	defer lockLoaders.RUnlock()

	list := []string{}
	for m := range loaders {
		list = append(list, m)
	}
	sort.Strings(list)
	return list
}

// IsURI returns true if s looks like a KMS key URI
func IsURI(s string) bool {
	scheme, _, ok := strings.Cut(s, "://")
	return ok && scheme != "" && !strings.ContainsAny(scheme, "/?")
}

// ParseURI splits the key URI into scheme, key ID and attributes.
//
// The key ID is not parsed as URL host and path, as ARNs and resource
// names contain characters with special meaning in URLs.
func ParseURI(uri string) (scheme, keyID string, attrs url.Values, err error) {
	if !IsURI(uri) {
		return "", "", nil, errors.Errorf("invalid KMS key URI: %q", uri)
	}
	scheme, rest, _ := strings.Cut(uri, "://")
	keyID, query, _ := strings.Cut(rest, "?")
	if keyID == "" {
		return "", "", nil, errors.Errorf("missing key ID: %q", uri)
	}
	attrs, err = url.ParseQuery(query)
	if err != nil {
		return "", "", nil, errors.WithMessagef(err, "invalid attributes: %q", uri)
	}
	return scheme, keyID, attrs, nil
}

// NewSigner returns crypto.Signer for the key URI
func NewSigner(ctx context.Context, uri string) (crypto.Signer, error) {
	scheme, keyID, attrs, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	lockLoaders.RLock()
	loader, ok := loaders[scheme]
	lockLoaders.RUnlock()
	if !ok {
		return nil, errors.Errorf("provider not registered: %s", scheme)
	}

	return loader(ctx, keyID, attrs)
}
