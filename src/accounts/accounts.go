// Package accounts supplies identity credential tuples to the engine.
// Provisioning, interactive authorization and account CRUD belong to an
// external operator surface; this package only loads stored credentials and
// defines the connect capability the monitoring loop needs.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/quizsentry/quizsentry/src/venue"
)

// ErrAuthExpired is returned by a Connector when stored credentials no
// longer authorize; the identity requires external re-authorization.
var ErrAuthExpired = errors.New("account authorization expired")

// Account is one stored identity credential tuple.
type Account struct {
	IdentityID      string `json:"account_id"`
	APIKey          string `json:"api_key"`
	Handle          string `json:"handle"`
	TwoFactorSecret string `json:"two_factor,omitempty"`
}

// Source yields the stored accounts.
type Source interface {
	Load() ([]Account, error)
}

// Connector turns stored credentials into a live venue session.
type Connector interface {
	Connect(ctx context.Context, acct Account) (venue.Session, error)
}

// FileSource reads accounts from a flat JSON file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Load() ([]Account, error) {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}

	var doc struct {
		Accounts []Account `json:"accounts"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}

	seen := make(map[string]bool, len(doc.Accounts))
	for _, acct := range doc.Accounts {
		if acct.IdentityID == "" {
			return nil, fmt.Errorf("account with empty account_id in %s", f.Path)
		}
		if seen[acct.IdentityID] {
			return nil, fmt.Errorf("duplicate account_id %q in %s", acct.IdentityID, f.Path)
		}
		seen[acct.IdentityID] = true
	}
	return doc.Accounts, nil
}
