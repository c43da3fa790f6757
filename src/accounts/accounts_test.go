package accounts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAccounts(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write accounts: %v", err)
	}
	return path
}

func TestFileSourceLoad(t *testing.T) {
	path := writeAccounts(t, `{
		"accounts": [
			{"account_id": "acct-00", "api_key": "key-0", "handle": "alpha"},
			{"account_id": "acct-01", "api_key": "key-1", "handle": "beta", "two_factor": "otp-seed"}
		]
	}`)

	accts, err := NewFileSource(path).Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(accts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accts))
	}
	if accts[0].IdentityID != "acct-00" || accts[0].APIKey != "key-0" {
		t.Fatalf("first account = %+v", accts[0])
	}
	if accts[1].TwoFactorSecret != "otp-seed" {
		t.Fatalf("second account = %+v", accts[1])
	}
}

func TestFileSourceRejectsDuplicateIDs(t *testing.T) {
	path := writeAccounts(t, `{
		"accounts": [
			{"account_id": "acct-00", "api_key": "a"},
			{"account_id": "acct-00", "api_key": "b"}
		]
	}`)

	if _, err := NewFileSource(path).Load(); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("load err = %v, want duplicate id error", err)
	}
}

func TestFileSourceRejectsEmptyID(t *testing.T) {
	path := writeAccounts(t, `{"accounts": [{"account_id": "", "api_key": "a"}]}`)

	if _, err := NewFileSource(path).Load(); err == nil {
		t.Fatal("load accepted empty account_id")
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Load(); err == nil {
		t.Fatal("load accepted missing file")
	}
}
