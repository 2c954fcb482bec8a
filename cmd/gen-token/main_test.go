package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"leadboard/devapi"
)

func TestGenerateTokensVerifyWithDevAPI(t *testing.T) {
	tokens, err := generateTokens("s3cret", time.Minute, 3, "perf", 5, nil)
	if err != nil {
		t.Fatalf("generateTokens: %v", err)
	}
	auth := devapi.NewSharedSecretAuth([]byte("s3cret"))
	for i, tok := range tokens {
		sub, err := auth.UserIDFromBearer(tok)
		if err != nil {
			t.Fatalf("token %d rejected: %v", i, err)
		}
		if want := []string{"perf-5", "perf-6", "perf-7"}[i]; sub != want {
			t.Fatalf("expected %s, got %s", want, sub)
		}
	}
}

func TestWriteTokens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tokens.json")
	if err := writeTokens(path, []string{"a", "b"}); err != nil {
		t.Fatalf("writeTokens: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got []string
	if err := sonic.Unmarshal(raw, &got); err != nil || len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected file %q (%v)", raw, err)
	}
}
