package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	cfg := TokenConfig{
		SecretKey: "wallet-secret",
		Expiry:    24 * time.Hour,
		Issuer:    "diary-issuer",
	}
	tm := NewTokenManager(cfg)

	address := "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	sid := "session-1"
	ip := "127.0.0.1"

	// 1. 测试生成和解析
	token, err := tm.Generate(address, sid, ip)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	parsed, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Address != address {
		t.Errorf("Expected Address %s, got %s", address, parsed.Address)
	}
	if parsed.SessionID != sid {
		t.Errorf("Expected SessionID %s, got %s", sid, parsed.SessionID)
	}
	if parsed.IP != ip {
		t.Errorf("Expected IP %s, got %s", ip, parsed.IP)
	}
	if parsed.Issuer != cfg.Issuer {
		t.Errorf("Expected Issuer %s, got %s", cfg.Issuer, parsed.Issuer)
	}

	// 2. 测试过期
	expiredCfg := cfg
	expiredCfg.Expiry = -1 * time.Second
	expiredToken, err := NewTokenManager(expiredCfg).Generate(address, sid, ip)
	if err != nil {
		t.Fatalf("Generate (expired) failed: %v", err)
	}
	if _, err = tm.Parse(expiredToken); err == nil {
		t.Error("Expected error for expired token, but got nil")
	}

	// 3. 测试错误的密钥
	wrongKeyCfg := cfg
	wrongKeyCfg.SecretKey = "wrong-secret"
	wrongToken, _ := NewTokenManager(wrongKeyCfg).Generate(address, sid, ip)
	if _, err = tm.Parse(wrongToken); err == nil {
		t.Error("Expected error for token generated with different secret key, but got nil")
	}

	// 4. 测试其它签发者
	otherIssuerCfg := cfg
	otherIssuerCfg.Issuer = "someone-else"
	otherToken, _ := NewTokenManager(otherIssuerCfg).Generate(address, sid, ip)
	if _, err = tm.Parse(otherToken); err == nil {
		t.Error("Expected error for token with a different issuer, but got nil")
	}

	// 5. 测试篡改后的 Token
	if _, err = tm.Parse(token + "xyz"); err == nil {
		t.Error("Expected error for tampered token, but got nil")
	}
}

func TestGetAddress(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetAddress(c); got != "" {
		t.Errorf("Expected empty address, got %s", got)
	}

	SetWallet(c, &WalletEntity{Address: "0xabc"})
	if got := GetAddress(c); got != "0xabc" {
		t.Errorf("Expected 0xabc, got %s", got)
	}
}
