// Package wallet 钱包账户与会话
package wallet

import (
	"crypto/ecdsa"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Config 钱包配置
type Config struct {
	// PrivateKeys 十六进制私钥列表
	PrivateKeys []string `yaml:"private-keys"`
	// WatchOnly 只读账户地址，可连接查看但不能签名
	WatchOnly []string `yaml:"watch-only"`
	// DevAccounts 本地链额外生成的开发账户数量
	DevAccounts int `yaml:"dev-accounts" default:"3"`
	// TokenExpiry 会话 Token 有效期
	TokenExpiry string `yaml:"token-expiry" default:"7d"`
}

// Account 钥匙库中的账户
type Account struct {
	Address common.Address
	Label   string
	key     *ecdsa.PrivateKey
}

// WatchOnly 没有私钥的账户
func (a *Account) WatchOnly() bool {
	return a.key == nil
}

// AccountInfo 对外展示的账户信息
type AccountInfo struct {
	Address   string `json:"address"`
	Label     string `json:"label"`
	WatchOnly bool   `json:"watchOnly"`
}

// Keystore 账户集合
type Keystore struct {
	mu       sync.RWMutex
	accounts map[common.Address]*Account
}

// DevKey 第 i 个开发账户的私钥，由固定种子派生，每次启动相同
func DevKey(i int) *ecdsa.PrivateKey {
	seed := crypto.Keccak256([]byte("diary-dev-account:" + strconv.Itoa(i)))
	key, err := crypto.ToECDSA(seed)
	if err != nil {
		// keccak 输出落在曲线阶之外的概率可以忽略
		panic(err)
	}
	return key
}

// NewKeystore 从配置加载账户，withDev 为 true 时追加开发账户
func NewKeystore(cfg Config, withDev bool) (*Keystore, error) {
	ks := &Keystore{accounts: make(map[common.Address]*Account)}

	for i, raw := range cfg.PrivateKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
		if err != nil {
			return nil, errors.Wrapf(err, "wallet.private-keys[%d]", i)
		}
		ks.add(&Account{Address: crypto.PubkeyToAddress(key.PublicKey), Label: "account " + strconv.Itoa(i), key: key})
	}

	for i, raw := range cfg.WatchOnly {
		if !common.IsHexAddress(raw) {
			return nil, errors.Errorf("wallet.watch-only[%d]: invalid address %q", i, raw)
		}
		addr := common.HexToAddress(raw)
		if _, ok := ks.accounts[addr]; ok {
			continue
		}
		ks.add(&Account{Address: addr, Label: "watch-only " + strconv.Itoa(i)})
	}

	if withDev {
		for i := 0; i < cfg.DevAccounts; i++ {
			key := DevKey(i)
			ks.add(&Account{Address: crypto.PubkeyToAddress(key.PublicKey), Label: "dev " + strconv.Itoa(i), key: key})
		}
	}
	return ks, nil
}

func (k *Keystore) add(a *Account) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.accounts[a.Address] = a
}

// Get 按地址查找账户
func (k *Keystore) Get(addr common.Address) (*Account, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	a, ok := k.accounts[addr]
	return a, ok
}

// Accounts 全部账户，按标签排序
func (k *Keystore) Accounts() []AccountInfo {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]AccountInfo, 0, len(k.accounts))
	for _, a := range k.accounts {
		out = append(out, AccountInfo{Address: a.Address.Hex(), Label: a.Label, WatchOnly: a.WatchOnly()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Len 账户数量
func (k *Keystore) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.accounts)
}
