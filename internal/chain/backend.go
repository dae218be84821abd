package chain

import (
	"context"

	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/pkg/writequeue"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewBackend 按配置创建链后端
// local 模式下 state 保存合约条目，queue 串行同一发送者的交易
func NewBackend(ctx context.Context, cfg *Config, contractCfg contract.Config, state contract.State, queue *writequeue.Manager, log *zap.Logger) (Backend, error) {
	switch cfg.Mode {
	case ModeLocal, "":
		address, ok := cfg.ResolveContractAddress()
		if !ok && cfg.AutoDeploy {
			address = LocalContractAddress()
		}
		if address == (common.Address{}) {
			log.Warn("diary contract address is not configured",
				zap.String("env", EnvContractAddress))
		}
		diary := contract.NewDiary(address, contractCfg, state)
		return NewLocalBackend(cfg, address, diary, queue, log), nil

	case ModeRPC:
		b, err := NewRPCBackend(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if !b.Configured() {
			log.Warn("diary contract address is not configured",
				zap.String("env", EnvContractAddress))
		}
		return b, nil
	}
	return nil, errors.Errorf("unknown chain mode %q", cfg.Mode)
}
