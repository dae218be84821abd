package chain

import (
	"strings"

	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const revertPrefix = "execution reverted: "

// ReasonFromError 从节点返回的错误中取出回滚原因，取不到时返回空串
func ReasonFromError(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if data, decodeErr := hexutil.Decode(raw); decodeErr == nil {
				if reason, unpackErr := diaryabi.DecodeRevert(data); unpackErr == nil {
					return reason
				}
			}
		}
	}

	msg := err.Error()
	if i := strings.Index(msg, revertPrefix); i >= 0 {
		return strings.TrimSpace(msg[i+len(revertPrefix):])
	}
	return ""
}
