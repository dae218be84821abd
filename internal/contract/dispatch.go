package contract

import (
	"context"

	"github.com/haierkeys/onchain-diary-service/internal/contract/diaryabi"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// Dispatch 按 ABI 解码调用数据并执行，返回 ABI 编码的结果和事件日志
// 只读方法忽略 blk；writeDiary 回滚时返回 *RevertError
func (d *Diary) Dispatch(ctx context.Context, blk BlockContext, caller common.Address, calldata []byte) (*Result, error) {
	call, err := diaryabi.DecodeCall(calldata)
	if err != nil {
		return nil, errors.Wrap(err, "contract: decode call")
	}

	switch call.Method {
	case diaryabi.MethodWriteDiary:
		content, imageTag, err := call.WriteDiaryArgs()
		if err != nil {
			return nil, err
		}
		log, err := d.WriteDiary(ctx, blk, caller, content, imageTag)
		if err != nil {
			return nil, err
		}
		return &Result{Logs: []*types.Log{log}}, nil

	case diaryabi.MethodGetDiary, diaryabi.MethodGetDiaryImage:
		user, day, err := call.QueryArgs()
		if err != nil {
			return nil, err
		}
		var values []string
		if call.Method == diaryabi.MethodGetDiary {
			values, err = d.GetDiary(ctx, user, day)
		} else {
			values, err = d.GetDiaryImage(ctx, user, day)
		}
		if err != nil {
			return nil, err
		}
		out, err := diaryabi.PackStrings(call.Method, values)
		if err != nil {
			return nil, err
		}
		return &Result{ReturnData: out}, nil

	case diaryabi.MethodGetDailySubmissionCount:
		user, day, err := call.QueryArgs()
		if err != nil {
			return nil, err
		}
		n, err := d.GetDailySubmissionCount(ctx, user, day)
		if err != nil {
			return nil, err
		}
		out, err := diaryabi.PackCount(n)
		if err != nil {
			return nil, err
		}
		return &Result{ReturnData: out}, nil
	}

	return nil, errors.Errorf("contract: unsupported method %s", call.Method)
}
