// Package diaryabi 日记合约的 ABI 描述与编解码
package diaryabi

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

//go:embed OnChainDiary.json
var abiJSON string

const (
	MethodWriteDiary              = "writeDiary"
	MethodGetDiary                = "getDiary"
	MethodGetDiaryImage           = "getDiaryImage"
	MethodGetDailySubmissionCount = "getDailySubmissionCount"

	EventDiaryWritten = "DiaryWritten"
)

// revertSelector Error(string) 的函数选择器 0x08c379a0
var revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

var parsed = mustParse()

func mustParse() abi.ABI {
	a, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("diaryabi: parse embedded abi: %v", err))
	}
	return a
}

// ABI 返回解析后的合约 ABI
func ABI() abi.ABI {
	return parsed
}

// JSON 返回原始 ABI JSON
func JSON() string {
	return abiJSON
}

// WrittenEventID DiaryWritten 事件的 topic0
func WrittenEventID() common.Hash {
	return parsed.Events[EventDiaryWritten].ID
}

// PackWriteDiary 编码 writeDiary(content, imageHash) 调用数据
func PackWriteDiary(content, imageTag string) ([]byte, error) {
	return parsed.Pack(MethodWriteDiary, content, imageTag)
}

// PackGetDiary 编码 getDiary(user, day)
func PackGetDiary(user common.Address, day uint64) ([]byte, error) {
	return parsed.Pack(MethodGetDiary, user, new(big.Int).SetUint64(day))
}

// PackGetDiaryImage 编码 getDiaryImage(user, day)
func PackGetDiaryImage(user common.Address, day uint64) ([]byte, error) {
	return parsed.Pack(MethodGetDiaryImage, user, new(big.Int).SetUint64(day))
}

// PackGetDailySubmissionCount 编码 getDailySubmissionCount(user, day)
func PackGetDailySubmissionCount(user common.Address, day uint64) ([]byte, error) {
	return parsed.Pack(MethodGetDailySubmissionCount, user, new(big.Int).SetUint64(day))
}

// Call 解码后的调用
type Call struct {
	Method string
	Args   []interface{}
}

// DecodeCall 根据 4 字节选择器解码调用数据
func DecodeCall(calldata []byte) (*Call, error) {
	if len(calldata) < 4 {
		return nil, errors.New("calldata too short")
	}
	method, err := parsed.MethodById(calldata[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(calldata[4:])
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s arguments", method.Name)
	}
	return &Call{Method: method.Name, Args: args}, nil
}

// WriteDiaryArgs 从解码后的 writeDiary 调用中取出参数
func (c *Call) WriteDiaryArgs() (content, imageTag string, err error) {
	if c.Method != MethodWriteDiary || len(c.Args) != 2 {
		return "", "", errors.Errorf("not a %s call", MethodWriteDiary)
	}
	content, ok1 := c.Args[0].(string)
	imageTag, ok2 := c.Args[1].(string)
	if !ok1 || !ok2 {
		return "", "", errors.New("invalid writeDiary arguments")
	}
	return content, imageTag, nil
}

// QueryArgs 从解码后的只读调用中取出 (user, day)
func (c *Call) QueryArgs() (common.Address, uint64, error) {
	if len(c.Args) != 2 {
		return common.Address{}, 0, errors.Errorf("%s: expected 2 arguments", c.Method)
	}
	user, ok := c.Args[0].(common.Address)
	if !ok {
		return common.Address{}, 0, errors.Errorf("%s: invalid user argument", c.Method)
	}
	day, ok := c.Args[1].(*big.Int)
	if !ok || !day.IsUint64() {
		return common.Address{}, 0, errors.Errorf("%s: invalid day argument", c.Method)
	}
	return user, day.Uint64(), nil
}

// PackStrings 编码 getDiary / getDiaryImage 的返回值
func PackStrings(method string, values []string) ([]byte, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, errors.Errorf("unknown method %s", method)
	}
	if values == nil {
		values = []string{}
	}
	return m.Outputs.Pack(values)
}

// UnpackStrings 解码 getDiary / getDiaryImage 的返回值
func UnpackStrings(method string, data []byte) ([]string, error) {
	out, err := parsed.Unpack(method, data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Errorf("%s: unexpected output count %d", method, len(out))
	}
	values, ok := out[0].([]string)
	if !ok {
		return nil, errors.Errorf("%s: unexpected output type %T", method, out[0])
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// PackCount 编码 getDailySubmissionCount 的返回值
func PackCount(n uint64) ([]byte, error) {
	return parsed.Methods[MethodGetDailySubmissionCount].Outputs.Pack(new(big.Int).SetUint64(n))
}

// UnpackCount 解码 getDailySubmissionCount 的返回值
func UnpackCount(data []byte) (uint64, error) {
	out, err := parsed.Unpack(MethodGetDailySubmissionCount, data)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, errors.Errorf("unexpected output count %d", len(out))
	}
	n, ok := out[0].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, errors.Errorf("unexpected count %v", out[0])
	}
	return n.Uint64(), nil
}

// EncodeRevert 按 Solidity require 的格式编码回滚原因 Error(string)
func EncodeRevert(reason string) []byte {
	t, _ := abi.NewType("string", "", nil)
	data, err := abi.Arguments{{Type: t}}.Pack(reason)
	if err != nil {
		// 字符串编码不会失败
		panic(err)
	}
	return append(append([]byte{}, revertSelector...), data...)
}

// DecodeRevert 解码回滚原因
func DecodeRevert(data []byte) (string, error) {
	return abi.UnpackRevert(data)
}

// Written DiaryWritten 事件
type Written struct {
	User    common.Address
	Day     uint64
	Content string
}

// EncodeWrittenLog 生成 DiaryWritten 事件日志，user 与 day 为 indexed topic
func EncodeWrittenLog(contract, user common.Address, day uint64, content string) (*types.Log, error) {
	ev := parsed.Events[EventDiaryWritten]
	data, err := ev.Inputs.NonIndexed().Pack(content)
	if err != nil {
		return nil, err
	}
	return &types.Log{
		Address: contract,
		Topics: []common.Hash{
			ev.ID,
			common.BytesToHash(user.Bytes()),
			common.BigToHash(new(big.Int).SetUint64(day)),
		},
		Data: data,
	}, nil
}

// DecodeWrittenLog 解码 DiaryWritten 事件日志
func DecodeWrittenLog(log types.Log) (*Written, error) {
	ev := parsed.Events[EventDiaryWritten]
	if len(log.Topics) != 3 || log.Topics[0] != ev.ID {
		return nil, errors.New("not a DiaryWritten log")
	}
	out, err := ev.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, errors.Errorf("unexpected data field count %d", len(out))
	}
	content, ok := out[0].(string)
	if !ok {
		return nil, errors.Errorf("unexpected content type %T", out[0])
	}
	day := log.Topics[2].Big()
	if !day.IsUint64() {
		return nil, errors.New("day out of range")
	}
	return &Written{
		User:    common.BytesToAddress(log.Topics[1].Bytes()),
		Day:     day.Uint64(),
		Content: content,
	}, nil
}
