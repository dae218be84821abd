package diaryabi

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

func TestSelectors(t *testing.T) {
	a := ABI()
	assert.Equal(t, "writeDiary(string,string)", a.Methods[MethodWriteDiary].Sig)
	assert.Equal(t, "getDiary(address,uint256)", a.Methods[MethodGetDiary].Sig)
	assert.Equal(t, "getDiaryImage(address,uint256)", a.Methods[MethodGetDiaryImage].Sig)
	assert.Equal(t, "getDailySubmissionCount(address,uint256)", a.Methods[MethodGetDailySubmissionCount].Sig)
	assert.Equal(t, "DiaryWritten(address,uint256,string)", a.Events[EventDiaryWritten].Sig)
}

func TestWriteDiaryCall(t *testing.T) {
	data, err := PackWriteDiary("hello world", "")
	require.NoError(t, err)

	call, err := DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodWriteDiary, call.Method)

	content, tag, err := call.WriteDiaryArgs()
	require.NoError(t, err)
	assert.Equal(t, "hello world", content)
	assert.Equal(t, "", tag)

	_, _, err = call.QueryArgs()
	assert.Error(t, err)
}

func TestQueryCall(t *testing.T) {
	data, err := PackGetDiaryImage(alice, 20379)
	require.NoError(t, err)

	call, err := DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, MethodGetDiaryImage, call.Method)

	user, day, err := call.QueryArgs()
	require.NoError(t, err)
	assert.Equal(t, alice, user)
	assert.Equal(t, uint64(20379), day)
}

func TestDecodeCallErrors(t *testing.T) {
	_, err := DecodeCall([]byte{0x01, 0x02})
	assert.Error(t, err)

	_, err = DecodeCall([]byte{0xde, 0xad, 0xbe, 0xef})
	assert.Error(t, err)
}

func TestResultRoundTrip(t *testing.T) {
	out, err := PackStrings(MethodGetDiary, []string{"a", "bb"})
	require.NoError(t, err)
	values, err := UnpackStrings(MethodGetDiary, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bb"}, values)

	out, err = PackStrings(MethodGetDiaryImage, nil)
	require.NoError(t, err)
	values, err = UnpackStrings(MethodGetDiaryImage, out)
	require.NoError(t, err)
	assert.NotNil(t, values)
	assert.Empty(t, values)

	out, err = PackCount(3)
	require.NoError(t, err)
	n, err := UnpackCount(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestRevert(t *testing.T) {
	data := EncodeRevert("Daily limit reached")
	assert.Equal(t, "08c379a0", hex.EncodeToString(data[:4]))

	reason, err := DecodeRevert(data)
	require.NoError(t, err)
	assert.Equal(t, "Daily limit reached", reason)

	_, err = DecodeRevert([]byte{1, 2, 3, 4})
	assert.Error(t, err)
}

func TestWrittenLog(t *testing.T) {
	contract := common.HexToAddress("0x9C12221922Ad0AD07a83A0560a00350fee5aCcc5")
	log, err := EncodeWrittenLog(contract, alice, 20379, "hello world")
	require.NoError(t, err)
	assert.Equal(t, contract, log.Address)
	assert.Equal(t, WrittenEventID(), log.Topics[0])

	ev, err := DecodeWrittenLog(*log)
	require.NoError(t, err)
	assert.Equal(t, alice, ev.User)
	assert.Equal(t, uint64(20379), ev.Day)
	assert.Equal(t, "hello world", ev.Content)

	log.Topics = log.Topics[:1]
	_, err = DecodeWrittenLog(*log)
	assert.Error(t, err)
}
