package contract

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const propDay = 20379
const propTime = propDay * 86400

// 任意 1..280 字节的内容当天首次写入成功，并能原样读回
func TestProperty_FirstWriteRetrievable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("first write is retrievable verbatim", prop.ForAll(
		func(content string) bool {
			ctx := context.Background()
			d := NewDiary(contractAddr, Config{DailyLimit: 1, MaxContentBytes: 280}, NewMemoryState())

			if _, err := d.WriteDiary(ctx, block(1, propTime), owner, content, ""); err != nil {
				t.Logf("write %q: %v", content, err)
				return false
			}
			entries, err := d.GetDiary(ctx, owner, propDay)
			return err == nil && len(entries) == 1 && entries[0] == content
		},
		gen.AnyString().SuchThat(func(s string) bool {
			return len(s) >= 1 && len(s) <= 280
		}),
	))

	properties.TestingRun(t)
}

// 超过 280 字节的内容总是回滚，且状态不变
func TestProperty_TooLongNoStateChange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("oversized content reverts without state change", prop.ForAll(
		func(extra int, unit string) bool {
			ctx := context.Background()
			d := NewDiary(contractAddr, Config{}, NewMemoryState())

			content := strings.Repeat(unit, 281+extra)
			_, err := d.WriteDiary(ctx, block(1, propTime), owner, content, "")
			revert, ok := err.(*RevertError)
			if !ok || revert.Reason != ReasonContentTooLong {
				return false
			}
			n, err := d.GetDailySubmissionCount(ctx, owner, propDay)
			return err == nil && n == 0
		},
		gen.IntRange(0, 500),
		gen.OneConstOf("a", "心", "😀"),
	))

	properties.TestingRun(t)
}

// 任意写入序列之后，三个读取方法的长度保持一致且不超过每日上限
func TestProperty_ReadsStayAligned(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	users := []common.Address{owner, other}

	properties.Property("getDiary, getDiaryImage and count agree", prop.ForAll(
		func(ops []int, limit uint64) bool {
			ctx := context.Background()
			d := NewDiary(contractAddr, Config{DailyLimit: limit}, NewMemoryState())

			for i, op := range ops {
				user := users[op%2]
				ts := uint64(propTime + (op/2%3)*86400)
				_, _ = d.WriteDiary(ctx, block(uint64(i+1), ts), user, "entry", "emoji:happy")
			}

			for _, user := range users {
				for day := uint64(propDay); day < propDay+3; day++ {
					entries, err1 := d.GetDiary(ctx, user, day)
					images, err2 := d.GetDiaryImage(ctx, user, day)
					n, err3 := d.GetDailySubmissionCount(ctx, user, day)
					if err1 != nil || err2 != nil || err3 != nil {
						return false
					}
					if uint64(len(entries)) != n || uint64(len(images)) != n || n > limit {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 5)),
		gen.UInt64Range(1, 5),
	))

	properties.TestingRun(t)
}
