package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/wallet"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/stretchr/testify/assert"
)

func TestClassifyWriteError(t *testing.T) {
	kind, c := ClassifyWriteError(nil)
	assert.Empty(t, kind)
	assert.Nil(t, c)

	tests := []struct {
		name string
		err  error
		kind domain.WriteErrorKind
		want *code.Code
	}{
		{"daily limit revert", &contract.RevertError{Reason: "Daily limit reached"}, domain.ErrorKindDailyLimit, code.ErrorDailyLimitReached},
		{"already written revert", &contract.RevertError{Reason: "Already written today"}, domain.ErrorKindDailyLimit, code.ErrorAlreadyWrittenToday},
		{"node error text", errors.New("execution reverted: Daily limit reached"), domain.ErrorKindDailyLimit, code.ErrorDailyLimitReached},
		{"wallet rejected", wallet.ErrUserRejected, domain.ErrorKindUserRejected, code.ErrorUserRejected},
		{"wrapped rejection", fmt.Errorf("sign: %w", wallet.ErrUserRejected), domain.ErrorKindUserRejected, code.ErrorUserRejected},
		{"rpc rejection text", errors.New("User rejected the request. Details: denied"), domain.ErrorKindUserRejected, code.ErrorUserRejected},
		{"empty content", code.ErrorContentEmpty, domain.ErrorKindValidation, code.ErrorContentEmpty},
		{"in flight", code.ErrorWriteInFlight, domain.ErrorKindValidation, code.ErrorWriteInFlight},
		{"not configured", code.ErrorContractNotConfigured, domain.ErrorKindValidation, code.ErrorContractNotConfigured},
		{"too long revert", &contract.RevertError{Reason: "Content too long"}, domain.ErrorKindFailed, code.ErrorSubmitFailed},
		{"timeout", context.DeadlineExceeded, domain.ErrorKindFailed, code.ErrorSubmitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, c := ClassifyWriteError(tt.err)
			assert.Equal(t, tt.kind, kind)
			assert.ErrorIs(t, c, tt.want)
		})
	}

	// 其它失败附带原始错误
	_, c = ClassifyWriteError(errors.New("nonce too low"))
	assert.Contains(t, c.Error(), "nonce too low")
}
