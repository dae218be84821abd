package service

import (
	"errors"
	"strings"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/wallet"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
)

// 提交前即被拒绝的错误
var validationCodes = []*code.Code{
	code.ErrorContentEmpty,
	code.ErrorContentTooLong,
	code.ErrorWriteInFlight,
	code.ErrorUploadInProgress,
	code.ErrorWalletNotConnected,
	code.ErrorContractNotConfigured,
	code.ErrorAccountNotFound,
}

// ClassifyWriteError 将写入失败归类并给出对用户展示的错误
// 每日上限和用户拒绝使用翻译后的消息，其它失败附带原始错误
func ClassifyWriteError(err error) (domain.WriteErrorKind, *code.Code) {
	if err == nil {
		return "", nil
	}

	for _, c := range validationCodes {
		if errors.Is(err, c) {
			var own *code.Code
			if errors.As(err, &own) {
				return domain.ErrorKindValidation, own
			}
			return domain.ErrorKindValidation, c
		}
	}

	if errors.Is(err, wallet.ErrUserRejected) || errors.Is(err, code.ErrorUserRejected) ||
		strings.Contains(err.Error(), "User rejected") {
		return domain.ErrorKindUserRejected, code.ErrorUserRejected
	}

	reason := ""
	var revert *contract.RevertError
	if errors.As(err, &revert) {
		reason = revert.Reason
	} else {
		reason = chain.ReasonFromError(err)
	}

	switch {
	case strings.Contains(reason, contract.ReasonDailyLimitReached):
		return domain.ErrorKindDailyLimit, code.ErrorDailyLimitReached
	case strings.Contains(reason, contract.ReasonAlreadyWrittenToday):
		return domain.ErrorKindDailyLimit, code.ErrorAlreadyWrittenToday
	}

	return domain.ErrorKindFailed, code.ErrorSubmitFailed.WithDetails(err.Error())
}
