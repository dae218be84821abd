package middleware

import (
	"strings"

	"github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 依次从 Authorization 请求头、token 请求头、authorization/token 查询参数中读取 Token
func tokenFromRequest(c *gin.Context) string {
	if s := c.GetHeader("Authorization"); s != "" {
		return strings.TrimSpace(strings.TrimPrefix(s, "Bearer "))
	}
	if s := c.GetHeader("Token"); s != "" {
		return s
	}
	if s := c.Query("authorization"); s != "" {
		return s
	}
	return c.Query("token")
}

// WalletAuthToken 钱包会话认证，通过后将会话写入请求上下文
func WalletAuthToken(authorize app.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c)
		if token == "" {
			response.ToResponse(code.ErrorNotUserAuthToken)
			c.Abort()
			return
		}

		entity, err := authorize(token)
		if err != nil {
			response.ToResponse(code.ErrorInvalidUserAuthToken)
			c.Abort()
			return
		}
		app.SetWallet(c, entity)
		c.Next()
	}
}
