package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/apperr"
	"storefront/internal/logx"
)

// Body is the envelope of every JSON response.
type Body struct {
	Status apperr.Code `json:"status"`
	Msg    string      `json:"msg,omitempty"`
	Data   any         `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Status: apperr.CodeSuccess, Data: data})
}

func okMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, Body{Status: apperr.CodeSuccess, Msg: msg})
}

func okMsgData(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Body{Status: apperr.CodeSuccess, Msg: msg, Data: data})
}

// fail writes err as an envelope. Internal causes are logged, never sent.
func fail(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Internal() {
		logx.Error().Err(ae.Err).Str("path", c.Request.URL.Path).Msg(ae.Message)
	}
	c.JSON(http.StatusOK, Body{Status: ae.Code, Msg: ae.Message})
}

func abort(c *gin.Context, err error) {
	fail(c, err)
	c.Abort()
}

// bind maps query and form values onto req, answering ILLEGAL_ARGUMENT on failure.
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindWith(req, formBinding); err != nil {
		logx.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("bind request")
		fail(c, apperr.IllegalArgument())
		return false
	}
	return true
}
