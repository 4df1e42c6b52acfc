package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/wire"
)

// ProviderSet is handler providers.
var ProviderSet = wire.NewSet(NewMovieHandler, NewSuggestionHandler, NewUserHandler, NewAdminHandler)

// fail renders a service error as {"code": reason, "msg": message}. Errors
// that carry no reason are internal and are not echoed to the client.
func fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	if e.Reason == "" || e.Code >= http.StatusInternalServerError && e.Code != http.StatusBadGateway {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "msg": "internal server error"})
		return
	}
	c.JSON(int(e.Code), gin.H{"code": e.Reason, "msg": e.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_PARAMS", "msg": msg})
}

// idParam parses a positive numeric path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
