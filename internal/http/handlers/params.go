package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/neurotutor-backend/internal/platform/apierr"
	"github.com/yungbote/neurotutor-backend/internal/platform/dbctx"
	"github.com/yungbote/neurotutor-backend/internal/services"
)

const maxPageLimit = 100

func requestCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apierr.BadRequest("invalid_"+name, "%s must be a non-negative integer", name)
	}
	return n, nil
}

// pageParams reads limit/offset, defaulting to 10/0 and capping limit.
func pageParams(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit", services.DefaultPageLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return limit, offset, nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierr.BadRequest("invalid_"+name, "%s is not a valid id", name)
	}
	return id, nil
}

func bindError(err error) error {
	return apierr.BadRequest("invalid_request", "%s", fmt.Sprint(err))
}
