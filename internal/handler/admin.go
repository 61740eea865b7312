package handler

import (
	"Go_Share/config"
	"Go_Share/internal/apperr"
	"Go_Share/internal/dto"
	"Go_Share/internal/service"
	"Go_Share/utils"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// AdminListFiles lists every file with link and download totals.
func AdminListFiles(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid query: "+err.Error()))
		return
	}
	page, err := service.AdminListFiles(c.Request.Context(), q.Skip, q.Take, q.Search)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, page)
}

func AdminStats(c *gin.Context) {
	stats, err := service.AdminStats(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, stats)
}

// AdminLogs pages through the access log.
func AdminLogs(c *gin.Context) {
	var q dto.LogQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.Fail(c, apperr.BadRequest("invalid query: "+err.Error()))
		return
	}
	page, err := service.ListAccessLogs(c.Request.Context(), service.LogFilter{
		Skip:      q.Skip,
		Take:      q.Take,
		LinkID:    q.LinkID,
		Action:    q.Action,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	})
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, page)
}

var sweeps = map[string]func(ctx context.Context) (int64, error){
	"expired": func(ctx context.Context) (int64, error) {
		return service.ExpireLinks(ctx, time.Now())
	},
	"exhausted": service.LockExceededLinks,
	"uploads": func(ctx context.Context) (int64, error) {
		return service.ReapStaleUploads(ctx, config.AppConfig.StaleUploadGrace)
	},
}

// AdminSweep runs one sweep immediately: expired, exhausted or uploads.
func AdminSweep(c *gin.Context) {
	run, ok := sweeps[c.Param("job")]
	if !ok {
		utils.Fail(c, apperr.NotFound("Unknown sweep"))
		return
	}
	n, err := run(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, dto.SweepResult{Affected: n})
}
