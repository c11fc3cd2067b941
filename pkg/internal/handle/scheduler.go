package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/apperr"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// SchedulerJobs lists the registered jobs.
//
//	@Summary	Scheduled jobs
//	@Tags		scheduler
//	@Produce	json
//	@Success	200	{object}	types.Response[[]scheduler.JobInfo]
//	@Failure	401	{object}	types.ErrorResponse
//	@Router		/api/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusOK, types.OK("jobs retrieved", []scheduler.JobInfo{}))
		return
	}

	c.JSON(http.StatusOK, types.OK("jobs retrieved", sched.GetJobInfos()))
}

// SchedulerRunJob triggers a job by name outside its schedule.
//
//	@Summary	Run a job now
//	@Tags		scheduler
//	@Produce	json
//	@Param		name	path		string	true	"job name"
//	@Success	202		{object}	types.Response[any]
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		fail(c, apperr.NotFound("job not found"))
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		if errors.Is(err, scheduler.ErrJobNotFound) {
			fail(c, apperr.NotFound("job not found"))
			return
		}

		fail(c, err)

		return
	}

	c.JSON(http.StatusAccepted, types.OK[any]("job triggered", nil))
}
