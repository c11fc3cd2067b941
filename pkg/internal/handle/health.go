package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
)

const timeout = 2 * time.Second

type probe func(ctx context.Context) types.ComponentHealth

func result(component string, err error) types.ComponentHealth {
	if err != nil {
		log.Logger().Warn().Err(err).Str("component", component).Msg("health check failed")

		return types.ComponentHealth{Component: component, Status: types.StatusUnhealthy, Error: err.Error()}
	}

	return types.ComponentHealth{Component: component, Status: types.StatusOK}
}

func unavailable(component string) types.ComponentHealth {
	return types.ComponentHealth{Component: component, Status: types.StatusUnhealthy, Error: component + " client not initialized"}
}

func probeDB(ctx context.Context) types.ComponentHealth {
	dbc := ctxPkg.GetDBClient(ctx)
	if dbc == nil || dbc.DB == nil {
		return unavailable("db")
	}

	return result("db", dbc.Ping(ctx))
}

func probeBlob(ctx context.Context) types.ComponentHealth {
	store := ctxPkg.GetBlobStore(ctx)
	if store == nil {
		return unavailable("blob")
	}

	return result("blob", store.Ping(ctx))
}

func probeKV(ctx context.Context) types.ComponentHealth {
	kvc := ctxPkg.GetKVClient(ctx)
	if kvc == nil || kvc.KVStore == nil {
		return unavailable("kv")
	}

	return result("kv", kvc.Ping(ctx))
}

// probeMQ only checks the client exists; publisher and subscriber are
// opened in mq.New.
func probeMQ(ctx context.Context) types.ComponentHealth {
	if ctxPkg.GetMQClient(ctx) == nil {
		return unavailable("mq")
	}

	return result("mq", nil)
}

func serveProbe(p probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		h := p(ctx)
		if h.Status != types.StatusOK {
			c.JSON(http.StatusServiceUnavailable, types.Response[types.ComponentHealth]{Message: h.Component + " unhealthy", Data: h})
			return
		}

		c.JSON(http.StatusOK, types.OK(h.Component+" ok", h))
	}
}

// HealthDB checks the database.
//
//	@Summary	Database health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.Response[types.ComponentHealth]
//	@Failure	503	{object}	types.Response[types.ComponentHealth]
//	@Router		/health/db [get]
func HealthDB(c *gin.Context) { serveProbe(probeDB)(c) }

// HealthBlob checks that the blob store is writable or reachable.
//
//	@Summary	Blob store health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.Response[types.ComponentHealth]
//	@Failure	503	{object}	types.Response[types.ComponentHealth]
//	@Router		/health/blob [get]
func HealthBlob(c *gin.Context) { serveProbe(probeBlob)(c) }

// HealthKV checks the KV store.
//
//	@Summary	KV health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.Response[types.ComponentHealth]
//	@Failure	503	{object}	types.Response[types.ComponentHealth]
//	@Router		/health/kv [get]
func HealthKV(c *gin.Context) { serveProbe(probeKV)(c) }

// HealthMQ checks the message queue client.
//
//	@Summary	MQ health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.Response[types.ComponentHealth]
//	@Failure	503	{object}	types.Response[types.ComponentHealth]
//	@Router		/health/mq [get]
func HealthMQ(c *gin.Context) { serveProbe(probeMQ)(c) }

// Health runs every probe concurrently.
//
//	@Summary	Aggregate health
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	types.Response[types.Health]
//	@Failure	503	{object}	types.Response[types.Health]
//	@Router		/health [get]
func Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	var (
		h types.Health
		g errgroup.Group
	)

	g.Go(func() error { h.DB = probeDB(ctx); return nil })
	g.Go(func() error { h.Blob = probeBlob(ctx); return nil })
	g.Go(func() error { h.KV = probeKV(ctx); return nil })
	g.Go(func() error { h.MQ = probeMQ(ctx); return nil })
	_ = g.Wait()

	if !h.Healthy() {
		c.JSON(http.StatusServiceUnavailable, types.Response[types.Health]{Message: "unhealthy", Data: h})
		return
	}

	c.JSON(http.StatusOK, types.OK("healthy", h))
}
