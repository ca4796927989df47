package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-listing-platform/internal/config"
	"github.com/iliyamo/event-listing-platform/internal/handler"
	"github.com/iliyamo/event-listing-platform/internal/middleware"
)

// RegisterRoutes registers routes that carry no prefix.  Currently this
// is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPrivate registers the initiator-facing endpoints under
// /users/:userId.  The user id in the path identifies the caller; there
// is no authentication layer in front of these routes, an API gateway
// is expected to provide it.
func RegisterPrivate(e *echo.Echo, ev *handler.PrivateEventHandler, rq *handler.RequestHandler) {
	g := e.Group("/users/:userId")

	g.POST("/events", ev.CreateEvent)
	g.GET("/events", ev.ListOwnEvents)
	g.GET("/events/:eventId", ev.GetOwnEvent)
	g.PATCH("/events/:eventId", ev.UpdateOwnEvent)

	// Initiator side of the request lifecycle: inspect and decide the
	// requests targeting one of their own events.
	g.GET("/events/:eventId/requests", rq.ListEventRequests)
	g.PATCH("/events/:eventId/requests", rq.DecideRequests)

	// Requester side: file, list and cancel own requests.
	g.POST("/requests", rq.Register)
	g.GET("/requests", rq.ListOwnRequests)
	g.PATCH("/requests/:requestId/cancel", rq.CancelRequest)
}

// RegisterAdmin registers the moderation endpoints under /admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminEventHandler) {
	g := e.Group("/admin")
	g.GET("/events", a.SearchEvents)
	g.PATCH("/events/:eventId", a.UpdateEvent)
}

// RegisterPublic registers the anonymous read endpoints under /events.
// When a Redis client is supplied the listing and detail endpoints are
// wrapped with the token bucket rate limiter and the short-TTL response
// cache; the admission and moderation routes are never cached.
func RegisterPublic(e *echo.Echo, p *handler.PublicEventHandler, rdb *redis.Client) {
	var mws []echo.MiddlewareFunc
	if rdb != nil {
		mws = append(mws,
			middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		)
	}
	g := e.Group("/events", mws...)
	g.GET("", p.ListEvents)
	g.GET("/:id", p.GetEvent)
}
