package router

import (
	"strings"
	"time"

	tg "stickerforge/core/telegram"
	"stickerforge/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMediaEndpoints lists the update kinds that carry usable media.
var DefaultMediaEndpoints = []string{
	tele.OnPhoto,
	tele.OnSticker,
	tele.OnAnimation,
	tele.OnVideo,
	tele.OnDocument,
}

// MediaRoutes binds one media handler to every given endpoint.
// An empty endpoint list means DefaultMediaEndpoints.
func MediaRoutes(h tele.HandlerFunc, endpoints ...string) []tg.Route {
	if h == nil {
		return nil
	}
	if len(endpoints) == 0 {
		endpoints = DefaultMediaEndpoints
	}

	routes := make([]tg.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		name := "media." + normalizeHandlerName(strings.TrimPrefix(ep, "\a"))
		wrapped := func(c tele.Context) error {
			start := time.Now()
			return handleWithSummary(c, name, start, "", "", func() error {
				return h(c)
			})
		}
		routes = append(routes, tg.Route{
			Endpoint: ep,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(wrapped)),
		})
	}
	return routes
}
