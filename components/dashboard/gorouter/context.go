package gorouter

import (
	"context"

	router "github.com/goliatone/go-router"
)

// routeContext is the request surface the handlers use.
type routeContext interface {
	Context() context.Context
	Param(name string) string
	Query(name string) string
	Header(name string) string
	Local(key string) any
	Body() []byte
	JSON(status int, v any) error
	HTML(body []byte) error
}

type routerContext struct {
	rc router.Context
}

func (c routerContext) Context() context.Context  { return c.rc.Context() }
func (c routerContext) Param(name string) string  { return c.rc.Param(name) }
func (c routerContext) Query(name string) string  { return c.rc.Query(name) }
func (c routerContext) Header(name string) string { return c.rc.Header(name) }
func (c routerContext) Local(key string) any      { return c.rc.Locals(key) }
func (c routerContext) Body() []byte              { return c.rc.Body() }

func (c routerContext) JSON(status int, v any) error {
	return c.rc.JSON(status, v)
}

func (c routerContext) HTML(body []byte) error {
	c.rc.SetHeader("Content-Type", "text/html; charset=utf-8")
	return c.rc.Send(body)
}
