package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type HttpMethod int

const (
	GET HttpMethod = iota
	POST
	PUT
	PATCH
)

func (m HttpMethod) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case PATCH:
		return "PATCH"
	}
	return fmt.Sprintf("HttpMethod(%d)", int(m))
}

type Route struct {
	Method      HttpMethod
	Path        string
	HandlerFunc gin.HandlerFunc
	Group       string
}

func NewRoute(method HttpMethod, group, path string, handler gin.HandlerFunc) Route {
	return Route{
		Method:      method,
		Path:        path,
		Group:       group,
		HandlerFunc: handler,
	}
}

// Register mounts routes on router, one RouterGroup per distinct group. Middlewares
// are attached to their group before any route of it is added; AllGroups middlewares
// go on the engine itself.
func Register(router *gin.Engine, routes []Route, middlewares []Middleware) error {
	groups := map[string]*gin.RouterGroup{}
	group := func(name string) *gin.RouterGroup {
		g, ok := groups[name]
		if !ok {
			g = router.Group("/" + name)
			groups[name] = g
		}
		return g
	}

	for _, m := range middlewares {
		if m.Group == AllGroups {
			router.Use(m.Handler)
		}
	}
	for _, m := range middlewares {
		if m.Group != AllGroups {
			group(m.Group).Use(m.Handler)
		}
	}

	for _, r := range routes {
		g := group(r.Group)
		switch r.Method {
		case GET:
			g.GET(r.Path, r.HandlerFunc)
		case POST:
			g.POST(r.Path, r.HandlerFunc)
		case PUT:
			g.PUT(r.Path, r.HandlerFunc)
		case PATCH:
			g.PATCH(r.Path, r.HandlerFunc)
		default:
			return fmt.Errorf("unrecognized HTTP method %s for %s/%s", r.Method, r.Group, r.Path)
		}
	}
	return nil
}
