package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIPrefix is the path every ledger route is served under
const APIPrefix = "/api/v1"

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts route groups under APIPrefix
type Router struct {
	engine     *gin.Engine
	registrars []RouteRegistrar
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine) *Router {
	return &Router{engine: engine}
}

// Register adds RouteRegistrars to be registered by Setup
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(APIPrefix)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one resource under a common prefix
type DomainGroup struct {
	prefix string
	routes []routeDefinition
}

type routeDefinition struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

// NewDomainGroup creates a route group for one ledger resource
func NewDomainGroup(prefix string) *DomainGroup {
	return &DomainGroup{prefix: prefix}
}

// GET registers a read route
func (dg *DomainGroup) GET(path string, handler gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handler)
}

// POST registers a ledger command route
func (dg *DomainGroup) POST(path string, handler gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handler)
}

func (dg *DomainGroup) handle(method, path string, handler gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handler: handler})
	return dg
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handler)
	}
}
