package graphql

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"inventory.GO/api"
	"inventory.GO/graphqlserver"
)

func init() {
	api.RegisterRoute(RegisterGraphQLRoutes)
}

// RegisterGraphQLRoutes serves the read-only item schema at /graphql.
func RegisterGraphQLRoutes(e *echo.Echo, s *api.Services) {
	if s == nil || s.Inventory == nil {
		return
	}
	schema, err := graphqlserver.NewSchema(s.Inventory)
	if err != nil {
		zap.L().Error("graphql schema rejected, /graphql disabled", zap.Error(err))
		return
	}
	h := echo.WrapHandler(graphqlserver.Handler(schema))
	e.POST("/graphql", h)
	e.GET("/playground", echo.WrapHandler(playgroundHandler()))
}

func playgroundHandler() http.Handler {
	html := `<!DOCTYPE html>
<html>
<head>
	<title>Inventory GraphQL Playground</title>
	<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/css/index.css"/>
</head>
<body>
	<div id="root"/>
	<script src="https://cdn.jsdelivr.net/npm/graphql-playground-react/build/static/js/middleware.js"></script>
	<script>window.addEventListener('load', function() {
		GraphQLPlayground.init({ endpoint: '/graphql' });
	})</script>
</body>
</html>`
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	})
}
