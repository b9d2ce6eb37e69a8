// Package routes gắn controllers vào gin engine.
//
//   - api.go: /v1 (addresses, locales, admin), /health, /ready, /live và NoRoute
//   - web.go: /, /docs, /status
//
// cmd/api gọi SetupAllRoutes với đủ ba controller trong Controllers.
package routes
