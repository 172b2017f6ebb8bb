// Package middleware contains net/http middleware shared by the service routers.
package middleware

import "net/http"

// Middleware wraps an http.Handler. It is assignable to the func type chi expects in Use.
type Middleware func(next http.Handler) http.Handler
