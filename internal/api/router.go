// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package api assembles the lentos HTTP API on echo.
package api

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/lentos/lentos/internal/api/handler"
	"github.com/lentos/lentos/internal/api/middleware"
	"github.com/lentos/lentos/internal/auth"
	"github.com/lentos/lentos/internal/todo"
)

// Accounts is the account service behind the user routes and the session
// middleware.
type Accounts interface {
	handler.Accounts
	middleware.Authenticator
}

// Config holds the dependencies of the router.
type Config struct {
	Accounts Accounts
	Todos    todo.Repository
	Signer   *auth.CookieSigner
	// SecureCookies marks session cookies HTTPS-only.
	SecureCookies bool
	// Metrics records request metrics. Nil disables them.
	Metrics middleware.HTTPObserver
	Logger  *slog.Logger
	Version string
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(cfg Config) (*echo.Echo, error) {
	switch {
	case cfg.Accounts == nil:
		return nil, errors.New("accounts service is required")
	case cfg.Todos == nil:
		return nil, errors.New("todo repository is required")
	case cfg.Signer == nil:
		return nil, errors.New("cookie signer is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	if cfg.Metrics != nil {
		e.Use(middleware.Metrics(cfg.Metrics))
	}
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit("1M"))

	cookies := middleware.Cookies{Signer: cfg.Signer, Secure: cfg.SecureCookies}
	session := middleware.Session(cookies, cfg.Accounts)

	e.GET("/checks/health", handler.Health(cfg.Version))

	users := handler.NewUserHandler(cfg.Accounts, cookies)
	e.POST("/users/register", users.Register)
	e.POST("/users/login", users.Login)
	e.POST("/users/logout", users.Logout)
	e.GET("/users", users.Get, session)
	e.PUT("/users", users.Update, session)
	e.DELETE("/users", users.Delete, session)

	todos := handler.NewTodoHandler(cfg.Todos)
	g := e.Group("/todos", session)
	g.GET("", todos.List)
	g.GET("/:id", todos.Get)
	g.POST("", todos.Create)
	g.PUT("", todos.Update)
	g.DELETE("/:id", todos.Delete)

	return e, nil
}

// NewRedirector returns an echo instance that permanently redirects every
// request to the same host and path on httpsPort.
func NewRedirector(httpsPort int) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Any("/*", func(c echo.Context) error {
		req := c.Request()
		host := req.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if httpsPort != 443 {
			host = net.JoinHostPort(host, strconv.Itoa(httpsPort))
		}
		return c.Redirect(http.StatusPermanentRedirect, "https://"+host+req.URL.RequestURI())
	})
	return e
}
