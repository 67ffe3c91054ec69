package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/quaark/mlrun-remote-project/pkg/utils/retry"
)

type Endpoint struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
}

type server struct {
	silent         bool
	deadline       time.Duration
	gracefulPeriod time.Duration
}

func defaultServerConfig() server {
	return server{
		deadline:       180 * time.Second,
		gracefulPeriod: 30 * time.Second,
	}
}

type Option func(*server) *server

// set deadline duration before receiving first request.
//
// Deadline is 180 seconds by deafult.
func WithDeadline(d time.Duration) Option {
	return func(s *server) *server {
		s.deadline = d
		return s
	}
}

// set graceful period for shutdown.
//
// GracefulPeriod is 30 seconds by deafult.
func WithGracefulPeriod(d time.Duration) Option {
	return func(s *server) *server {
		s.gracefulPeriod = d
		return s
	}
}

func Silent() Option {
	return func(s *server) *server {
		s.silent = true
		return s
	}
}

type Starter func(*echo.Echo) error

// start server on port number to start server.
func OnPort(p int) Starter {
	return func(e *echo.Echo) error {
		if err := e.Start(fmt.Sprintf(":%d", p)); err != nil {
			return err
		}
		return nil
	}
}

// start server on port number to start server.
//
// listen on localhost only.
func OnLocalPort(p int) Starter {
	return func(e *echo.Echo) error {
		if err := e.Start(fmt.Sprintf("localhost:%d", p)); err != nil {
			return err
		}
		return nil
	}
}

type Server struct {
	Port       int
	ServerStop <-chan error
}

// start the model server.
//
// Unlike a one-shot agent, the server keeps answering after the first
// request. The deadline only guards servers nothing ever reaches:
// when not even a readiness probe arrives before it, the server stops
// so the pod gets restarted, visibly.
//
// # Params
//
// - ctx context.Context: context to be used for server.
// To stop the server, cancel this context.
//
// - starter Starter: starter to be used for server.
//
// - endpoints []Endpoint: handlers to be registered to server.
//
// - opts ...Option: options to configure server.
func Start(ctx context.Context, starter Starter, endpoints []Endpoint, opts ...Option) Server {
	ctx, cancelContext := context.WithCancel(ctx)
	serverConfig := defaultServerConfig()
	for _, opt := range opts {
		serverConfig = *opt(&serverConfig)
	}

	e := echo.New()
	if serverConfig.silent {
		e.HideBanner = true
		e.HidePort = true
	}
	closeServer := func() func() {
		o := sync.Once{}
		return func() {
			o.Do(func() {
				if 0 < serverConfig.gracefulPeriod {
					// ctx is already done here. in-flight inferences get the graceful period.
					_ctx, _cancel := context.WithTimeout(context.Background(), serverConfig.gracefulPeriod)
					defer _cancel()
					e.Shutdown(_ctx) // try to shutdown gracefully
				}
				e.Close() // close forcefully
			})
		}
	}()

	watchdog := time.AfterFunc(serverConfig.deadline, cancelContext)
	go func() {
		<-ctx.Done()
		watchdog.Stop()
		closeServer()
	}()

	// the first request, whatever it is, disarms the watchdog.
	firstRequest := sync.Once{}
	disarm := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			firstRequest.Do(func() { watchdog.Stop() })
			return next(c)
		}
	}

	for _, ep := range endpoints {
		e.Add(ep.Method, ep.Path, ep.Handler, disarm)
	}

	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- starter(e)
	}()

	port, _ := retry.Blocking[int](
		ctx, retry.StaticBackoff(100*time.Millisecond),
		func() (int, error) {
			if e.Listener == nil {
				return 0, retry.ErrRetry
			}
			return e.Listener.Addr().(*net.TCPAddr).Port, nil
		},
	)

	return Server{Port: port, ServerStop: ch}
}
