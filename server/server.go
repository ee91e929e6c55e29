package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pizzapizza/pizzeria/api"
	"github.com/pizzapizza/pizzeria/handlers"
	"github.com/pizzapizza/pizzeria/middlewares"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

// Handlers bundles the request handlers the route table mounts.
type Handlers struct {
	Users *handlers.UserHandler
	Menu  *handlers.MenuHandler
	Cart  *handlers.CartHandler
	Order *handlers.OrderHandler
}

func SetupRoutes(log *logrus.Logger, h Handlers) *Server {
	router := mux.NewRouter()
	router.Use(middlewares.Recover(log), middlewares.RequestLogger(log))
	router.NotFoundHandler = api.NotFoundHandler()
	router.MethodNotAllowedHandler = api.MethodNotAllowedHandler()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")

	router.HandleFunc("/users", api.Wrap(log, h.Users.Create)).Methods("POST")
	router.HandleFunc("/users", api.Wrap(log, h.Users.Get)).Methods("GET")
	router.HandleFunc("/users", api.Wrap(log, h.Users.Update)).Methods("PUT", "PATCH")
	router.HandleFunc("/users", api.Wrap(log, h.Users.Delete)).Methods("DELETE")

	router.HandleFunc("/login", api.Wrap(log, h.Users.Login)).Methods("POST")
	router.HandleFunc("/logout", api.Wrap(log, h.Users.Logout)).Methods("POST", "DELETE")

	router.HandleFunc("/menu", api.Wrap(log, h.Menu.List)).Methods("GET")
	router.HandleFunc("/cart", api.Wrap(log, h.Cart.Replace)).Methods("PUT", "POST")
	router.HandleFunc("/order", api.Wrap(log, h.Order.Place)).Methods("POST")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(addr string) error {
	svr.server = &http.Server{
		Addr:              addr,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
