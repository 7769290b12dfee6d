package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/loykin/oratr"
)

// embedded_http_echo: mount the oratr daemon API inside an existing
// Echo application instead of running the standalone daemon.
func main() {
	e := echo.New()

	srv, err := oratr.NewServer(oratr.ServerConfig{
		Engine: oratr.NewKokoro(oratr.KokoroOptions{}),
	})
	if err != nil {
		log.Fatal(err)
	}

	base := os.Getenv("API_BASE")
	if base == "" {
		base = "/api"
	}

	// Mount under base using Echo's WrapHandler. The daemon handler
	// serves /health, /synthesize, /shutdown and /metrics at its root,
	// so strip the base prefix first.
	h := echo.WrapHandler(http.StripPrefix(base, srv.Handler()))
	e.Any(base+"/*", h)

	log.Println("starting echo server on :8080 with base", base)
	if err := e.Start(":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
