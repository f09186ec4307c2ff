package main

import (
	"net/http"
	"os"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/squadclash/level"
	"github.com/zucenko/squadclash/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	if lvl, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}
	path := os.Getenv("LEVEL")
	if path == "" {
		path = "levels/level_1.yaml"
		log.Printf("Defaulting to level %s", path)
	}
	l, err := level.Load(path)
	if err != nil {
		log.Fatalf("cannot load level: %v", err)
	}

	Server := Server{
		GameServer: server.NewGameServer(l),
	}
	go Server.GameServer.Loop()
	Server.routes()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Fatalln(http.ListenAndServe(":"+port, Server.router))
}
