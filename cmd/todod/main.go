package main

import (
	"log"
	"net/http"

	"forgetodo/internal/config"
	"forgetodo/internal/forge"
	"forgetodo/internal/server"
	"forgetodo/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	srv := server.New(cfg, st, forge.NewClient(nil))

	log.Printf("todod listening on %s (forge: %s)", cfg.Addr, cfg.ForgeBaseURL)
	if err := http.ListenAndServe(cfg.Addr, srv.Router()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
