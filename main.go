package main

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/loneil/common-hosted-form-service/internal/config"
	"github.com/loneil/common-hosted-form-service/internal/db"
	"github.com/loneil/common-hosted-form-service/internal/gelf"
	"github.com/loneil/common-hosted-form-service/internal/handler"
	"github.com/loneil/common-hosted-form-service/internal/repository"
	"github.com/loneil/common-hosted-form-service/internal/router"
	"github.com/loneil/common-hosted-form-service/internal/service"
)

func main() {
	cfg := config.Load()

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	// Connect to Postgres
	conn, err := db.Connect(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected to database (max conns: %d)", cfg.MaxOpenConns)

	// Repositories
	formRepo := repository.NewFormRepo(conn)
	subRepo := repository.NewSubmissionRepo(conn)
	permRepo := repository.NewPermissionRepo(conn)

	// Services
	formSvc := service.NewFormService(formRepo)
	subSvc := service.NewSubmissionService(subRepo, formRepo)
	exportSvc := service.NewExportService(formRepo, subRepo)
	permSvc := service.NewPermissionService(permRepo)
	rbacSvc := service.NewRbacService(permRepo)

	// Handlers
	userH := handler.NewUserHandler()
	formH := handler.NewFormHandler(formSvc, exportSvc)
	subH := handler.NewSubmissionHandler(subSvc)
	permH := handler.NewPermissionHandler(permSvc)

	// Router
	r := router.New(cfg.JWTSecret, rbacSvc, formSvc, userH, formH, subH, permH)

	log.Printf("CHEFS server starting on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
