package cmd

import (
	"context"

	"github.com/AlexMendozaPrado/PocBanorte/core/config"
	"github.com/AlexMendozaPrado/PocBanorte/core/file_store"
	"github.com/AlexMendozaPrado/PocBanorte/internal/dao"
	"github.com/AlexMendozaPrado/PocBanorte/internal/logic/rag"
	"github.com/gogf/gf/v2/frame/g"
)

// init initializes all components of the application
func init() {
	ctx := context.Background()

	// Validate configuration before initializing components
	g.Log().Info(ctx, "Validating application configuration...")
	err := config.ValidateConfiguration(ctx)
	if err != nil {
		g.Log().Fatalf(ctx, "Configuration validation failed:\n%v", err)
	}

	// Initialize database
	err = dao.InitDB()
	if err != nil {
		g.Log().Fatalf(ctx, "Database connection initialization failed: %v", err)
	}

	// Initialize original-text storage
	if err = file_store.InitStorage(); err != nil {
		g.Log().Fatalf(ctx, "File storage initialization failed: %v", err)
	}

	// Assemble RAG pipeline components
	rag.InitComponents()

	g.Log().Info(ctx, "✓ All components initialized successfully")
}
