// Command orphans finds media objects no post references and reclaims them.
// Orphans are an expected byproduct of partial failures in the post
// lifecycle (a create that failed after upload, an update whose record write
// failed); this is the out-of-band cleanup for them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/embrace-blog/embrace/internal/config"
	"github.com/embrace-blog/embrace/internal/db"
	"github.com/embrace-blog/embrace/internal/media"
	"github.com/embrace-blog/embrace/internal/model"
	"github.com/embrace-blog/embrace/internal/repository"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	orphanStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func main() {
	dryRun := flag.Bool("dry-run", false, "List orphaned media objects without deleting them")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	cfg := config.AppConfig

	database := db.NewSQLite(cfg.Storage.DBPath)
	if err := database.InitDB(); err != nil {
		log.Fatalf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	store := media.NewS3Store(
		os.Getenv("S3_ACCESS_KEY_ID"),
		os.Getenv("S3_ACCESS_KEY_SECRET"),
		cfg.Storage.Endpoint,
		cfg.Storage.Bucket,
		cfg.Media.MaxUploadBytes,
		time.Duration(cfg.Media.PreviewURLTTLSeconds)*time.Second,
	)

	repo := repository.NewDBPostRepository(database)

	ctx := context.Background()

	stored, err := store.ListIDs(ctx)
	if err != nil {
		log.Fatalf("Error listing media objects: %v", err)
	}

	referenced, err := repo.ReferencedMediaIDs(ctx)
	if err != nil {
		log.Fatalf("Error listing referenced media ids: %v", err)
	}

	refSet := make(map[model.MediaID]struct{}, len(referenced))
	for _, id := range referenced {
		refSet[id] = struct{}{}
	}

	var orphans []model.MediaID
	for _, id := range stored {
		if _, ok := refSet[id]; !ok {
			orphans = append(orphans, id)
		}
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d media objects, %d referenced, %d orphaned",
		len(stored), len(refSet), len(orphans))))

	if len(orphans) == 0 {
		return
	}

	for _, id := range orphans {
		if *dryRun {
			fmt.Println(orphanStyle.Render("orphan: " + string(id)))
			continue
		}

		if err := store.Delete(ctx, id); err != nil {
			fmt.Println(errStyle.Render(fmt.Sprintf("failed to delete %s: %v", id, err)))
			continue
		}
		fmt.Println(okStyle.Render("deleted: " + string(id)))
	}
}
