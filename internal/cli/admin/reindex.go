package admin

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/syllabiq/syllabiq/internal/config"
	"github.com/syllabiq/syllabiq/internal/repository"
)

func newReindexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Re-run the indexer over every topic with stored source text",
		Long: "Enqueues an index job for each topic that has stored extracted text. " +
			"Run after changing the embedding model or chunking settings.",
		RunE: runReindex,
	}
	cmd.Flags().String("institution", "", "Limit to one institution ID")
	cmd.Flags().Bool("sync", false, "Index inline instead of enqueuing jobs")
	return cmd
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()

	var institutionID uuid.UUID
	if s, _ := cmd.Flags().GetString("institution"); s != "" {
		var err error
		if institutionID, err = uuid.Parse(s); err != nil {
			return fmt.Errorf("invalid institution id: %w", err)
		}
	}

	db, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	topicRepo := repository.NewTopicRepository(db)
	topicIDs, err := topicRepo.ListContentTopicIDs(ctx, institutionID)
	if err != nil {
		return err
	}
	if len(topicIDs) == 0 {
		log.Println("reindex: no topics with stored content")
		return nil
	}

	sync, _ := cmd.Flags().GetBool("sync")
	if !sync {
		jobRepo := repository.NewIndexJobRepository(db)
		for _, topicID := range topicIDs {
			if _, err := jobRepo.Enqueue(ctx, topicID); err != nil {
				return fmt.Errorf("enqueuing topic %s: %w", topicID, err)
			}
		}
		log.Printf("reindex: enqueued %d topic(s)", len(topicIDs))
		return nil
	}

	deps, err := buildDeps(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer deps.queryPool.Release()

	var failed int
	for _, topicID := range topicIDs {
		text, err := topicRepo.GetContent(ctx, topicID)
		if err != nil {
			log.Printf("reindex: topic %s: %v", topicID, err)
			failed++
			continue
		}
		result, err := deps.indexer.IndexTopic(ctx, topicID, text)
		if err != nil {
			log.Printf("reindex: topic %s: %v", topicID, err)
			failed++
			continue
		}
		log.Printf("reindex: topic %s gen=%d chunks=%d failed=%d",
			topicID, result.Generation, result.IndexedCount, result.FailedCount)
	}
	log.Printf("reindex: done, %d/%d topics failed", failed, len(topicIDs))
	return nil
}
