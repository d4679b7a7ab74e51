package admin

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/syllabiq/syllabiq/internal/config"
	"github.com/syllabiq/syllabiq/internal/domain"
	"github.com/syllabiq/syllabiq/internal/repository"
	"github.com/syllabiq/syllabiq/internal/service"
)

func newAPIKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage institution API keys",
	}
	cmd.AddCommand(newAPIKeyCreateCmd())
	return cmd
}

func newAPIKeyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Mint a new API key for an institution",
		Long: "Mints an API key and prints the raw token once. Only the token hash " +
			"is stored; the token cannot be recovered later.",
		RunE: runAPIKeyCreate,
	}
	cmd.Flags().String("institution", "", "Institution ID (required unless --institution-name)")
	cmd.Flags().String("institution-name", "", "Institution name; created if missing")
	cmd.Flags().String("name", "default", "Key label")
	return cmd
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.MustLoad()

	db, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	institutionID, err := resolveInstitution(cmd, db)
	if err != nil {
		return err
	}

	keyName, _ := cmd.Flags().GetString("name")
	auth := service.NewAuthService(repository.NewAPIKeyRepository(db))
	token, err := auth.CreateKey(ctx, institutionID, keyName)
	if err != nil {
		return err
	}

	fmt.Printf("institution: %s\napi key:     %s\n", institutionID, token)
	fmt.Println("store this token now; it is not recoverable")
	return nil
}

func resolveInstitution(cmd *cobra.Command, db repository.DBTX) (uuid.UUID, error) {
	ctx := cmd.Context()
	if s, _ := cmd.Flags().GetString("institution"); s != "" {
		return uuid.Parse(s)
	}
	name, _ := cmd.Flags().GetString("institution-name")
	if name == "" {
		return uuid.Nil, fmt.Errorf("either --institution or --institution-name is required")
	}

	institutions := repository.NewInstitutionRepository(db)
	id, err := institutions.GetByName(ctx, name)
	if errors.Is(err, domain.ErrInstitutionNotFound) {
		return institutions.Create(ctx, name)
	}
	return id, err
}
