// Command civicadm is the operator CLI: it applies the schema, provisions
// staff accounts and checks jurisdiction files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"civic_reporter/internal/config"
	"civic_reporter/internal/model"
	"civic_reporter/internal/repository"
	"civic_reporter/internal/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger *zap.Logger

	// provision flags
	staffUserID       string
	staffPassword     string
	staffRole         string
	staffMunicipality string

	jurisdictionsFile string
	timeout           time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "civicadm",
	Short:         "Operator tasks for the civic issue portal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			return nil
		}
		var err error
		logger, err = zap.NewDevelopment()
		return err
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes if they do not exist",
	RunE:  runMigrate,
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create an admin or municipality staff account",
	Long: `Create a staff account that can log in to the admin or municipality
dashboard. The password may be given with --password or the
CIVIC_STAFF_PASSWORD environment variable.`,
	Example: `  civicadm provision --user-id ranchi-ops --role municipality \
    --municipality "Ranchi Municipal Corporation"`,
	RunE: runProvision,
}

var jurisdictionsCmd = &cobra.Command{
	Use:   "jurisdictions",
	Short: "Validate a jurisdictions file and print its bounding boxes",
	RunE:  runJurisdictions,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "overall time limit for the command")

	provisionCmd.Flags().StringVar(&staffUserID, "user-id", "", "login id of the new account")
	provisionCmd.Flags().StringVar(&staffPassword, "password", "", "password (default $CIVIC_STAFF_PASSWORD)")
	provisionCmd.Flags().StringVar(&staffRole, "role", string(model.RoleMunicipality), "admin or municipality")
	provisionCmd.Flags().StringVar(&staffMunicipality, "municipality", "", "municipality the account manages")
	_ = provisionCmd.MarkFlagRequired("user-id")

	jurisdictionsCmd.Flags().StringVar(&jurisdictionsFile, "file", "", "YAML file to check (default: built-in boxes)")

	rootCmd.AddCommand(migrateCmd, provisionCmd, jurisdictionsCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	pool, err := config.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	return config.AutoMigrate(ctx, pool, logger)
}

type staffCreator interface {
	CreateStaff(ctx context.Context, req model.CreateStaffRequest) (*model.StaffAccount, error)
}

func runProvision(cmd *cobra.Command, args []string) error {
	req, err := provisionRequest()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		return err
	}
	pool, err := config.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	staffRepo := repository.NewStaffRepository(pool, repository.DefaultTimeout)
	auth := service.NewAuthService(nil, staffRepo, nil, nil, 0, nil, logger)
	return provision(ctx, auth, req, cmd.OutOrStdout())
}

func provisionRequest() (model.CreateStaffRequest, error) {
	role, err := model.ParseRole(staffRole)
	if err != nil {
		return model.CreateStaffRequest{}, fmt.Errorf("--role: %w", err)
	}
	password := staffPassword
	if password == "" {
		password = os.Getenv("CIVIC_STAFF_PASSWORD")
	}
	return model.CreateStaffRequest{
		UserID:       staffUserID,
		Password:     password,
		Role:         role,
		Municipality: staffMunicipality,
	}, nil
}

func provision(ctx context.Context, creator staffCreator, req model.CreateStaffRequest, out io.Writer) error {
	account, err := creator.CreateStaff(ctx, req)
	if err != nil {
		return fmt.Errorf("provision %s: %w", req.UserID, err)
	}
	if account.Municipality != nil {
		fmt.Fprintf(out, "created %s account %q for %s (id %d)\n", account.Role, account.UserID, *account.Municipality, account.ID)
		return nil
	}
	fmt.Fprintf(out, "created %s account %q (id %d)\n", account.Role, account.UserID, account.ID)
	return nil
}

func runJurisdictions(cmd *cobra.Command, args []string) error {
	jurisdictions, err := config.LoadJurisdictions(jurisdictionsFile)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, j := range jurisdictions {
		fmt.Fprintf(out, "%-42s lat %.2f..%.2f lon %.2f..%.2f\n", j.Municipality, j.MinLat, j.MaxLat, j.MinLon, j.MaxLon)
	}
	return nil
}
