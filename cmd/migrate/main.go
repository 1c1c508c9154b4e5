// Command migrate applies the SQL migrations and optionally seeds a few
// development fixtures into a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/fieldops/mileage-voucher/internal/config"
	"github.com/fieldops/mileage-voucher/internal/domain/entity"
	"github.com/fieldops/mileage-voucher/internal/repository"
	"github.com/fieldops/mileage-voucher/pkg/database"
	"github.com/fieldops/mileage-voucher/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	seed := flag.Bool("seed", false, "insert development fixture users after migrating")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.NewMigrator(db, logger).Run(ctx, cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}
	logger.Info("Migrations applied", zap.String("dir", cfg.Database.MigrationsDir))

	if *seed {
		if err := seedFixtures(ctx, db, logger); err != nil {
			logger.Fatal("Seeding failed", zap.Error(err))
		}
		logger.Info("Fixtures seeded")
	}
}

// seedFixtures inserts a fleet manager, a supervisor, and two inspectors
// reporting to that supervisor. It is idempotent on email.
func seedFixtures(ctx context.Context, db *database.DB, logger *zap.Logger) error {
	users := repository.NewUserRepository(db, logger)
	profiles := repository.NewProfileRepository(db, logger)

	fixtures := []struct {
		user    entity.User
		profile entity.Profile
	}{
		{
			user: entity.User{Email: "fleet.manager@example.gov", Role: entity.RoleFleetManager},
			profile: entity.Profile{
				FirstName: "Frances", LastName: "Orr",
				Position: entity.TierDM, State: "TX", Circuit: "HQ",
			},
		},
		{
			user: entity.User{Email: "supervisor@example.gov", Role: entity.RoleSupervisor},
			profile: entity.Profile{
				FirstName: "Sam", LastName: "Delgado",
				Position: entity.TierFLS, State: "TX", Circuit: "North",
			},
		},
		{
			user: entity.User{Email: "inspector.one@example.gov", Role: entity.RoleInspector},
			profile: entity.Profile{
				FirstName: "Ana", LastName: "Reyes",
				Position: entity.TierInspector, State: "TX", Circuit: "North",
			},
		},
		{
			user: entity.User{Email: "inspector.two@example.gov", Role: entity.RoleInspector},
			profile: entity.Profile{
				FirstName: "Lee", LastName: "Tran",
				Position: entity.TierInspector, State: "TX", Circuit: "North",
			},
		},
	}

	var supervisorID int64
	for i := range fixtures {
		f := &fixtures[i]
		existing, err := users.GetByEmail(ctx, f.user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			if f.user.Role == entity.RoleSupervisor {
				supervisorID = existing.ID
			}
			continue
		}

		if err := users.Create(ctx, &f.user); err != nil {
			return err
		}
		f.profile.UserID = f.user.ID
		if f.user.Role == entity.RoleInspector && supervisorID != 0 {
			f.profile.SupervisorID = &supervisorID
		}
		if err := profiles.Create(ctx, &f.profile); err != nil {
			return err
		}
		if f.user.Role == entity.RoleSupervisor {
			supervisorID = f.user.ID
		}
	}
	return nil
}
