// Command admin は管理者主体を登録・無効化し、管理者用アクセストークンを発行します。
//
//	admin create -user ops -name "Ops Team"
//	admin token  -user ops
//	admin disable -user ops
//	admin audit  -user ops -limit 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mindcare_backend/internal/app/migrate"
	authadapters "mindcare_backend/internal/feature/auth/adapters"
	authusecase "mindcare_backend/internal/feature/auth/usecase"
	"mindcare_backend/internal/platform/config"
	infradb "mindcare_backend/internal/platform/db"
	jwtmw "mindcare_backend/internal/platform/jwt"
	"mindcare_backend/internal/platform/logger"
)

const commandTimeout = time.Minute

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		slog.Error("admin command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <create|token|disable|audit> -user <name> [-name <display name>] [-limit n]")
}

func run(command string, args []string) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	userName := fs.String("user", "", "admin user name")
	name := fs.String("name", "", "display name (create)")
	limit := fs.Int("limit", 50, "number of audit events (audit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userName == "" {
		usage()
		return errors.New("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(cfg.Env, cfg.LogLevel))

	db, err := infradb.OpenDB(infradb.ConfigFrom(cfg.DB), cfg.DB.ConnectWithin)
	if err != nil {
		return err
	}
	if cfg.DB.RunMigrations {
		if err := migrate.Run(db); err != nil {
			return err
		}
	}

	issuer := jwtmw.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret, jwtmw.DefaultAccessTTL, jwtmw.DefaultRefreshTTL)
	uc := authusecase.NewAdminUsecase(authadapters.NewAdminGorm(db), issuer)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch command {
	case "create":
		a, err := uc.Create(ctx, *userName, *name)
		if err != nil {
			return err
		}
		slog.Info("admin principal created", "id", a.ID, "user_name", a.UserName)
	case "token":
		token, err := uc.IssueToken(ctx, *userName)
		if err != nil {
			return err
		}
		// トークンは標準出力にのみ書き、ログには残さない
		fmt.Println(token)
	case "disable":
		if err := uc.Disable(ctx, *userName); err != nil {
			return err
		}
		slog.Info("admin principal disabled", "user_name", *userName)
	case "audit":
		events, err := uc.Audit(ctx, *userName, *limit)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("%s\t%s %s\t%d\t%s\n", ev.CreatedAt.Format(time.RFC3339), ev.Method, ev.Path, ev.Status, ev.RemoteAddr)
		}
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}
