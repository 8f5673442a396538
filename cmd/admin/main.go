package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"storybook/backend/internal/auth"
	"storybook/backend/internal/bootstrap"
	"storybook/backend/internal/config"
	"storybook/backend/internal/matching"
	"storybook/backend/internal/region"
	"storybook/backend/internal/report"
	"storybook/backend/internal/storage"
	"storybook/backend/internal/story"

	"github.com/samber/do"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  approve-guide <guide_id>
  revoke-guide <guide_id>
  list-reports <story_id>
  hide-story <story_id>
  restore-story <story_id>
  seed-regions
  purge-tokens`

var errUsage = errors.New("invalid arguments")

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	inj := bootstrap.BuildContainer(cfg)
	defer func() {
		if db, err := do.Invoke[*gorm.DB](inj); err == nil {
			_ = storage.Close(db)
		}
	}()

	if err := run(context.Background(), inj, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Println(usage)
			os.Exit(1)
		}
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

// run executes one admin command. Only the services the command needs are
// built.
func run(ctx context.Context, inj *do.Injector, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, rest := args[0], args[1:]

	needID := func() (string, error) {
		if len(rest) != 1 || rest[0] == "" {
			return "", errUsage
		}
		return rest[0], nil
	}

	switch command {
	case "approve-guide", "revoke-guide":
		id, err := needID()
		if err != nil {
			return err
		}
		approved := command == "approve-guide"
		if err := do.MustInvoke[*matching.Service](inj).SetApproval(ctx, id, approved); err != nil {
			return err
		}
		if approved {
			fmt.Fprintf(out, "Guide %s has been approved.\n", id)
		} else {
			fmt.Fprintf(out, "Guide %s approval has been revoked.\n", id)
		}

	case "list-reports":
		id, err := needID()
		if err != nil {
			return err
		}
		reports, score, err := do.MustInvoke[*report.Service](inj).List(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Story %s: %d report(s), score %d\n", id, len(reports), score)
		for _, r := range reports {
			desc := ""
			if r.Description != nil {
				desc = *r.Description
			}
			fmt.Fprintf(out, "  %s  %s  %-14s %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.ReporterID, r.Reason, desc)
		}

	case "hide-story", "restore-story":
		id, err := needID()
		if err != nil {
			return err
		}
		active := command == "restore-story"
		if err := do.MustInvoke[*story.Service](inj).SetActive(ctx, id, active); err != nil {
			return err
		}
		if active {
			fmt.Fprintf(out, "Story %s has been restored.\n", id)
		} else {
			fmt.Fprintf(out, "Story %s has been hidden.\n", id)
		}

	case "seed-regions":
		n, err := do.MustInvoke[*region.Service](inj).Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d region(s).\n", n)

	case "purge-tokens":
		n, err := do.MustInvoke[*auth.Service](inj).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Purged %d expired refresh token(s).\n", n)

	default:
		return errUsage
	}
	return nil
}
