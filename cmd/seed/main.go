// Command main fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"miniblog/internal/bootstrap"
	"miniblog/internal/config"
	"miniblog/internal/middleware"
	"miniblog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	comments := flag.Int("comments", 3, "Comments per approved post")
	shouldClean := flag.Bool("clean", false, "Remove users, posts and comments first")
	randSeed := flag.Int64("rand-seed", 0, "Seed for reproducible data (0 is random)")
	fixture := flag.String("fixture", "", "Load this YAML fixture instead of generating data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		fatal("Failed to initialize runtime", err)
	}

	var res *seed.Result
	if *fixture != "" {
		f, err := os.Open(*fixture)
		if err != nil {
			fatal("Failed to open fixture", err)
		}
		defer func() { _ = f.Close() }()

		fx, err := seed.LoadFixture(f)
		if err != nil {
			fatal("Invalid fixture", err)
		}
		res, err = seed.ApplyFixture(ctx, db, fx)
		if err != nil {
			fatal("Failed to apply fixture", err)
		}
	} else {
		res, err = seed.Seed(ctx, db, seed.Options{
			NumUsers:        *numUsers,
			NumPosts:        *numPosts,
			CommentsPerPost: *comments,
			ShouldClean:     *shouldClean,
			RandSeed:        *randSeed,
		})
		if err != nil {
			fatal("Seeding failed", err)
		}
	}

	middleware.Logger.Info("Seed complete",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("comments", res.Comments),
	)
	if *fixture == "" {
		middleware.Logger.Info("Generated accounts share one password", slog.String("password", seed.DefaultPassword))
	}
}

func fatal(msg string, err error) {
	middleware.Logger.Error(msg, slog.String("error", err.Error()))
	os.Exit(1)
}
