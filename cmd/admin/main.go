// Command main manages MiniBlog role grants from the shell.
package main

import (
	"context"
	"os"

	"miniblog/internal/bootstrap"
	"miniblog/internal/config"
	"miniblog/internal/repository"
	"miniblog/internal/service"
)

func main() {
	root := newRootCmd(func(ctx context.Context) (*service.RoleService, error) {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true})
		if err != nil {
			return nil, err
		}
		return service.NewRoleService(repository.NewUserRepository(db), repository.NewRoleRepository(db)), nil
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
