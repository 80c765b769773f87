package main

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pondok-keuangan/internal/config"
)

// unreachableDB points at a closed local port so the connection is refused
// straight away.
func unreachableDB(env string) *config.Config {
	return &config.Config{
		AppEnv:     env,
		DBHost:     "127.0.0.1",
		DBPort:     "1",
		DBDatabase: "pondok_keuangan",
		DBUsername: "root",
	}
}

func TestOpenRepositoryFallsBackOnlyInDevelopment(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()

	repo, closeDB, err := openRepository(ctx, unreachableDB("development"), log)
	require.NoError(t, err)
	defer closeDB()
	assert.NoError(t, repo.Ping(ctx))

	for _, env := range []string{"production", "staging"} {
		repo, _, err := openRepository(ctx, unreachableDB(env), log)
		assert.Error(t, err, env)
		assert.Nil(t, repo, env)
	}
}
