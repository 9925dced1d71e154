package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"funding-ledger/internal/fixtures"
	"funding-ledger/internal/simulation"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("LEDGER_STORAGE_BACKEND", "memory")
	t.Setenv("LEDGER_LOGGING_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "seed", "simulate"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrate_RequiresPostgres(t *testing.T) {
	_, err := runCmd(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestSeed_MemoryLedger(t *testing.T) {
	out, err := runCmd(t, "seed")
	require.NoError(t, err)

	var res fixtures.SeedResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Seeded)
	assert.Equal(t, 2, res.Bots)
	assert.Equal(t, 2, res.FundingSources)
	assert.Equal(t, 2, res.LpPositions)
}

func TestSimulate_EmptyLedger(t *testing.T) {
	out, err := runCmd(t, "simulate", "--rounds", "2")
	require.NoError(t, err)

	dec := json.NewDecoder(bytes.NewBufferString(out))
	rounds := 0
	for dec.More() {
		var res simulation.RoundResult
		require.NoError(t, dec.Decode(&res))
		assert.Zero(t, res.EventsRecorded)
		rounds++
	}
	assert.Equal(t, 2, rounds)
}

func TestSimulate_RejectsNonPositiveRounds(t *testing.T) {
	_, err := runCmd(t, "simulate", "--rounds", "0")
	assert.Error(t, err)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	_, err := runCmd(t, "seed", "--config", "/nonexistent/ledgerd.yaml")
	assert.Error(t, err)
}
