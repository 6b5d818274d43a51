package server

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "grantd-genesis")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "genesis.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0600))
	return path
}

func TestWriteAndReadAppState(t *testing.T) {
	path := writeFile(t, `{"chain_id": "test-chain", "validators": []}`)

	state := json.RawMessage(`{"grant":{"ticker":"FTM"}}`)
	require.NoError(t, WriteAppState(path, state))

	chainID, got, err := ReadGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "test-chain", chainID)
	assert.JSONEq(t, string(state), string(got))

	// other content survives
	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	var doc GenesisDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.JSONEq(t, `[]`, string(doc["validators"]))
}

func TestReadBareAppState(t *testing.T) {
	path := writeFile(t, `{"cash": []}`)
	chainID, state, err := ReadGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "", chainID)
	assert.JSONEq(t, `{"cash": []}`, string(state))
}

func TestGenesisFileErrors(t *testing.T) {
	_, _, err := ReadGenesis(filepath.Join(os.TempDir(), "grantd-does-not-exist.json"))
	assert.Error(t, err)

	path := writeFile(t, `not json`)
	_, _, err = ReadGenesis(path)
	assert.Error(t, err)
	assert.Error(t, WriteAppState(path, json.RawMessage(`{}`)))
}
