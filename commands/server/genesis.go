package server

import (
	"encoding/json"
	"io/ioutil"

	"github.com/iov-one/grantd/errors"
)

// GenesisDoc involves some tendermint-specific structures we don't
// want to parse, so we just grab it into a raw object format,
// so we can add one line.
type GenesisDoc map[string]json.RawMessage

// WriteAppState sets the app_state of the tendermint genesis file.
// All other content of the file is preserved.
func WriteAppState(filename string, options json.RawMessage) error {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot read genesis: %s", err)
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return errors.Wrapf(errors.ErrInput, "cannot parse genesis: %s", err)
	}

	doc["app_state"] = options
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return ioutil.WriteFile(filename, out, 0600)
}

// ReadGenesis loads the chain id and app state from given file. Both a
// tendermint genesis file and a bare app state document are accepted. The
// chain id is empty for the latter.
func ReadGenesis(filename string) (chainID string, appState []byte, err error) {
	bz, err := ioutil.ReadFile(filename)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrInput, "cannot read genesis: %s", err)
	}

	var doc GenesisDoc
	if err := json.Unmarshal(bz, &doc); err != nil {
		return "", nil, errors.Wrapf(errors.ErrInput, "cannot parse genesis: %s", err)
	}
	state, ok := doc["app_state"]
	if !ok {
		return "", bz, nil
	}
	if raw, ok := doc["chain_id"]; ok {
		if err := json.Unmarshal(raw, &chainID); err != nil {
			return "", nil, errors.Wrapf(errors.ErrInput, "invalid chain_id: %s", err)
		}
	}
	return chainID, state, nil
}
