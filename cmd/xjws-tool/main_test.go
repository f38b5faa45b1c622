package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"xjws-tool", "version"}, out, errout, exit)
	assert.Equal(t, 80, rc)
	assert.Equal(t, "xjws-tool: error: unexpected argument version\n", errout.String())
	assert.Empty(t, out.String())
}

func TestSignVerify(t *testing.T) {
	out := bytes.NewBuffer([]byte{})
	errout := bytes.NewBuffer([]byte{})
	rc := 0
	exit := func(c int) {
		rc = c
	}

	realMain([]string{"xjws-tool", "--cfg=cli/testdata/keyring.yaml", "sign", "cli/testdata/claims.json"}, out, errout, exit)
	require.Equal(t, 0, rc, errout.String())
	token := strings.TrimSpace(out.String())
	assert.Len(t, strings.Split(token, "."), 3)

	out.Reset()
	realMain([]string{"xjws-tool", "--cfg=cli/testdata/keyring.yaml", "verify", token}, out, errout, exit)
	require.Equal(t, 0, rc, errout.String())
	assert.Contains(t, out.String(), `"verified"`)
	assert.Contains(t, out.String(), `"John Doe"`)
}
