package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itlusions/itlc/pkg/itlc/auth"
	"github.com/itlusions/itlc/pkg/itlc/execcredential"
)

func TestKubectlTokenCommand(t *testing.T) {
	t.Setenv("KUBECTL_EXEC_INTERACTIVE_MODE", "IfAvailable")

	root, buf, rt := newTestRoot(t)
	rt.login = func(context.Context) (*auth.TokenSet, error) {
		return freshTestTokenSet(), nil
	}

	root.SetArgs([]string{"kubectl-token"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"), "exactly one document line")

	var doc struct {
		APIVersion string `json:"apiVersion"`
		Kind       string `json:"kind"`
		Status     struct {
			Token string `json:"token"`
		} `json:"status"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "client.authentication.k8s.io/v1beta1", doc.APIVersion)
	assert.Equal(t, "ExecCredential", doc.Kind)
	assert.Equal(t, "idt", doc.Status.Token)
}

func TestKubectlTokenCommandWithoutInteractiveSignal(t *testing.T) {
	t.Setenv("KUBECTL_EXEC_INTERACTIVE_MODE", "")
	t.Setenv("KUBERNETES_EXEC_INFO", "")

	root, buf, _ := newTestRoot(t)
	root.SetArgs([]string{"kubectl-token"})

	err := root.Execute()
	var modeErr *execcredential.ProtocolModeError
	require.ErrorAs(t, err, &modeErr)
	assert.Zero(t, buf.Len(), "no partial document on error")
}

func TestKubectlTokenCommandExecInfoSignal(t *testing.T) {
	t.Setenv("KUBECTL_EXEC_INTERACTIVE_MODE", "")
	t.Setenv("KUBERNETES_EXEC_INFO",
		`{"apiVersion":"client.authentication.k8s.io/v1beta1","kind":"ExecCredential","spec":{"interactive":true}}`)

	root, buf, rt := newTestRoot(t)
	rt.login = func(context.Context) (*auth.TokenSet, error) {
		return freshTestTokenSet(), nil
	}
	root.SetArgs([]string{"kubectl-token"})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "ExecCredential")
}
