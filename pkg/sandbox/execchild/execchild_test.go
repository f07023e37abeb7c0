package execchild_test

import (
	"bytes"
	"testing"

	"github.com/jihwankim/nado/pkg/sandbox/execchild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrips(t *testing.T) {
	spec := execchild.Spec{
		Argv:   []string{"sh", "-c", "ulimit -n"},
		Dir:    "/tmp",
		CPU:    5,
		ASMB:   64,
		FSizeK: 1024,
		NoFile: 256,
		NProc:  16,
	}

	var buf bytes.Buffer
	require.NoError(t, execchild.Encode(&buf, spec))

	got, err := execchild.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, spec, got)
}

func TestDecode_RejectsEmptyArgv(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, execchild.Encode(&buf, execchild.Spec{}))

	_, err := execchild.Decode(&buf)
	assert.Error(t, err)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := execchild.Decode(bytes.NewBufferString("{not json"))
	assert.Error(t, err)
}
