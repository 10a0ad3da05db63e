package zkp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/secomuib/zkpSoulboundToken/pkg/identity"
)

const reportDate = 1651536000000

var (
	subject = identity.MustParse("0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")

	backendOnce   sync.Once
	sharedBackend *Backend
	backendErr    error
)

// testBackend compiles the circuit and runs setup once for the whole package.
func testBackend(t *testing.T) *Backend {
	t.Helper()
	backendOnce.Do(func() {
		sharedBackend, backendErr = NewBackend(nil)
	})
	require.NoError(t, backendErr)
	return sharedBackend
}

func subjectAttributes() AttributeSet {
	return AttributesFromUint64(45, 3100, reportDate)
}

func subjectRoot(t *testing.T) Root {
	t.Helper()
	root, err := Commit(subject, subjectAttributes())
	require.NoError(t, err)
	return root
}
