package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryUpHasADown(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	ups := 0
	for name := range names {
		if strings.HasSuffix(name, ".up.sql") {
			ups++
			assert.True(t, names[strings.TrimSuffix(name, ".up.sql")+".down.sql"], name)
		}
	}
	assert.Equal(t, 3, ups)
}
