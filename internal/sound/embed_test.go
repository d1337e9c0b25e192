package sound

import (
	"io/fs"
	"path"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/partymix/internal/assets"
	"github.com/zjrosen/partymix/internal/audio/domain"
	"github.com/zjrosen/partymix/internal/audio/sounddef"
)

func TestBuiltinDefinitionsParse(t *testing.T) {
	paths, err := assets.ListDefinitions(FS(), DefinitionsDir)
	require.NoError(t, err)
	require.Len(t, paths, 9)

	ids := map[domain.SoundID]string{}
	for _, p := range paths {
		raw, err := fs.ReadFile(FS(), p)
		require.NoError(t, err)

		def, err := sounddef.DecodeFile(p, raw)
		require.NoError(t, err, p)
		require.NotEmpty(t, def.Name, p)
		require.NotEmpty(t, def.Samples, p)

		prev, dup := ids[def.ID]
		require.False(t, dup, "%s reuses id %d from %s", p, def.ID, prev)
		ids[def.ID] = p

		for _, s := range def.Samples {
			_, err := fs.Stat(FS(), path.Join(SamplesDir, s.Filename))
			require.NoError(t, err, "%s references %s", p, s.Filename)
		}
	}

	for id := domain.SoundID(1); id <= 9; id++ {
		require.Contains(t, ids, id)
	}
}
