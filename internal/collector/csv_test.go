package collector

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist-momentum-lab/internal/domain"
)

const export = `appid,name,followers,wishlists_est,publisher,release_date
620,Cozy Florist,"1,250",,Petal Works,Coming soon
621,Cozy Florist Demo,,900,,
622,Space Miner,n/a,,Rocks Inc,2023-05-01
,Missing Id,10,,,
`

func TestCSV_Parse(t *testing.T) {
	c := NewCSV(domain.PlatformSteam, "inline", nil)

	obs, err := c.parse(context.Background(), strings.NewReader(export))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	assert.Equal(t, "620", obs[0].ExternalID)
	assert.Equal(t, "Cozy Florist", obs[0].DisplayName)
	require.NotNil(t, obs[0].Followers)
	assert.Equal(t, int64(1250), *obs[0].Followers)
	assert.Nil(t, obs[0].WishlistsEst)
	assert.Equal(t, "Petal Works", obs[0].Publisher)
	assert.Equal(t, "Coming soon", obs[0].ReleaseDateRaw)
	assert.Equal(t, domain.PlatformSteam, obs[0].Platform)

	// Wishlist estimate is the fallback metric.
	require.NotNil(t, obs[1].MetricValue())
	assert.Equal(t, int64(900), *obs[1].MetricValue())

	// Malformed count is unknown, never zero.
	assert.Nil(t, obs[2].Followers)
	assert.Nil(t, obs[2].MetricValue())
}

func TestCSV_HeaderAliases(t *testing.T) {
	c := NewCSV(domain.PlatformItch, "inline", nil)

	obs, err := c.parse(context.Background(), strings.NewReader("slug,title,follower_count\nstudio/game,Game,42\n"))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "studio/game", obs[0].ExternalID)
	assert.Equal(t, "Game", obs[0].DisplayName)
	assert.Equal(t, int64(42), *obs[0].Followers)
}

func TestCSV_MissingIDColumn(t *testing.T) {
	c := NewCSV(domain.PlatformSteam, "inline", nil)

	_, err := c.parse(context.Background(), strings.NewReader("name,followers\nX,1\n"))
	assert.Error(t, err)
}

func TestCSV_CollectFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steam.csv")
	require.NoError(t, os.WriteFile(path, []byte(export), 0o644))

	c := NewCSV(domain.PlatformSteam, path, nil)
	obs, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, obs, 3)
}

func TestCSV_MissingFile(t *testing.T) {
	c := NewCSV(domain.PlatformSteam, filepath.Join(t.TempDir(), "nope.csv"), nil)

	_, err := c.Collect(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
