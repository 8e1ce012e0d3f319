//go:build integration

package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/quickstack-seed/pkg/catalog"
	"github.com/ekaya-inc/quickstack-seed/pkg/crypto"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
	"github.com/ekaya-inc/quickstack-seed/pkg/testhelpers"
)

func newPostgresSeedService() SeedService {
	repos := NewSeedRepositories()
	return NewSeedService(
		repos,
		NewSettingsService(repos.Settings, zap.NewNop()),
		&staticFacts{facts: testFacts()},
		crypto.NewHexSecretGenerator(),
		testDeployment(),
		zap.NewNop(),
	)
}

// seedCounts are the row counts expected after seeding an empty store.
var seedCounts = map[string]int{
	"operatingsystems":                  1,
	"media":                             1,
	"media_operatingsystems":            1,
	"os_parameters":                     3,
	"architectures":                     1,
	"architectures_operatingsystems":    1,
	"domains":                           1,
	"subnets":                           1,
	"subnet_domains":                    1,
	"ptables":                           1,
	"operatingsystems_ptables":          1,
	"config_templates":                  2,
	"config_templates_operatingsystems": 2,
	"os_default_templates":              2,
	"environments":                      1,
	"hostgroups":                        2,
	"hostgroup_classes":                 2,
	"settings":                          2,
}

func TestSeedService_Postgres_Idempotent(t *testing.T) {
	db := testhelpers.GetSeedDB(t)
	db.Reset(t)
	db.RegisterCatalog(t, catalog.Default("foreman.example.com", "https://foreman.example.com:8443"))

	ctx, cleanup := db.ScopedContext(t)
	defer cleanup()

	first, err := newPostgresSeedService().Run(ctx)
	require.NoError(t, err)
	for table, want := range seedCounts {
		assert.Equal(t, want, db.Count(t, table), "after first run: %s", table)
	}

	second, err := newPostgresSeedService().Run(ctx)
	require.NoError(t, err)
	for table, want := range seedCounts {
		assert.Equal(t, want, db.Count(t, table), "after second run: %s", table)
	}

	assert.Equal(t, first.OperatingSystem.ID, second.OperatingSystem.ID)
	assert.Equal(t, first.Subnet.ID, second.Subnet.ID)
	assert.Zero(t, second.Report.Count(KindHostGroup).Created)
	assert.Equal(t, 2, second.Report.Count(KindHostGroup).Updated)
	assert.NotEqual(t, first.Overrides["admin_password"], second.Overrides["admin_password"])
}

func TestSeedService_Postgres_PersistsReferences(t *testing.T) {
	db := testhelpers.GetSeedDB(t)
	db.Reset(t)
	db.RegisterCatalog(t, catalog.Default("foreman.example.com", "https://foreman.example.com:8443"))

	ctx, cleanup := db.ScopedContext(t)
	defer cleanup()

	seeded, err := newPostgresSeedService().Run(ctx)
	require.NoError(t, err)

	repos := NewSeedRepositories()

	os, err := repos.OperatingSystems.Find(ctx, seeded.OperatingSystem.Key())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{seeded.Ptable.ID}, os.PtableIDs)
	require.Len(t, os.DefaultTemplates, 2)
	for _, dt := range os.DefaultTemplates {
		assert.Equal(t, seeded.KickstartTemplate.ID, dt.ConfigTemplateID)
	}

	domain, err := repos.Domains.Find(ctx, "example.com")
	require.NoError(t, err)
	assert.NotNil(t, domain.DNSID)
	assert.Equal(t, "OpenStack: example.com", domain.Fullname)

	for _, name := range []string{models.OSParameterSpacewalkType, models.OSParameterSpacewalkHost, models.OSParameterActivationKey} {
		param, err := repos.OsParameters.Find(ctx, name)
		require.NoError(t, err, name)
		require.NotNil(t, param.ReferenceID, name)
		assert.Equal(t, seeded.OperatingSystem.ID, *param.ReferenceID, name)
	}

	for _, name := range []string{HostGroupController, HostGroupCompute} {
		hg, err := repos.HostGroups.Find(ctx, name)
		require.NoError(t, err, name)
		require.NotNil(t, hg.SubnetID, name)
		assert.Equal(t, seeded.Subnet.ID, *hg.SubnetID, name)
		assert.Equal(t, seeded.OperatingSystem.ID, *hg.OperatingSystemID, name)
		assert.Len(t, hg.PuppetclassIDs, 1, name)
		assert.NotNil(t, hg.PuppetProxyID, name)
	}

	class, err := repos.Puppetclasses.FindByName(ctx, models.PuppetclassController)
	require.NoError(t, err)
	lk, err := repos.LookupKeys.FindForClass(ctx, class.ID, "admin_email")
	require.NoError(t, err)
	assert.True(t, lk.Override)
	assert.Equal(t, "admin@example.com", lk.DefaultValue)

	untouched, err := repos.LookupKeys.FindForClass(ctx, class.ID, "enable_swift")
	require.NoError(t, err)
	assert.False(t, untouched.Override)
}
