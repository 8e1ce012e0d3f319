//go:build integration

package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/catalog"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
	"github.com/ekaya-inc/quickstack-seed/pkg/testhelpers"
)

// repoTestContext holds the shared database and a scoped context for one test.
type repoTestContext struct {
	t      *testing.T
	seedDB *testhelpers.SeedDB
	ctx    context.Context
}

// setupRepoTest empties the store and registers the default catalog.
func setupRepoTest(t *testing.T) *repoTestContext {
	seedDB := testhelpers.GetSeedDB(t)
	seedDB.Reset(t)
	seedDB.RegisterCatalog(t, catalog.Default("foreman.example.com", "https://foreman.example.com:8443"))

	ctx, cleanup := seedDB.ScopedContext(t)
	t.Cleanup(cleanup)
	return &repoTestContext{t: t, seedDB: seedDB, ctx: ctx}
}

func (tc *repoTestContext) createOS() *models.OperatingSystem {
	tc.t.Helper()
	os := &models.OperatingSystem{Name: "CentOS", Major: "6", Minor: "4", Type: models.FamilyRedhat}
	require.NoError(tc.t, NewOperatingSystemRepository().Create(tc.ctx, os))
	return os
}

func (tc *repoTestContext) kind(name string) *models.TemplateKind {
	tc.t.Helper()
	kind, err := NewTemplateKindRepository().FindByName(tc.ctx, name)
	require.NoError(tc.t, err)
	return kind
}

func TestRepositories_NoScope(t *testing.T) {
	_, err := NewMediumRepository().Find(context.Background(), "OpenStack RHEL mirror")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestSettingRepository_SetOverwrites(t *testing.T) {
	tc := setupRepoTest(t)
	repo := NewSettingRepository()

	_, err := repo.Get(tc.ctx, models.SettingManagePuppetCA)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, repo.Set(tc.ctx, &models.Setting{Name: models.SettingManagePuppetCA, Value: "true\n"}))
	require.NoError(t, repo.Set(tc.ctx, &models.Setting{Name: models.SettingManagePuppetCA, Value: "false\n"}))

	got, err := repo.Get(tc.ctx, models.SettingManagePuppetCA)
	require.NoError(t, err)
	assert.Equal(t, "false\n", got.Value)
	assert.Equal(t, 1, tc.seedDB.Count(t, "settings"))
}

func TestOperatingSystemRepository_DefaultTemplatesAndPtables(t *testing.T) {
	tc := setupRepoTest(t)
	repo := NewOperatingSystemRepository()

	_, err := repo.Find(tc.ctx, models.OperatingSystemKey{Name: "CentOS", Major: "6", Minor: "4"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	os := tc.createOS()

	ptable := &models.Ptable{Name: "OpenStack Disk Layout", Layout: "zerombr\nclearpart --all", OSFamily: models.FamilyRedhat}
	require.NoError(t, NewPtableRepository().Create(tc.ctx, ptable))

	provision := tc.kind(models.TemplateKindProvision)
	tmpl := &models.ConfigTemplate{
		Name:               "OpenStack Kickstart Template",
		Template:           "install",
		TemplateKindID:     models.RefID(provision.ID),
		OperatingSystemIDs: []uuid.UUID{os.ID},
	}
	require.NoError(t, NewConfigTemplateRepository().Create(tc.ctx, tmpl))

	os.PtableIDs = []uuid.UUID{ptable.ID}
	os.DefaultTemplates = []models.OSDefaultTemplate{{TemplateKindID: provision.ID, ConfigTemplateID: tmpl.ID}}
	require.NoError(t, repo.Update(tc.ctx, os))

	got, err := repo.Find(tc.ctx, os.Key())
	require.NoError(t, err)
	assert.Equal(t, os.ID, got.ID)
	assert.Equal(t, []uuid.UUID{ptable.ID}, got.PtableIDs)
	require.Len(t, got.DefaultTemplates, 1)
	assert.Equal(t, tmpl.ID, got.DefaultTemplateFor(provision.ID).ConfigTemplateID)

	// Replacing the ptable list drops the previous link.
	got.PtableIDs = nil
	require.NoError(t, repo.Update(tc.ctx, got))
	assert.Equal(t, 0, tc.seedDB.Count(t, "operatingsystems_ptables"))
}

func TestOperatingSystemRepository_DuplicateRejected(t *testing.T) {
	tc := setupRepoTest(t)
	tc.createOS()

	dup := &models.OperatingSystem{Name: "CentOS", Major: "6", Minor: "4"}
	assert.Error(t, NewOperatingSystemRepository().Create(tc.ctx, dup))
	assert.Equal(t, 1, tc.seedDB.Count(t, "operatingsystems"))
}

func TestMediumRepository_ReplacesLinks(t *testing.T) {
	tc := setupRepoTest(t)
	os := tc.createOS()
	repo := NewMediumRepository()

	medium := &models.Medium{
		Name:               "OpenStack RHEL mirror",
		Path:               "http://mirror.ox.ac.uk/sites/mirror.centos.org/$major.$minor/os/$arch",
		OSFamily:           models.FamilyRedhat,
		OperatingSystemIDs: []uuid.UUID{os.ID},
	}
	require.NoError(t, repo.Create(tc.ctx, medium))

	got, err := repo.Find(tc.ctx, "OpenStack RHEL mirror")
	require.NoError(t, err)
	assert.Equal(t, medium.Path, got.Path)
	assert.Equal(t, []uuid.UUID{os.ID}, got.OperatingSystemIDs)

	got.Path = "http://vault.centos.org/$major.$minor/os/$arch"
	got.OperatingSystemIDs = models.AppendUnique(got.OperatingSystemIDs, os.ID)
	require.NoError(t, repo.Update(tc.ctx, got))

	again, err := repo.Find(tc.ctx, "OpenStack RHEL mirror")
	require.NoError(t, err)
	assert.Equal(t, "http://vault.centos.org/$major.$minor/os/$arch", again.Path)
	assert.Len(t, again.OperatingSystemIDs, 1)
}

func TestMediumRepository_ValidatesBeforeSave(t *testing.T) {
	tc := setupRepoTest(t)

	err := NewMediumRepository().Create(tc.ctx, &models.Medium{Name: "OpenStack RHEL mirror"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, tc.seedDB.Count(t, "media"))
}

func TestUpdate_MissingRowIsNotFound(t *testing.T) {
	tc := setupRepoTest(t)

	arch := &models.Architecture{ID: uuid.New(), Name: "x86_64"}
	assert.ErrorIs(t, NewArchitectureRepository().Update(tc.ctx, arch), apperrors.ErrNotFound)
}

func TestSubnetRepository_DomainsAndProxies(t *testing.T) {
	tc := setupRepoTest(t)

	dns, err := NewSmartProxyRepository().FirstWithFeature(tc.ctx, models.FeatureDNS)
	require.NoError(t, err)
	require.NotNil(t, dns)

	domain := &models.Domain{Name: "example.com", Fullname: "example.com", DNSID: models.ProxyID(dns)}
	require.NoError(t, NewDomainRepository().Create(tc.ctx, domain))

	subnet := &models.Subnet{
		Name:      "OpenStack",
		Network:   "192.168.200.0",
		Mask:      "255.255.255.0",
		DHCPID:    models.ProxyID(dns),
		DomainIDs: []uuid.UUID{domain.ID},
	}
	require.NoError(t, NewSubnetRepository().Create(tc.ctx, subnet))

	got, err := NewSubnetRepository().Find(tc.ctx, "OpenStack")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{domain.ID}, got.DomainIDs)
	require.NotNil(t, got.DHCPID)
	assert.Equal(t, dns.ID, *got.DHCPID)
	assert.Nil(t, got.TFTPID)

	gotDomain, err := NewDomainRepository().Find(tc.ctx, "example.com")
	require.NoError(t, err)
	require.NotNil(t, gotDomain.DNSID)
	assert.Equal(t, dns.ID, *gotDomain.DNSID)
}

func TestHostGroupRepository_ClassListReplaced(t *testing.T) {
	tc := setupRepoTest(t)
	classes := NewPuppetclassRepository()

	controller, err := classes.FindByName(tc.ctx, models.PuppetclassController)
	require.NoError(t, err)
	compute, err := classes.FindByName(tc.ctx, models.PuppetclassCompute)
	require.NoError(t, err)

	env, err := NewEnvironmentRepository().FindByName(tc.ctx, catalog.DefaultEnvironment)
	require.NoError(t, err)

	repo := NewHostGroupRepository()
	hg := &models.HostGroup{
		Name:           "Controller",
		EnvironmentID:  models.RefID(env.ID),
		PuppetclassIDs: []uuid.UUID{controller.ID, compute.ID},
	}
	require.NoError(t, repo.Create(tc.ctx, hg))

	hg.PuppetclassIDs = []uuid.UUID{controller.ID}
	require.NoError(t, repo.Update(tc.ctx, hg))

	got, err := repo.Find(tc.ctx, "Controller")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{controller.ID}, got.PuppetclassIDs)
	require.NotNil(t, got.EnvironmentID)
	assert.Equal(t, env.ID, *got.EnvironmentID)
	assert.Nil(t, got.SubnetID)
}

func TestEnvironmentRepository_NotImported(t *testing.T) {
	tc := setupRepoTest(t)

	_, err := NewEnvironmentRepository().FindByName(tc.ctx, "staging")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 1, tc.seedDB.Count(t, "environments"))
}

func TestOsParameterRepository_ReferenceMoves(t *testing.T) {
	tc := setupRepoTest(t)
	os := tc.createOS()
	repo := NewOsParameterRepository()

	_, err := repo.Find(tc.ctx, models.OSParameterActivationKey)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	param := &models.OsParameter{Name: models.OSParameterActivationKey, Value: "9-legacy", ReferenceID: models.RefID(os.ID)}
	require.NoError(t, repo.Create(tc.ctx, param))

	other := &models.OperatingSystem{Name: "CentOS", Major: "6", Minor: "5", Type: models.FamilyRedhat}
	require.NoError(t, NewOperatingSystemRepository().Create(tc.ctx, other))

	param.Value = "1-example"
	param.ReferenceID = models.RefID(other.ID)
	require.NoError(t, repo.Update(tc.ctx, param))

	got, err := repo.Find(tc.ctx, models.OSParameterActivationKey)
	require.NoError(t, err)
	assert.Equal(t, param.ID, got.ID)
	assert.Equal(t, "1-example", got.Value)
	require.NotNil(t, got.ReferenceID)
	assert.Equal(t, other.ID, *got.ReferenceID)
	assert.Equal(t, 1, tc.seedDB.Count(t, "os_parameters"))
}

func TestOsParameterRepository_RequiresReference(t *testing.T) {
	tc := setupRepoTest(t)

	err := NewOsParameterRepository().Create(tc.ctx, &models.OsParameter{Name: models.OSParameterSpacewalkType, Value: "site"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 0, tc.seedDB.Count(t, "os_parameters"))

	missing := &models.OsParameter{ID: uuid.New(), Name: models.OSParameterSpacewalkType, ReferenceID: models.RefID(uuid.New())}
	assert.ErrorIs(t, NewOsParameterRepository().Update(tc.ctx, missing), apperrors.ErrNotFound)
}

func TestSmartProxyRepository_FirstWithFeature(t *testing.T) {
	seedDB := testhelpers.GetSeedDB(t)
	seedDB.Reset(t)
	seedDB.RegisterCatalog(t, catalog.Catalog{
		Features: []string{models.FeatureDNS, models.FeatureTFTP},
		Proxies: []catalog.Proxy{
			{Name: "proxy-b", URL: "https://b:8443", Features: []string{models.FeatureTFTP}},
			{Name: "proxy-a", URL: "https://a:8443", Features: []string{models.FeatureTFTP}},
		},
	})
	ctx, cleanup := seedDB.ScopedContext(t)
	defer cleanup()

	repo := NewSmartProxyRepository()

	tftp, err := repo.FirstWithFeature(ctx, models.FeatureTFTP)
	require.NoError(t, err)
	require.NotNil(t, tftp)
	assert.Equal(t, "proxy-a", tftp.Name, "first proxy by name wins")

	dns, err := repo.FirstWithFeature(ctx, models.FeatureDNS)
	require.NoError(t, err, "known feature without a proxy is not an error")
	assert.Nil(t, dns)

	_, err = repo.FirstWithFeature(ctx, models.FeaturePuppetCA)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLookupKeyRepository_Override(t *testing.T) {
	tc := setupRepoTest(t)

	class, err := NewPuppetclassRepository().FindByName(tc.ctx, models.PuppetclassCompute)
	require.NoError(t, err)

	repo := NewLookupKeyRepository()
	lk, err := repo.FindForClass(tc.ctx, class.ID, "verbose")
	require.NoError(t, err)
	assert.False(t, lk.Override)
	assert.Empty(t, lk.DefaultValue)

	lk.DefaultValue = "true"
	lk.Override = true
	require.NoError(t, repo.Update(tc.ctx, lk))

	got, err := repo.FindForClass(tc.ctx, class.ID, "verbose")
	require.NoError(t, err)
	assert.True(t, got.Override)
	assert.Equal(t, "true", got.DefaultValue)

	_, err = repo.FindForClass(tc.ctx, class.ID, "admin_password")
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "compute does not declare admin_password")

	_, err = NewPuppetclassRepository().FindByName(tc.ctx, "quickstack::storage")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
