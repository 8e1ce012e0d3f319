package services

import (
	"context"
	"maps"

	"github.com/google/uuid"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/catalog"
	"github.com/ekaya-inc/quickstack-seed/pkg/config"
	"github.com/ekaya-inc/quickstack-seed/pkg/facts"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
)

// fakeRepo is an in-memory keyed repository. Rows are copied on the way in
// and out so callers only see saved state.
type fakeRepo[K comparable, T any] struct {
	rows    map[K]*T
	keyOf   func(*T) K
	idOf    func(*T) *uuid.UUID
	findErr error
	saveErr error
	creates int
	updates int
}

func newFakeRepo[K comparable, T any](keyOf func(*T) K, idOf func(*T) *uuid.UUID) *fakeRepo[K, T] {
	return &fakeRepo[K, T]{
		rows:  make(map[K]*T),
		keyOf: keyOf,
		idOf:  idOf,
	}
}

func (r *fakeRepo[K, T]) Find(ctx context.Context, key K) (*T, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	row, ok := r.rows[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *row
	return &c, nil
}

func (r *fakeRepo[K, T]) Create(ctx context.Context, record *T) error {
	if err := r.check(record); err != nil {
		return err
	}
	if id := r.idOf(record); *id == uuid.Nil {
		*id = uuid.New()
	}
	key := r.keyOf(record)
	if _, exists := r.rows[key]; exists {
		return apperrors.ErrConflict
	}
	c := *record
	r.rows[key] = &c
	r.creates++
	return nil
}

func (r *fakeRepo[K, T]) Update(ctx context.Context, record *T) error {
	if err := r.check(record); err != nil {
		return err
	}
	id := *r.idOf(record)
	for key, row := range r.rows {
		if *r.idOf(row) == id {
			delete(r.rows, key)
			c := *record
			r.rows[r.keyOf(record)] = &c
			r.updates++
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeRepo[K, T]) check(record *T) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if v, ok := any(record).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}

// only returns the single stored row, or nil when there is not exactly one.
func (r *fakeRepo[K, T]) only() *T {
	if len(r.rows) != 1 {
		return nil
	}
	for _, row := range r.rows {
		return row
	}
	return nil
}

type fakeSettingRepository struct {
	settings map[string]*models.Setting
	getErr   error
}

func newFakeSettingRepository() *fakeSettingRepository {
	return &fakeSettingRepository{settings: make(map[string]*models.Setting)}
}

func (r *fakeSettingRepository) Get(ctx context.Context, name string) (*models.Setting, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	s, ok := r.settings[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeSettingRepository) Set(ctx context.Context, setting *models.Setting) error {
	c := *setting
	r.settings[setting.Name] = &c
	return nil
}

type fakeTemplateKindRepository struct {
	kinds map[string]*models.TemplateKind
}

func (r *fakeTemplateKindRepository) FindByName(ctx context.Context, name string) (*models.TemplateKind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return k, nil
}

// fakeSmartProxyRepository maps registered features to the proxies offering
// them; a registered feature may have no proxy.
type fakeSmartProxyRepository struct {
	features map[string][]*models.SmartProxy
}

func (r *fakeSmartProxyRepository) FirstWithFeature(ctx context.Context, feature string) (*models.SmartProxy, error) {
	proxies, ok := r.features[feature]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if len(proxies) == 0 {
		return nil, nil
	}
	return proxies[0], nil
}

type fakeEnvironmentRepository struct {
	environments map[string]*models.Environment
}

func (r *fakeEnvironmentRepository) FindByName(ctx context.Context, name string) (*models.Environment, error) {
	e, ok := r.environments[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return e, nil
}

type fakePuppetclassRepository struct {
	classes map[string]*models.Puppetclass
}

func (r *fakePuppetclassRepository) FindByName(ctx context.Context, name string) (*models.Puppetclass, error) {
	c, ok := r.classes[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c, nil
}

type fakeLookupKeyRepository struct {
	keys    map[uuid.UUID]map[string]*models.LookupKey
	updates int
}

func (r *fakeLookupKeyRepository) FindForClass(ctx context.Context, classID uuid.UUID, key string) (*models.LookupKey, error) {
	lk, ok := r.keys[classID][key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	c := *lk
	return &c, nil
}

func (r *fakeLookupKeyRepository) Update(ctx context.Context, lk *models.LookupKey) error {
	existing, ok := r.keys[lk.PuppetclassID][lk.Key]
	if !ok {
		return apperrors.ErrNotFound
	}
	*existing = *lk
	r.updates++
	return nil
}

// param returns the stored parameter of a class by class name.
func (h *seedHarness) param(className, key string) *models.LookupKey {
	class := h.classes.classes[className]
	if class == nil {
		return nil
	}
	return h.lookupKeys.keys[class.ID][key]
}

type staticFacts struct {
	facts facts.Facts
	err   error
}

func (p *staticFacts) Gather(ctx context.Context) (facts.Facts, error) {
	if p.err != nil {
		return nil, p.err
	}
	return maps.Clone(p.facts), nil
}

// seedHarness wires a seed service to in-memory repositories pre-populated
// with the default catalog.
type seedHarness struct {
	settings         *fakeSettingRepository
	operatingSystems *fakeRepo[models.OperatingSystemKey, models.OperatingSystem]
	media            *fakeRepo[string, models.Medium]
	osParameters     *fakeRepo[string, models.OsParameter]
	architectures    *fakeRepo[string, models.Architecture]
	domains          *fakeRepo[string, models.Domain]
	subnets          *fakeRepo[string, models.Subnet]
	ptables          *fakeRepo[string, models.Ptable]
	configTemplates  *fakeRepo[string, models.ConfigTemplate]
	environments     *fakeEnvironmentRepository
	hostGroups       *fakeRepo[string, models.HostGroup]
	kinds            *fakeTemplateKindRepository
	proxies          *fakeSmartProxyRepository
	classes          *fakePuppetclassRepository
	lookupKeys       *fakeLookupKeyRepository

	facts      *staticFacts
	deployment config.DeploymentConfig
}

func newSeedHarness() *seedHarness {
	h := &seedHarness{
		settings: newFakeSettingRepository(),
		operatingSystems: newFakeRepo(
			func(o *models.OperatingSystem) models.OperatingSystemKey { return o.Key() },
			func(o *models.OperatingSystem) *uuid.UUID { return &o.ID }),
		media: newFakeRepo(
			func(m *models.Medium) string { return m.Name },
			func(m *models.Medium) *uuid.UUID { return &m.ID }),
		osParameters: newFakeRepo(
			func(p *models.OsParameter) string { return p.Name },
			func(p *models.OsParameter) *uuid.UUID { return &p.ID }),
		architectures: newFakeRepo(
			func(a *models.Architecture) string { return a.Name },
			func(a *models.Architecture) *uuid.UUID { return &a.ID }),
		domains: newFakeRepo(
			func(d *models.Domain) string { return d.Name },
			func(d *models.Domain) *uuid.UUID { return &d.ID }),
		subnets: newFakeRepo(
			func(s *models.Subnet) string { return s.Name },
			func(s *models.Subnet) *uuid.UUID { return &s.ID }),
		ptables: newFakeRepo(
			func(p *models.Ptable) string { return p.Name },
			func(p *models.Ptable) *uuid.UUID { return &p.ID }),
		configTemplates: newFakeRepo(
			func(t *models.ConfigTemplate) string { return t.Name },
			func(t *models.ConfigTemplate) *uuid.UUID { return &t.ID }),
		environments: &fakeEnvironmentRepository{environments: make(map[string]*models.Environment)},
		hostGroups: newFakeRepo(
			func(hg *models.HostGroup) string { return hg.Name },
			func(hg *models.HostGroup) *uuid.UUID { return &hg.ID }),
		kinds:      &fakeTemplateKindRepository{kinds: make(map[string]*models.TemplateKind)},
		proxies:    &fakeSmartProxyRepository{features: make(map[string][]*models.SmartProxy)},
		classes:    &fakePuppetclassRepository{classes: make(map[string]*models.Puppetclass)},
		lookupKeys: &fakeLookupKeyRepository{keys: make(map[uuid.UUID]map[string]*models.LookupKey)},
		facts:      &staticFacts{facts: testFacts()},
		deployment: testDeployment(),
	}
	h.register(catalog.Default("proxy.example.com", "https://proxy.example.com:8443"))
	return h
}

// register loads a catalog the way catalog.Register does for PostgreSQL.
func (h *seedHarness) register(c catalog.Catalog) {
	for _, feature := range c.Features {
		if _, ok := h.proxies.features[feature]; !ok {
			h.proxies.features[feature] = nil
		}
	}
	for _, p := range c.Proxies {
		proxy := &models.SmartProxy{ID: uuid.New(), Name: p.Name, URL: p.URL}
		for _, feature := range p.Features {
			h.proxies.features[feature] = append(h.proxies.features[feature], proxy)
		}
	}
	for _, kind := range c.TemplateKinds {
		h.kinds.kinds[kind] = &models.TemplateKind{ID: uuid.New(), Name: kind}
	}
	for _, env := range c.Environments {
		h.environments.environments[env] = &models.Environment{ID: uuid.New(), Name: env}
	}
	for _, class := range c.Classes {
		pc := &models.Puppetclass{ID: uuid.New(), Name: class.Name}
		h.classes.classes[class.Name] = pc
		params := make(map[string]*models.LookupKey)
		for _, key := range class.Parameters {
			params[key] = &models.LookupKey{ID: uuid.New(), PuppetclassID: pc.ID, Key: key}
		}
		h.lookupKeys.keys[pc.ID] = params
	}
}

func (h *seedHarness) repositories() SeedRepositories {
	return SeedRepositories{
		Settings:         h.settings,
		OperatingSystems: h.operatingSystems,
		Media:            h.media,
		OsParameters:     h.osParameters,
		Architectures:    h.architectures,
		Domains:          h.domains,
		Subnets:          h.subnets,
		Ptables:          h.ptables,
		ConfigTemplates:  h.configTemplates,
		Environments:     h.environments,
		HostGroups:       h.hostGroups,
		TemplateKinds:    h.kinds,
		SmartProxies:     h.proxies,
		Puppetclasses:    h.classes,
		LookupKeys:       h.lookupKeys,
	}
}

func testFacts() facts.Facts {
	f := facts.Facts{
		facts.FactHostname:  "foreman",
		facts.FactDomain:    "example.com",
		facts.FactIPAddress: "10.0.0.5",
	}
	f.SetInterface("lo", "127.0.0.1", "127.0.0.0", "255.0.0.0")
	f.SetInterface("eth0", "10.0.0.5", "10.0.0.0", "255.255.255.0")
	f.SetInterface("eth1", "192.168.200.10", "192.168.200.0", "255.255.255.0")
	return f
}

func testDeployment() config.DeploymentConfig {
	return config.DeploymentConfig{
		OSName:               "CentOS",
		OSMajor:              "6",
		OSMinor:              "4",
		OSFamily:             models.FamilyRedhat,
		MediumName:           "OpenStack RHEL mirror",
		MediumPath:           "http://mirror.ox.ac.uk/sites/mirror.centos.org/$major.$minor/os/$arch",
		SpacewalkType:        "site",
		SpacewalkHost:        "satellite.example.com",
		ActivationKey:        "1-example",
		Architecture:         "x86_64",
		SubnetName:           "OpenStack",
		PtableName:           "OpenStack Disk Layout",
		PXEName:              "OpenStack PXE Template",
		KickstartName:        "OpenStack Kickstart Template",
		FixedNetworkRange:    "PRIV_RANGE",
		FloatingNetworkRange: "PUB_RANGE",
		PrivFloatingIP:       "PRIV_IP",
		PubFloatingIP:        "PUB_IP",
		EnvironmentName:      "production",
		URLScheme:            "https",
	}
}
