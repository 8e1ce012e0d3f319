package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/quickstack-seed/pkg/apperrors"
	"github.com/ekaya-inc/quickstack-seed/pkg/config"
	"github.com/ekaya-inc/quickstack-seed/pkg/crypto"
	"github.com/ekaya-inc/quickstack-seed/pkg/facts"
	"github.com/ekaya-inc/quickstack-seed/pkg/models"
	"github.com/ekaya-inc/quickstack-seed/pkg/repositories"
	"github.com/ekaya-inc/quickstack-seed/pkg/templates"
)

// Host group names and the puppet class each one applies.
const (
	HostGroupController = "Controller"
	HostGroupCompute    = "Nova Compute"
)

// domainLabel prefixes the domain's display name.
const domainLabel = "OpenStack: "

var hostGroupClasses = []struct {
	name  string
	class string
}{
	{HostGroupController, models.PuppetclassController},
	{HostGroupCompute, models.PuppetclassCompute},
}

// SeedRepositories bundles the data access the seeder needs.
type SeedRepositories struct {
	Settings         repositories.SettingRepository
	OperatingSystems repositories.OperatingSystemRepository
	Media            repositories.MediumRepository
	OsParameters     repositories.OsParameterRepository
	Architectures    repositories.ArchitectureRepository
	Domains          repositories.DomainRepository
	Subnets          repositories.SubnetRepository
	Ptables          repositories.PtableRepository
	ConfigTemplates  repositories.ConfigTemplateRepository
	Environments     repositories.EnvironmentRepository
	HostGroups       repositories.HostGroupRepository
	TemplateKinds    repositories.TemplateKindRepository
	SmartProxies     repositories.SmartProxyRepository
	Puppetclasses    repositories.PuppetclassRepository
	LookupKeys       repositories.LookupKeyRepository
}

// NewSeedRepositories returns the PostgreSQL-backed repositories.
func NewSeedRepositories() SeedRepositories {
	return SeedRepositories{
		Settings:         repositories.NewSettingRepository(),
		OperatingSystems: repositories.NewOperatingSystemRepository(),
		Media:            repositories.NewMediumRepository(),
		OsParameters:     repositories.NewOsParameterRepository(),
		Architectures:    repositories.NewArchitectureRepository(),
		Domains:          repositories.NewDomainRepository(),
		Subnets:          repositories.NewSubnetRepository(),
		Ptables:          repositories.NewPtableRepository(),
		ConfigTemplates:  repositories.NewConfigTemplateRepository(),
		Environments:     repositories.NewEnvironmentRepository(),
		HostGroups:       repositories.NewHostGroupRepository(),
		TemplateKinds:    repositories.NewTemplateKindRepository(),
		SmartProxies:     repositories.NewSmartProxyRepository(),
		Puppetclasses:    repositories.NewPuppetclassRepository(),
		LookupKeys:       repositories.NewLookupKeyRepository(),
	}
}

// Seeded holds every record a run built or fetched. Later steps reuse these
// in-memory records instead of reading them back.
type Seeded struct {
	Facts  facts.Facts
	Layout facts.Layout

	OperatingSystem   *models.OperatingSystem
	Medium            *models.Medium
	OsParameters      []*models.OsParameter
	Architecture      *models.Architecture
	Domain            *models.Domain
	Subnet            *models.Subnet
	Ptable            *models.Ptable
	PXETemplate       *models.ConfigTemplate
	KickstartTemplate *models.ConfigTemplate
	Environment       *models.Environment

	TemplateKinds map[string]*models.TemplateKind
	Puppetclasses map[string]*models.Puppetclass
	HostGroups    map[string]*models.HostGroup

	Overrides map[string]string
	Report    *Report
}

// SeedService reconciles the provisioning store with the deployment.
type SeedService interface {
	// Run executes every seeding step in order. It returns the records built so
	// far together with the first error; earlier steps stay committed.
	Run(ctx context.Context) (*Seeded, error)
}

type seedService struct {
	repos      SeedRepositories
	settings   SettingsService
	facts      facts.Provider
	secrets    crypto.SecretGenerator
	deployment config.DeploymentConfig
	logger     *zap.Logger
}

func NewSeedService(
	repos SeedRepositories,
	settings SettingsService,
	factsProvider facts.Provider,
	secrets crypto.SecretGenerator,
	deployment config.DeploymentConfig,
	logger *zap.Logger,
) SeedService {
	return &seedService{
		repos:      repos,
		settings:   settings,
		facts:      factsProvider,
		secrets:    secrets,
		deployment: deployment,
		logger:     logger.Named("seed"),
	}
}

var _ SeedService = (*seedService)(nil)

func (s *seedService) Run(ctx context.Context) (*Seeded, error) {
	seeded := &Seeded{
		TemplateKinds: make(map[string]*models.TemplateKind),
		Puppetclasses: make(map[string]*models.Puppetclass),
		HostGroups:    make(map[string]*models.HostGroup),
		Report:        NewReport(),
	}

	f, err := s.facts.Gather(ctx)
	if err != nil {
		return seeded, fmt.Errorf("gather facts: %w", err)
	}
	seeded.Facts = f

	// The subnet needs the private interface, so the layout is derived up front.
	// It reads facts only and writes nothing.
	layout, err := f.Layout(s.deployment.PublicInterface, s.deployment.PrivateInterface)
	if err != nil {
		return seeded, fmt.Errorf("network layout: %w", err)
	}
	seeded.Layout = layout
	s.logger.Info("Network layout",
		zap.String("public_interface", layout.PublicInterface()),
		zap.String("public_prefix", layout.PrimaryPrefix),
		zap.String("private_interface", layout.PrivateInterface()),
		zap.String("private_prefix", layout.SecondaryPrefix))

	steps := []struct {
		name string
		run  func(context.Context, *Seeded) error
	}{
		{"settings", s.seedSettings},
		{"operating system", s.seedOperatingSystem},
		{"medium", s.seedMedium},
		{"operating system parameters", s.seedOsParameters},
		{"architecture", s.seedArchitecture},
		{"domain", s.seedDomain},
		{"subnet", s.seedSubnet},
		{"partition table", s.seedPtable},
		{"pxe template", s.seedPXETemplate},
		{"kickstart template", s.seedKickstartTemplate},
		{"operating system templates", s.seedOperatingSystemTemplates},
		{"class parameters", s.seedClassParameters},
		{"host groups", s.seedHostGroups},
		{"host group associations", s.seedHostGroupAssociations},
	}

	for _, step := range steps {
		if err := step.run(ctx, seeded); err != nil {
			return seeded, fmt.Errorf("seed %s: %w", step.name, err)
		}
	}

	return seeded, nil
}

func (s *seedService) seedSettings(ctx context.Context, seeded *Seeded) error {
	fqdn := seeded.Facts.FQDN()
	if fqdn == "" {
		return fmt.Errorf("%w: facts do not provide a host name", apperrors.ErrValidation)
	}

	values := []struct {
		name  string
		value any
	}{
		{models.SettingManagePuppetCA, false},
		{models.SettingForemanURL, s.deployment.URLScheme + "://" + fqdn},
	}
	for _, v := range values {
		outcome, err := s.settings.Set(ctx, v.name, v.value)
		if err != nil {
			return err
		}
		seeded.Report.Record(KindSetting, outcome)
	}
	return nil
}

func (s *seedService) seedOperatingSystem(ctx context.Context, seeded *Seeded) error {
	d := s.deployment
	key := models.OperatingSystemKey{Name: d.OSName, Major: d.OSMajor, Minor: d.OSMinor}

	os, outcome, err := upsert[models.OperatingSystemKey, models.OperatingSystem](ctx, s.repos.OperatingSystems, key,
		func() *models.OperatingSystem {
			return &models.OperatingSystem{Name: key.Name, Major: key.Major, Minor: key.Minor}
		},
		func(os *models.OperatingSystem) {
			os.Type = d.OSFamily
		})
	if err != nil {
		return err
	}

	seeded.OperatingSystem = os
	s.recorded(seeded, KindOperatingSystem, key.String(), outcome)
	return nil
}

func (s *seedService) seedMedium(ctx context.Context, seeded *Seeded) error {
	d := s.deployment
	osID := seeded.OperatingSystem.ID

	medium, outcome, err := upsert[string, models.Medium](ctx, s.repos.Media, d.MediumName,
		func() *models.Medium { return &models.Medium{Name: d.MediumName} },
		func(m *models.Medium) {
			m.Path = d.MediumPath
			m.OSFamily = d.OSFamily
			m.OperatingSystemIDs = models.AppendUnique(m.OperatingSystemIDs, osID)
		})
	if err != nil {
		return err
	}

	seeded.Medium = medium
	s.recorded(seeded, KindMedium, medium.Name, outcome)
	return nil
}

// seedOsParameters sets the registration parameters and points them at the
// operating system. A parameter of the same name on another OS is taken over.
func (s *seedService) seedOsParameters(ctx context.Context, seeded *Seeded) error {
	d := s.deployment
	osID := seeded.OperatingSystem.ID

	params := []struct{ name, value string }{
		{models.OSParameterSpacewalkType, d.SpacewalkType},
		{models.OSParameterSpacewalkHost, d.SpacewalkHost},
		{models.OSParameterActivationKey, d.ActivationKey},
	}
	for _, p := range params {
		param, outcome, err := upsert[string, models.OsParameter](ctx, s.repos.OsParameters, p.name,
			func() *models.OsParameter { return &models.OsParameter{Name: p.name} },
			func(op *models.OsParameter) {
				op.Value = p.value
				op.ReferenceID = models.RefID(osID)
			})
		if err != nil {
			return fmt.Errorf("parameter %s: %w", p.name, err)
		}

		seeded.OsParameters = append(seeded.OsParameters, param)
		s.recorded(seeded, KindOSParameter, param.Name, outcome)
	}
	return nil
}

func (s *seedService) seedArchitecture(ctx context.Context, seeded *Seeded) error {
	name := s.deployment.Architecture
	osID := seeded.OperatingSystem.ID

	arch, outcome, err := upsert[string, models.Architecture](ctx, s.repos.Architectures, name,
		func() *models.Architecture { return &models.Architecture{Name: name} },
		func(a *models.Architecture) {
			a.OperatingSystemIDs = models.AppendUnique(a.OperatingSystemIDs, osID)
		})
	if err != nil {
		return err
	}

	seeded.Architecture = arch
	s.recorded(seeded, KindArchitecture, arch.Name, outcome)
	return nil
}

func (s *seedService) seedDomain(ctx context.Context, seeded *Seeded) error {
	name := seeded.Facts.Domain()
	if name == "" {
		return fmt.Errorf("%w: facts do not provide a domain", apperrors.ErrValidation)
	}

	dns, err := s.proxyFor(ctx, models.FeatureDNS)
	if err != nil {
		return err
	}

	domain, outcome, err := upsert[string, models.Domain](ctx, s.repos.Domains, name,
		func() *models.Domain { return &models.Domain{Name: name} },
		func(d *models.Domain) {
			d.Fullname = domainLabel + name
			d.DNSID = dns
		})
	if err != nil {
		return err
	}

	seeded.Domain = domain
	s.recorded(seeded, KindDomain, domain.Name, outcome)
	return nil
}

func (s *seedService) seedSubnet(ctx context.Context, seeded *Seeded) error {
	name := s.deployment.SubnetName
	private := seeded.Layout.PrivateInterface()
	domainID := seeded.Domain.ID

	var proxies [3]*uuid.UUID
	for i, feature := range []string{models.FeatureDHCP, models.FeatureDNS, models.FeatureTFTP} {
		id, err := s.proxyFor(ctx, feature)
		if err != nil {
			return err
		}
		proxies[i] = id
	}

	subnet, outcome, err := upsert[string, models.Subnet](ctx, s.repos.Subnets, name,
		func() *models.Subnet { return &models.Subnet{Name: name} },
		func(sn *models.Subnet) {
			sn.Network = seeded.Facts.Network(private)
			sn.Mask = seeded.Facts.Netmask(private)
			sn.DHCPID, sn.DNSID, sn.TFTPID = proxies[0], proxies[1], proxies[2]
			sn.DomainIDs = []uuid.UUID{domainID}
		})
	if err != nil {
		return err
	}

	seeded.Subnet = subnet
	s.recorded(seeded, KindSubnet, subnet.Name, outcome)
	return nil
}

func (s *seedService) seedPtable(ctx context.Context, seeded *Seeded) error {
	d := s.deployment

	ptable, outcome, err := upsert[string, models.Ptable](ctx, s.repos.Ptables, d.PtableName,
		func() *models.Ptable { return &models.Ptable{Name: d.PtableName} },
		func(p *models.Ptable) {
			p.Layout = templates.PartitionTable()
			p.OSFamily = d.OSFamily
		})
	if err != nil {
		return err
	}

	seeded.Ptable = ptable
	s.recorded(seeded, KindPtable, ptable.Name, outcome)
	return nil
}

func (s *seedService) seedPXETemplate(ctx context.Context, seeded *Seeded) error {
	tmpl, err := s.seedConfigTemplate(ctx, seeded, s.deployment.PXEName, templates.PXELinux(), models.TemplateKindPXELinux)
	if err != nil {
		return err
	}
	seeded.PXETemplate = tmpl
	return nil
}

func (s *seedService) seedKickstartTemplate(ctx context.Context, seeded *Seeded) error {
	tmpl, err := s.seedConfigTemplate(ctx, seeded, s.deployment.KickstartName, templates.Kickstart(), models.TemplateKindProvision)
	if err != nil {
		return err
	}
	seeded.KickstartTemplate = tmpl
	return nil
}

func (s *seedService) seedConfigTemplate(ctx context.Context, seeded *Seeded, name, body, kindName string) (*models.ConfigTemplate, error) {
	kind, err := s.templateKind(ctx, seeded, kindName)
	if err != nil {
		return nil, err
	}
	osID := seeded.OperatingSystem.ID

	tmpl, outcome, err := upsert[string, models.ConfigTemplate](ctx, s.repos.ConfigTemplates, name,
		func() *models.ConfigTemplate { return &models.ConfigTemplate{Name: name} },
		func(t *models.ConfigTemplate) {
			t.Template = body
			t.OperatingSystemIDs = models.AppendUnique(t.OperatingSystemIDs, osID)
			t.Snippet = false
			t.TemplateKindID = models.RefID(kind.ID)
		})
	if err != nil {
		return nil, err
	}

	s.recorded(seeded, KindConfigTemplate, tmpl.Name, outcome)
	return tmpl, nil
}

// seedOperatingSystemTemplates attaches the partition table and the default
// templates to the operating system and saves it.
func (s *seedService) seedOperatingSystemTemplates(ctx context.Context, seeded *Seeded) error {
	os := seeded.OperatingSystem
	os.PtableIDs = []uuid.UUID{seeded.Ptable.ID}

	// Both kinds default to the kickstart template: PXELinux does not map to
	// seeded.PXETemplate. Stores seeded by earlier releases carry this mapping,
	// so it is kept as is. Existing mappings are left alone.
	for _, kindName := range []string{models.TemplateKindProvision, models.TemplateKindPXELinux} {
		kind, err := s.templateKind(ctx, seeded, kindName)
		if err != nil {
			return err
		}
		if os.DefaultTemplateFor(kind.ID) != nil {
			continue
		}
		os.DefaultTemplates = append(os.DefaultTemplates, models.OSDefaultTemplate{
			TemplateKindID:   kind.ID,
			ConfigTemplateID: seeded.KickstartTemplate.ID,
		})
	}

	return s.repos.OperatingSystems.Update(ctx, os)
}

func (s *seedService) seedClassParameters(ctx context.Context, seeded *Seeded) error {
	overrides, err := BuildOverrides(seeded.Layout, seeded.Domain.Name, s.deployment, s.secrets)
	if err != nil {
		return err
	}
	seeded.Overrides = overrides

	for _, name := range OverrideClasses {
		class, err := s.puppetclass(ctx, seeded, name)
		if err != nil {
			return err
		}
		if err := s.applyOverrides(ctx, class, overrides, seeded.Report); err != nil {
			return fmt.Errorf("class %s: %w", name, err)
		}
	}
	return nil
}

func (s *seedService) seedHostGroups(ctx context.Context, seeded *Seeded) error {
	envID, err := s.environment(ctx, seeded)
	if err != nil {
		return err
	}

	for _, hgc := range hostGroupClasses {
		class, err := s.puppetclass(ctx, seeded, hgc.class)
		if err != nil {
			return err
		}

		hg, outcome, err := upsert[string, models.HostGroup](ctx, s.repos.HostGroups, hgc.name,
			func() *models.HostGroup { return &models.HostGroup{Name: hgc.name} },
			func(hg *models.HostGroup) {
				hg.EnvironmentID = envID
				hg.PuppetclassIDs = []uuid.UUID{class.ID}
			})
		if err != nil {
			return fmt.Errorf("host group %s: %w", hgc.name, err)
		}

		seeded.HostGroups[hg.Name] = hg
		s.recorded(seeded, KindHostGroup, hg.Name, outcome)
	}
	return nil
}

func (s *seedService) seedHostGroupAssociations(ctx context.Context, seeded *Seeded) error {
	puppet, err := s.proxyFor(ctx, models.FeaturePuppet)
	if err != nil {
		return err
	}
	puppetCA, err := s.proxyFor(ctx, models.FeaturePuppetCA)
	if err != nil {
		return err
	}

	for _, hgc := range hostGroupClasses {
		hg := seeded.HostGroups[hgc.name]
		hg.PuppetProxyID = puppet
		hg.PuppetCAProxyID = puppetCA
		hg.OperatingSystemID = models.RefID(seeded.OperatingSystem.ID)
		hg.ArchitectureID = models.RefID(seeded.Architecture.ID)
		hg.MediumID = models.RefID(seeded.Medium.ID)
		hg.PtableID = models.RefID(seeded.Ptable.ID)
		hg.SubnetID = models.RefID(seeded.Subnet.ID)
		hg.DomainID = models.RefID(seeded.Domain.ID)

		if err := s.repos.HostGroups.Update(ctx, hg); err != nil {
			return fmt.Errorf("host group %s: %w", hg.Name, err)
		}
	}
	return nil
}

// proxyFor returns the ID of the first proxy offering feature, or nil when no
// proxy offers it. An unregistered feature is a lookup miss.
func (s *seedService) proxyFor(ctx context.Context, feature string) (*uuid.UUID, error) {
	proxy, err := s.repos.SmartProxies.FirstWithFeature(ctx, feature)
	if err != nil {
		return nil, lookupMiss(err, "feature", feature)
	}
	if proxy == nil {
		s.logger.Warn("No smart proxy offers feature", zap.String("feature", feature))
	}
	return models.ProxyID(proxy), nil
}

// environment looks up the configured puppet environment. A missing
// environment leaves the host groups without one.
func (s *seedService) environment(ctx context.Context, seeded *Seeded) (*uuid.UUID, error) {
	name := s.deployment.EnvironmentName
	env, err := s.repos.Environments.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Puppet environment not imported, host groups get none",
				zap.String("environment", name))
			return nil, nil
		}
		return nil, err
	}
	seeded.Environment = env
	return models.RefID(env.ID), nil
}

func (s *seedService) templateKind(ctx context.Context, seeded *Seeded, name string) (*models.TemplateKind, error) {
	if kind, ok := seeded.TemplateKinds[name]; ok {
		return kind, nil
	}
	kind, err := s.repos.TemplateKinds.FindByName(ctx, name)
	if err != nil {
		return nil, lookupMiss(err, "template kind", name)
	}
	seeded.TemplateKinds[name] = kind
	return kind, nil
}

func (s *seedService) puppetclass(ctx context.Context, seeded *Seeded, name string) (*models.Puppetclass, error) {
	if class, ok := seeded.Puppetclasses[name]; ok {
		return class, nil
	}
	class, err := s.repos.Puppetclasses.FindByName(ctx, name)
	if err != nil {
		return nil, lookupMiss(err, "puppet class", name)
	}
	seeded.Puppetclasses[name] = class
	return class, nil
}

func (s *seedService) recorded(seeded *Seeded, kind, name string, outcome Outcome) {
	seeded.Report.Record(kind, outcome)
	s.logger.Info("Seeded "+kind,
		zap.String("name", name),
		zap.Stringer("outcome", outcome))
}

// lookupMiss turns a not-found from an externally registered record into a
// fatal lookup miss.
func lookupMiss(err error, what, name string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("%w: %s %q", apperrors.ErrLookupMiss, what, name)
	}
	return err
}
