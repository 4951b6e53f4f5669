package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/dist"
	errs "github.com/matzehuels/pkgmirror/pkg/errors"
	"github.com/matzehuels/pkgmirror/pkg/integrations/findlinks"
	"github.com/matzehuels/pkgmirror/pkg/integrations/pypi"
	"github.com/matzehuels/pkgmirror/pkg/metadata"
	"github.com/matzehuels/pkgmirror/pkg/mirror"
)

// mirrorOpts holds the flags shared by commands that query indexes or
// inspect archives. Only flags the user set override the config.
type mirrorOpts struct {
	requirements string        // requirements.txt file
	indexURLs    []string      // --index-url, repeatable
	findLinks    []string      // --find-links, repeatable
	binaries     bool          // accept wheels, eggs and installers
	develop      bool          // accept development checkouts
	python       string        // interpreter for setup.py
	setupTimeout time.Duration // setup.py time limit
	refresh      bool          // bypass cached index pages
	path         string        // mirror directory
}

func (o *mirrorOpts) registerQuery(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.requirements, "requirements", "r", "", "read requirements from a requirements.txt file")
	f.StringArrayVarP(&o.indexURLs, "index-url", "i", nil, "simple index URL (repeatable, default "+pypi.DefaultIndexURL+")")
	f.StringArrayVarP(&o.findLinks, "find-links", "f", nil, "local directory of distributions (repeatable)")
	f.BoolVar(&o.binaries, "binaries", false, "accept binary distributions (wheels, eggs, installers)")
	f.BoolVar(&o.develop, "develop", false, "accept development checkouts")
	f.BoolVar(&o.refresh, "refresh", false, "bypass cached index pages")
	o.registerInspect(cmd)
}

func (o *mirrorOpts) registerInspect(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.python, "python", "", "interpreter used to run setup.py (default "+metadata.DefaultInterpreter+")")
	f.DurationVar(&o.setupTimeout, "setup-timeout", 0, "time limit for running setup.py")
}

func (o *mirrorOpts) registerPath(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.path, "path", "p", "", "mirror directory (default .)")
}

// config loads the layered config and applies the flags the user set.
func (c *CLI) config(cmd *cobra.Command, o *mirrorOpts) (Config, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return cfg, err
	}
	f := cmd.Flags()
	changed := func(name string) bool { return f.Lookup(name) != nil && f.Changed(name) }

	if changed("index-url") {
		cfg.IndexURLs = o.indexURLs
	}
	if changed("find-links") {
		cfg.FindLinks = o.findLinks
	}
	if changed("binaries") {
		cfg.SourceOnly = !o.binaries
	}
	if changed("develop") {
		cfg.DevelopOK = o.develop
	}
	if changed("python") {
		cfg.Interpreter = o.python
	}
	if changed("setup-timeout") {
		cfg.SetupTimeout.Duration = o.setupTimeout
	}
	if changed("path") {
		cfg.Path = o.path
	}
	return cfg, cfg.validate()
}

// readRequirements parses requirements from args and the optional file.
func readRequirements(args []string, file string) ([]dist.Requirement, error) {
	var reqs []dist.Requirement
	seen := make(map[string]bool)
	add := func(r dist.Requirement) {
		if !seen[r.Key] {
			seen[r.Key] = true
			reqs = append(reqs, r)
		}
	}
	for _, a := range args {
		r, err := dist.ParseRequirement(a)
		if err != nil {
			return nil, err
		}
		add(r)
	}
	if file != "" {
		fromFile, err := dist.ParseRequirementsFile(file)
		if err != nil {
			return nil, err
		}
		for _, r := range fromFile {
			add(r)
		}
	}
	if len(reqs) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "no requirements given")
	}
	return reqs, nil
}

// newInspector returns the setup.py-capable extractor, cached by archive
// content and scoped by interpreter.
func (c *CLI) newInspector(cfg Config, store cache.Cache) metadata.Inspector {
	ex := &metadata.Extractor{
		Interpreter: cfg.Interpreter,
		Timeout:     cfg.SetupTimeout.Duration,
		Logger:      c.Logger,
	}
	return metadata.NewCachedExtractor(ex, store, cache.NewScopedKeyer(nil, cfg.Interpreter+":"))
}

// newSources builds one source per index URL followed by one per
// find-links directory, in configuration order.
func (c *CLI) newSources(cfg Config, store cache.Cache) ([]mirror.Source, error) {
	var sources []mirror.Source
	for _, u := range cfg.Indexes() {
		client, err := pypi.NewClient(store, u, cfg.CacheTTL.Duration)
		if err != nil {
			return nil, err
		}
		client.Logger = c.Logger
		sources = append(sources, client)
	}
	for _, dir := range cfg.FindLinks {
		src, err := findlinks.New(dir)
		if err != nil {
			return nil, err
		}
		src.Logger = c.Logger
		sources = append(sources, src)
	}
	return sources, nil
}

// build runs a mirror build for the command's requirements.
func (c *CLI) build(ctx context.Context, cfg Config, o *mirrorOpts, args []string) (*mirror.Report, error) {
	reqs, err := readRequirements(args, o.requirements)
	if err != nil {
		return nil, err
	}
	store, err := c.newCache()
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if o.refresh {
		store = refreshCache{store}
	}

	sources, err := c.newSources(cfg, store)
	if err != nil {
		return nil, err
	}
	builder := &mirror.Builder{
		Sources:   sources,
		Policy:    cfg.Policy(),
		Inspector: c.newInspector(cfg, store),
		Logger:    c.Logger,
	}

	if c.spinnerEnabled() {
		s := newSpinner(ctx, "Querying indexes")
		c.hooks.attach(s)
		s.Start()
		defer func() {
			c.hooks.detach()
			s.Stop()
		}()
	}

	prog := newProgress(c.Logger)
	report, err := builder.Run(ctx, reqs)
	if err != nil {
		return report, err
	}
	prog.done("Queried " + plural(len(sources), "index", "indexes") + " for " + plural(len(reqs), "requirement", "requirements"))
	return report, nil
}

// refreshCache never reports a hit but still stores fresh results, so a
// --refresh run repopulates the cache.
type refreshCache struct{ cache.Cache }

func (refreshCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
