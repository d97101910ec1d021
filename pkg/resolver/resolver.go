// Package resolver picks the owning user of a device.
//
// Resolution runs an ordered list of strategies and stops at the first one
// that yields a user who is both in the personnel directory and provisioned
// remotely. The default order is primary hint, plurality of auxiliary hints,
// hostname convention, then the shared-ownership schema.
package resolver

import (
	"sort"
	"strings"

	"github.com/agentstation/assetsync/pkg/constants"
	"github.com/agentstation/assetsync/pkg/inventory"
)

// Strategy names.
const (
	StrategyPrimary   = "primary"
	StrategyPlurality = "plurality"
	StrategyHostname  = "hostname"
	StrategySchema    = "schema"
)

// Strategy attempts to resolve the owner of one device.
type Strategy func(d *inventory.DeviceRecord, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool)

// Rule is a named strategy.
type Rule struct {
	Name     string
	Strategy Strategy
}

// Resolution is the outcome for one device. Strategy is empty when no rule
// resolved a user.
type Resolution struct {
	User     inventory.RemoteUser
	Strategy string
}

// Resolved reports whether a user was found.
func (r Resolution) Resolved() bool {
	return r.Strategy != ""
}

// Engine evaluates rules in order.
type Engine struct {
	rules []Rule
	dir   *inventory.Directory
	users *inventory.UserIndex
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	hostnamePrefix string
	adminRules     []inventory.AdminRule
	rules          []Rule
}

// WithHostnamePrefix sets the first segment of personal machine names.
func WithHostnamePrefix(prefix string) Option {
	return func(c *config) {
		c.hostnamePrefix = prefix
	}
}

// WithAdminRules sets the shared-ownership schema.
func WithAdminRules(rules []inventory.AdminRule) Option {
	return func(c *config) {
		c.adminRules = rules
	}
}

// WithRules replaces the default rule chain.
func WithRules(rules ...Rule) Option {
	return func(c *config) {
		c.rules = rules
	}
}

// New creates an Engine over dir and users. Users provisioned after New
// are visible to later resolutions.
func New(dir *inventory.Directory, users *inventory.UserIndex, opts ...Option) *Engine {
	cfg := &config{hostnamePrefix: constants.DefaultHostnamePrefix}
	for _, opt := range opts {
		opt(cfg)
	}
	rules := cfg.rules
	if rules == nil {
		rules = DefaultRules(cfg.hostnamePrefix, cfg.adminRules)
	}
	return &Engine{rules: rules, dir: dir, users: users}
}

// DefaultRules returns the standard chain.
func DefaultRules(hostnamePrefix string, adminRules []inventory.AdminRule) []Rule {
	return []Rule{
		{Name: StrategyPrimary, Strategy: Primary()},
		{Name: StrategyPlurality, Strategy: Plurality()},
		{Name: StrategyHostname, Strategy: Hostname(hostnamePrefix)},
		{Name: StrategySchema, Strategy: AdminSchema(adminRules)},
	}
}

// Resolve returns the first rule's answer for d.
func (e *Engine) Resolve(d *inventory.DeviceRecord) Resolution {
	for _, rule := range e.rules {
		if user, ok := rule.Strategy(d, e.dir, e.users); ok {
			return Resolution{User: user, Strategy: rule.Name}
		}
	}
	return Resolution{}
}

// Rules returns the rule names in evaluation order.
func (e *Engine) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// lookup validates a NetID against the directory and the provisioned users.
func lookup(netID string, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool) {
	if netID == "" {
		return inventory.RemoteUser{}, false
	}
	rec, ok := dir.ByNetID(netID)
	if !ok {
		return inventory.RemoteUser{}, false
	}
	return users.ForDirectory(rec)
}

// Primary resolves the feed's explicit last-user value.
func Primary() Strategy {
	return func(d *inventory.DeviceRecord, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool) {
		netID, ok := Candidate(d.PrimaryUser)
		if !ok {
			return inventory.RemoteUser{}, false
		}
		return lookup(netID, dir, users)
	}
}

// Plurality tallies the auxiliary hints and picks the qualifying candidate
// with the strictly highest count. A tie at the top resolves to nobody.
func Plurality() Strategy {
	return func(d *inventory.DeviceRecord, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool) {
		counts := Tally(d.UserHints)

		candidates := make([]string, 0, len(counts))
		for id := range counts {
			candidates = append(candidates, id)
		}
		sort.Strings(candidates)

		var (
			best     inventory.RemoteUser
			bestHits int
			tied     bool
		)
		for _, id := range candidates {
			user, ok := lookup(id, dir, users)
			if !ok {
				continue
			}
			switch n := counts[id]; {
			case n > bestHits:
				best, bestHits, tied = user, n, false
			case n == bestHits:
				tied = true
			}
		}
		if bestHits == 0 || tied {
			return inventory.RemoteUser{}, false
		}
		return best, true
	}
}

// Hostname extracts the NetID from names shaped "<prefix>-<netid>-...".
func Hostname(prefix string) Strategy {
	lead := strings.ToLower(prefix) + "-"
	return func(d *inventory.DeviceRecord, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool) {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if prefix == "" || !strings.HasPrefix(name, lead) {
			return inventory.RemoteUser{}, false
		}
		rest := name[len(lead):]
		end := strings.Index(rest, "-")
		if end <= 0 {
			return inventory.RemoteUser{}, false
		}
		netID, ok := normalizeToken(rest[:end])
		if !ok {
			return inventory.RemoteUser{}, false
		}
		return lookup(netID, dir, users)
	}
}

// AdminSchema applies the first shared-ownership rule whose prefix matches
// the device name. Later rules are not consulted when the first match's
// NetID is not provisioned.
func AdminSchema(rules []inventory.AdminRule) Strategy {
	return func(d *inventory.DeviceRecord, dir *inventory.Directory, users *inventory.UserIndex) (inventory.RemoteUser, bool) {
		for _, rule := range rules {
			if rule.Matches(d.Name) {
				return lookup(inventory.NormalizeNetID(rule.NetID), dir, users)
			}
		}
		return inventory.RemoteUser{}, false
	}
}

// Stats counts resolutions per strategy.
type Stats struct {
	ByStrategy map[string]int `json:"by_strategy" yaml:"by_strategy"`
	Unassigned int            `json:"unassigned" yaml:"unassigned"`
}

// Record adds r to the counts.
func (s *Stats) Record(r Resolution) {
	if !r.Resolved() {
		s.Unassigned++
		return
	}
	if s.ByStrategy == nil {
		s.ByStrategy = make(map[string]int)
	}
	s.ByStrategy[r.Strategy]++
}

// Resolved returns the number of devices with an owner.
func (s Stats) Resolved() int {
	n := 0
	for _, v := range s.ByStrategy {
		n += v
	}
	return n
}
