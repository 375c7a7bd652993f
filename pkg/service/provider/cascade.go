// Package provider resolves a configured capability preference into a concrete
// provider, falling back when the preferred one cannot be used.
package provider

import (
	"fmt"

	"github.com/secmon-lab/echonotes/pkg/domain/types"
)

// Option is one candidate implementation of a capability. Build returns an error
// describing why the option is unavailable.
type Option[P any] struct {
	Name  string
	Build func() (P, error)
}

// Resolution is the result of resolving a preference. Warning is empty unless the
// resolution deviated from the requested preference.
type Resolution[P any] struct {
	Provider  P
	Name      string
	Available bool
	Warning   string
}

// Cascade resolves preferences for a single capability such as reflection,
// embedding or transcription.
type Cascade[P any] struct {
	Capability string
	Local      *Option[P]
	Remote     *Option[P]
	// AutoOrder lists the options tried by "auto", first available wins
	AutoOrder []types.ProviderPreference
	// Fallback is used when nothing else resolves. Nil means the capability may
	// resolve to no provider.
	Fallback *Option[P]
}

// Resolve maps pref onto a provider. It never fails; unusable choices are
// reported through Resolution.Warning.
func (c *Cascade[P]) Resolve(pref types.ProviderPreference) Resolution[P] {
	canonical, known := pref.Normalize()
	if !known {
		res := c.resolveAuto()
		res.Warning = fmt.Sprintf("Unknown %s provider '%s'; automatic provider selection was used.", c.Capability, pref)
		return res
	}

	if canonical == types.ProviderPreferenceAuto {
		return c.resolveAuto()
	}

	opt := c.option(canonical)
	p, err := build(opt)
	if err == nil {
		return Resolution[P]{Provider: p, Name: opt.Name, Available: true}
	}

	res := c.resolveFallback()
	if res.Available {
		res.Warning = fmt.Sprintf("Configured %s %s provider is unavailable (%s); %s fallback was used.",
			canonical, c.Capability, err.Error(), res.Name)
	} else {
		res.Warning = fmt.Sprintf("Configured %s %s provider is unavailable (%s).",
			canonical, c.Capability, err.Error())
	}
	return res
}

// FallbackProvider returns the deterministic fallback used after a runtime failure
func (c *Cascade[P]) FallbackProvider() (P, string, bool) {
	res := c.resolveFallback()
	return res.Provider, res.Name, res.Available
}

// LocalProvider builds the local option, used to retry after a remote failure
func (c *Cascade[P]) LocalProvider() (P, string, bool) {
	p, err := build(c.Local)
	if err != nil {
		return p, "", false
	}
	return p, c.Local.Name, true
}

func (c *Cascade[P]) resolveAuto() Resolution[P] {
	for _, pref := range c.AutoOrder {
		opt := c.option(pref)
		if p, err := build(opt); err == nil {
			return Resolution[P]{Provider: p, Name: opt.Name, Available: true}
		}
	}
	return c.resolveFallback()
}

func (c *Cascade[P]) resolveFallback() Resolution[P] {
	if c.Fallback != nil {
		if p, err := build(c.Fallback); err == nil {
			return Resolution[P]{Provider: p, Name: c.Fallback.Name, Available: true}
		}
	}
	return Resolution[P]{}
}

func (c *Cascade[P]) option(pref types.ProviderPreference) *Option[P] {
	switch pref {
	case types.ProviderPreferenceLocal:
		return c.Local
	case types.ProviderPreferenceRemote:
		return c.Remote
	default:
		return nil
	}
}

type unavailableError string

func (e unavailableError) Error() string { return string(e) }

// ErrNotConfigured is reported for options that were never set up
const ErrNotConfigured = unavailableError("not configured")

func build[P any](opt *Option[P]) (P, error) {
	var zero P
	if opt == nil || opt.Build == nil {
		return zero, ErrNotConfigured
	}
	return opt.Build()
}

// Static returns a builder that always yields p
func Static[P any](p P) func() (P, error) {
	return func() (P, error) { return p, nil }
}

// Unavailable returns a builder that always reports reason
func Unavailable[P any](reason string) func() (P, error) {
	return func() (P, error) {
		var zero P
		return zero, unavailableError(reason)
	}
}
