// Package exchange defines the export job contract and selects which
// configured exchanges a run will process.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"cryptoexport/config"
	"cryptoexport/internal/snapshot"
	"cryptoexport/logger"
)

// ErrUnknownType marks a raw record whose type no classifier rule covers.
// Callers log the record and skip it; the run continues.
var ErrUnknownType = errors.New("unknown record type")

// Env carries the per-run collaborators into each exchange job.
type Env struct {
	Cfg      *config.Config
	Cache    *snapshot.Cache
	Limiter  *rate.Limiter
	UseLocal bool
	Log      *logger.Log
}

// Job is one exchange export. Run fetches (or reloads) the account data,
// classifies it, and writes the per-exchange CSV ledger.
type Job interface {
	Name() string
	RequiredKeys() []string
	Run(ctx context.Context, env *Env) error
}

// NotConfiguredError reports an explicitly whitelisted exchange with no
// config section. Mapped to exit code 2.
type NotConfiguredError struct {
	Name string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("explicitly included exchange %q is not defined in config file", e.Name)
}

// MissingCredentialsError reports a queued exchange whose config section
// lacks required credential fields. Mapped to exit code 3.
type MissingCredentialsError struct {
	Name string
	Keys []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s configuration requires %s values", e.Name, strings.Join(e.Keys, ", "))
}

// Select applies the include/exclude filters and config presence checks to
// the supported jobs, in their declared order. Credential completeness is
// verified for every queued job before any network call happens.
func Select(jobs []Job, cfg *config.Config, include, exclude []string) ([]Job, error) {
	includeSet := toSet(include)
	excludeSet := toSet(exclude)

	var queued []Job
	for _, job := range jobs {
		name := job.Name()
		if len(includeSet) > 0 {
			if _, ok := includeSet[name]; !ok {
				continue
			}
		}

		section := cfg.Exchange(name)
		if section == nil {
			if _, ok := includeSet[name]; ok {
				return nil, &NotConfiguredError{Name: name}
			}
			continue
		}

		if _, ok := excludeSet[name]; ok {
			continue
		}

		if missing := missingKeys(section, job.RequiredKeys()); len(missing) > 0 {
			return nil, &MissingCredentialsError{Name: name, Keys: missing}
		}

		queued = append(queued, job)
	}
	return queued, nil
}

func missingKeys(section map[string]string, required []string) []string {
	var missing []string
	for _, k := range required {
		if section[k] == "" {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
