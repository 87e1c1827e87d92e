package registry

import (
	"io"
	"slices"

	json "github.com/json-iterator/go"

	"github.com/xraph/hive/internal/types"
)

// ServiceInfo describes a registered service for diagnostics.
type ServiceInfo struct {
	Name       string   `json:"name"`
	Types      []string `json:"types"`
	Tags       []string `json:"tags,omitempty"`
	Scope      string   `json:"scope"`
	State      string   `json:"state"`
	Realized   bool     `json:"realized"`
	Dependents []string `json:"dependents,omitempty"`
}

// Report is the JSON document written by WriteReport.
type Report struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Closed   bool          `json:"closed"`
	Parents  []string      `json:"parents,omitempty"`
	Handlers int           `json:"handlers"`
	Services []ServiceInfo `json:"services"`
}

// Inspect describes the services registered with r, in registration order.
func (r *Registry) Inspect() []ServiceInfo {
	providers := r.own.services()
	slices.Reverse(providers)

	infos := make([]ServiceInfo, len(providers))
	for i, p := range providers {
		info := ServiceInfo{
			Name:       p.displayName,
			Scope:      p.scope.String(),
			State:      p.bindingState().String(),
			Realized:   p.instance.Load() != nil,
			Dependents: p.dependentNames(),
		}
		if p.stopped.Load() {
			info.State = "stopped"
		}
		for _, t := range p.declared {
			info.Types = append(info.Types, types.Format(t))
		}
		for _, tag := range p.allTags() {
			info.Tags = append(info.Tags, string(tag))
		}
		infos[i] = info
	}
	return infos
}

// WriteReport writes an indented JSON description of r to w.
func (r *Registry) WriteReport(w io.Writer) error {
	report := Report{
		ID:       r.id.String(),
		Name:     r.name,
		Closed:   r.Closed(),
		Handlers: len(r.own.handlers()),
		Services: r.Inspect(),
	}
	for _, parent := range r.parents {
		report.Parents = append(report.Parents, parent.DisplayName())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
