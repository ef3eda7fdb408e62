// Package group organizes stored disclosure documents by issuer and
// orders them chronologically by fiscal quarter.
package group

import (
	"strings"

	"github.com/kabuto-group/disclosure-cli/internal/model"
	"github.com/kabuto-group/disclosure-cli/internal/refdata"
)

// Filter narrows which documents participate in grouping. Zero value
// means no filtering.
type Filter struct {
	// Include keeps only documents whose title or storage key contains
	// the substring (case-insensitive).
	Include string
	// Codes keeps only documents whose normalized issuer code is in
	// the list.
	Codes []string
	// MaxGroups caps the number of groups returned, in discovery
	// order. Zero means unlimited.
	MaxGroups int
}

// Grouper buckets documents by normalized issuer code and annotates
// each group with reference data.
type Grouper struct {
	table *refdata.Table
}

// NewGrouper creates a Grouper backed by the issuer reference table.
func NewGrouper(table *refdata.Table) *Grouper {
	return &Grouper{table: table}
}

// Group partitions docs into per-issuer groups. Every document that
// survives the filter lands in exactly one group. Groups are returned
// in the order their codes were first seen.
func (g *Grouper) Group(docs []model.Document, filter Filter) []*model.DocumentGroup {
	allowed := map[string]bool{}
	for _, c := range filter.Codes {
		allowed[refdata.NormalizeCode(c)] = true
	}
	include := strings.ToLower(filter.Include)

	byCode := map[string]*model.DocumentGroup{}
	var order []string

	for _, doc := range docs {
		if include != "" &&
			!strings.Contains(strings.ToLower(doc.Title), include) &&
			!strings.Contains(strings.ToLower(doc.StorageKey), include) {
			continue
		}

		code := refdata.NormalizeCode(doc.Code)
		if len(allowed) > 0 && !allowed[code] {
			continue
		}

		grp, ok := byCode[code]
		if !ok {
			if filter.MaxGroups > 0 && len(order) >= filter.MaxGroups {
				continue
			}
			info := g.lookup(code)
			grp = &model.DocumentGroup{
				Code:   code,
				Name:   info.Name,
				Sector: info.Sector,
				Size:   info.Size,
			}
			byCode[code] = grp
			order = append(order, code)
		}
		grp.Documents = append(grp.Documents, doc)
	}

	groups := make([]*model.DocumentGroup, 0, len(order))
	for _, code := range order {
		groups = append(groups, byCode[code])
	}
	return groups
}

func (g *Grouper) lookup(code string) model.IssuerInfo {
	if g.table != nil {
		if info, ok := g.table.Lookup(code); ok {
			return info
		}
	}
	return model.IssuerInfo{
		Code:   code,
		Name:   refdata.Unknown,
		Sector: refdata.Unknown,
		Size:   refdata.Unknown,
	}
}
