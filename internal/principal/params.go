// AngelaMos | 2026
// params.go

package principal

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	Page     int
	PageSize int
}

func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// ListParams filters the admin listing. Empty fields do not filter.
type ListParams struct {
	Pagination
	Search string
	Role   Role
	Status Status
}

// DirectoryParams filters the public listing. Visibility is always
// enforced; City and Tier narrow it further.
type DirectoryParams struct {
	Pagination
	City string
	Tier TierName
}
