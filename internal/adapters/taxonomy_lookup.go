package adapters

import (
	jobsvc "itad_portal_backend/internal/jobs/service"
	taxsvc "itad_portal_backend/internal/taxonomy/service"
)

// The taxonomy service answers the inventory lookups directly.
var _ jobsvc.TaxonomyLookup = (*taxsvc.Service)(nil)
