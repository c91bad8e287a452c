package model

import "time"

// DomainCrawlState is the per-domain slice of a crawl's persisted
// state: discovered templates, the visited set, the referrer graph
// and running counters.
type DomainCrawlState struct {
	Domain    string                           `json:"domain"`
	Templates map[TemplateID]*TemplateCluster  `json:"structures"`
	Visited   map[NormalizedURL]struct{}       `json:"visited"`
	URLTree   map[NormalizedURL][]NormalizedURL `json:"url_tree"`
	Stats     CrawlStats                       `json:"stats"`
}

// NewDomainCrawlState returns an empty state for a domain.
func NewDomainCrawlState(domain string) *DomainCrawlState {
	return &DomainCrawlState{
		Domain:    domain,
		Templates: make(map[TemplateID]*TemplateCluster),
		Visited:   make(map[NormalizedURL]struct{}),
		URLTree:   make(map[NormalizedURL][]NormalizedURL),
	}
}

// RecordFetch registers a successfully fetched page under its
// template, creating a new cluster if the template hasn't been seen.
func (s *DomainCrawlState) RecordFetch(u NormalizedURL, tmpl TemplateID) {
	cluster, ok := s.Templates[tmpl]
	if !ok {
		s.Templates[tmpl] = NewTemplateCluster(tmpl, u)
		return
	}
	cluster.AddMember(u)
}

// LinkChild records an outbound edge discovered on page `from`.
func (s *DomainCrawlState) LinkChild(from, child NormalizedURL) {
	s.URLTree[from] = append(s.URLTree[from], child)
}

// RepresentativeURLs returns the representative URL of every known
// template cluster, the set the scanner consumes.
func (s *DomainCrawlState) RepresentativeURLs() []NormalizedURL {
	urls := make([]NormalizedURL, 0, len(s.Templates))
	for _, c := range s.Templates {
		urls = append(urls, c.RepresentativeURL)
	}
	return urls
}

// CrawlStats holds the per-domain counters referenced by spec's
// CrawlState.stats field.
type CrawlStats struct {
	Fetched            int            `json:"fetched"`
	Succeeded          int            `json:"succeeded"`
	Failed             int            `json:"failed"`
	Retried            int            `json:"retried"`
	Duplicates         int            `json:"duplicates"`
	SwitchToHTTP       int            `json:"hybrid_switch_to_http"`
	HeavyFallback      int            `json:"hybrid_heavy_fallback"`
	DepthHistogram     map[int]int    `json:"depth_histogram"`
	StartedAt          time.Time      `json:"started_at"`
	LastCheckpointAt   time.Time      `json:"last_checkpoint_at"`
}

// CrawlState is the multi-domain envelope persisted to disk between
// stages.
type CrawlState struct {
	DomainData map[string]*DomainCrawlState `json:"domain_data"`
}

// NewCrawlState returns an empty multi-domain crawl state.
func NewCrawlState() *CrawlState {
	return &CrawlState{DomainData: make(map[string]*DomainCrawlState)}
}

// Domain returns (creating if needed) the state for a domain.
func (cs *CrawlState) Domain(domain string) *DomainCrawlState {
	d, ok := cs.DomainData[domain]
	if !ok {
		d = NewDomainCrawlState(domain)
		cs.DomainData[domain] = d
	}
	return d
}

// TotalVisited sums visited URLs across all domains.
func (cs *CrawlState) TotalVisited() int {
	total := 0
	for _, d := range cs.DomainData {
		total += len(d.Visited)
	}
	return total
}
