package scanner

import "github.com/a11y-auditor/auditor/internal/model"

// Job describes one page for the driver pool to scan: a representative
// URL from the crawler, a restricted URL requiring auth, or a
// funnel-step HTML snapshot served over file://.
type Job struct {
	URL          model.NormalizedURL
	IsFile       bool
	AuthRequired bool
	FunnelName   string
	FunnelStep   string
	StepNumber   int
}

// RepresentativeJobs builds one Job per representative URL, flagging
// any that match a restricted-URL prefix so the worker applies auth
// before navigating.
func RepresentativeJobs(urls []model.NormalizedURL, isRestricted func(string) bool) []Job {
	jobs := make([]Job, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, Job{URL: u, AuthRequired: isRestricted(string(u))})
	}
	return jobs
}

// FunnelJob builds a Job for a single funnel-step HTML snapshot,
// addressed as a file:// URL so it flows through the same worker code
// as a live page.
func FunnelJob(snapshotPath, funnelName, funnelStep string, stepNumber int) Job {
	return Job{
		URL:        model.NormalizedURL("file://" + snapshotPath),
		IsFile:     true,
		FunnelName: funnelName,
		FunnelStep: funnelStep,
		StepNumber: stepNumber,
	}
}
