package report

import (
	"time"

	"fontrelease/internal/pipeline"
)

// FromResult builds the report for a finished run. err is the error returned
// by the executor, if any.
func FromResult(res *pipeline.Result, err error) *Report {
	r := &Report{
		RunID:     res.RunID,
		Version:   res.Version,
		Succeeded: err == nil && res.Succeeded(),
		StartedAt: res.StartedAt,
		Duration:  res.Duration.Round(time.Millisecond).String(),
	}
	if res.Trigger != nil {
		r.Trigger = res.Trigger.String()
	}
	if err != nil {
		r.Error = err.Error()
	}

	for _, s := range res.Stages {
		st := Stage{Name: string(s.Stage), Status: string(s.Status)}
		if s.Status != pipeline.StatusSkipped {
			st.Duration = s.Duration.Round(time.Millisecond).String()
		}
		if s.Err != nil {
			st.Error = s.Err.Error()
		}
		r.Stages = append(r.Stages, st)
	}

	if res.Release != nil {
		r.Release = &Release{
			ID:     res.Release.ID,
			URL:    res.Release.URL,
			Assets: res.Release.Assets,
		}
	}
	return r
}
