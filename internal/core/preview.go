package core

// preview.go is the read-only entry point.

import "context"

// Preview runs the pipeline over raw file bytes and returns the composed
// report. It persists nothing: calling Preview twice on the same bytes
// yields identical statistics and creates no records. The report carries a
// token a subsequent Commit can use to reuse this parse.
func (s *Service) Preview(ctx context.Context, data []byte) (*PreviewReport, error) {
	_, run, err := s.run(ctx, data)
	if err != nil {
		return nil, err
	}
	return run.report, nil
}

// PreviewToken returns the cached report for a previously issued token, or
// false when the token is unknown or expired.
func (s *Service) PreviewToken(token string) (*PreviewReport, bool) {
	run := s.cache.Get(token)
	if run == nil {
		return nil, false
	}
	return run.report, true
}
