package coverage

import "github.com/jakechorley/clinic-cover/pkg/core/model"

// StatusResult is the coverage status of a request as of read time
type StatusResult struct {
	Status  model.RequestStatus
	Covered int
	Total   int
}

// ComputeStatus derives the aggregate status from a set of sessions
func ComputeStatus(sessions []model.ClinicSession) StatusResult {
	result := StatusResult{Total: len(sessions)}
	for _, s := range sessions {
		if s.IsCovered() {
			result.Covered++
		}
	}

	switch {
	case result.Covered == 0:
		result.Status = model.StatusPending
	case result.Covered < result.Total:
		result.Status = model.StatusPartialCovered
	default:
		result.Status = model.StatusFullyCovered
	}
	return result
}

// ComputeRequestStatus derives a request's status from its loaded sessions.
// The stored status on the request is never consulted.
func ComputeRequestStatus(request *model.TimeOffRequest) StatusResult {
	return ComputeStatus(request.Sessions)
}

// ApplyStatus overwrites the request's status and progress with the derived values.
// Every code path that surfaces a request passes it through here.
func ApplyStatus(request *model.TimeOffRequest) *model.TimeOffRequest {
	result := ComputeRequestStatus(request)
	request.Status = result.Status
	request.Progress = model.CoverageProgress{Total: result.Total, Covered: result.Covered}
	return request
}

// ApplyStatuses applies ApplyStatus to each request in place
func ApplyStatuses(requests []model.TimeOffRequest) []model.TimeOffRequest {
	for i := range requests {
		ApplyStatus(&requests[i])
	}
	return requests
}
