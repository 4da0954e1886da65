package restfit

// resolveSuccess picks the first success handler whose status set contains
// the final status and returns its result; with no match the raw payload is
// returned unchanged. A handler registered without statuses matches any 2xx.
func resolveSuccess(desc *Descriptor, resp *Response) (any, error) {
	for _, entry := range desc.successHandlers {
		if matchesSuccess(entry.statuses, resp) {
			return entry.fn(resp.Data)
		}
	}
	return resp.Data, nil
}

func matchesSuccess(statuses []int, resp *Response) bool {
	if len(statuses) == 0 {
		return resp.IsSuccess()
	}
	return containsStatus(statuses, resp.StatusCode)
}

// resolveFailure looks up error handlers with specific-status precedence: a
// handler whose status set contains the final status wins over a catch-all,
// regardless of declaration order between the two; within each class the
// first declared handler wins. The synthetic status 0 of a transport failure
// is matched only by a catch-all. With no match the original failure is
// re-raised unchanged.
func resolveFailure(desc *Descriptor, callErr *ClientError) (any, error) {
	if callErr.StatusCode != 0 {
		for _, entry := range desc.errorHandlers {
			if len(entry.statuses) > 0 && containsStatus(entry.statuses, callErr.StatusCode) {
				return entry.fn(callErr)
			}
		}
	}
	for _, entry := range desc.errorHandlers {
		if len(entry.statuses) == 0 {
			return entry.fn(callErr)
		}
	}
	return nil, callErr
}
