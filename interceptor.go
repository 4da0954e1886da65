package restfit

// applyInterceptors runs the ordered chain over the current response. Each
// interceptor may return a replacement, which becomes the current response
// for the remainder of the chain; a nil return leaves it unchanged.
//
// On the failure path, a current status entering the 2xx range stops the
// chain immediately and resolves the call as a success; this is the only way
// an error settles as a success. The returned bool reports that promotion.
func applyInterceptors(chain []Interceptor, current *Response, failurePath bool) (*Response, bool) {
	for _, intercept := range chain {
		if replaced := intercept(current); replaced != nil {
			current = replaced
		}
		if failurePath && current.IsSuccess() {
			return current, true
		}
	}
	return current, false
}
