package beanstalkt

import "sort"

// session mirrors the connection-scoped state on the server: the tube used
// for put and the set of watched tubes. It is mutated only when the server
// confirms a use, watch or ignore command, and it is the state that gets
// replayed onto a fresh connection after a reconnect.
type session struct {
	using    string
	watching map[string]bool
}

func newSession() *session {
	return &session{
		using:    "default",
		watching: map[string]bool{"default": true},
	}
}

// update applies a confirmed use, watch or ignore reply.
func (s *session) update(req *request) {
	switch req.op {
	case "use":
		s.using = req.tube
	case "watch":
		s.watching[req.tube] = true
	case "ignore":
		delete(s.watching, req.tube)
	}
}

// resyncRequests builds the command sequence that restores this session on
// a fresh connection: watch every watched tube other than default, ignore
// default if it is no longer in the watch set, and re-use the current tube.
// The sequence is empty when the session still has its initial state.
func (s *session) resyncRequests() []*request {
	var reqs []*request

	var tubes []string
	for tube := range s.watching {
		if tube != "default" {
			tubes = append(tubes, tube)
		}
	}
	sort.Strings(tubes)

	for _, tube := range tubes {
		reqs = append(reqs, watchRequest(tube))
	}

	if !s.watching["default"] {
		reqs = append(reqs, ignoreRequest("default"))
	}
	if s.using != "default" {
		reqs = append(reqs, useRequest(s.using))
	}

	return reqs
}
